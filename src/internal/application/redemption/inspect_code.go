package redemption

import (
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
)

// InspectCodeQuery 兌換碼查詢
type InspectCodeQuery struct {
	Code string
}

// TierAvailability 獎項與剩餘名額
type TierAvailability struct {
	TierView
	MaxWinners *int // nil 代表不限名額
	Remaining  *int
}

// CampaignSummary 活動摘要
type CampaignSummary struct {
	ID           string
	Name         string
	Description  string
	Distribution string
	StartsAt     time.Time
	EndsAt       time.Time
	Tiers        []TierAvailability
}

// InspectCodeResult 兌換碼可兌換時的查詢結果
type InspectCodeResult struct {
	Code      string
	ExpiresAt *time.Time
	Campaign  *CampaignSummary // 未綁定活動時為 nil
}

// InspectCodeUseCase 唯讀檢查兌換碼是否可兌換
//
// 不取得任何鎖；錯誤分類與兌換流程的 Validating 階段相同。
// 結果只是當下的快照，真正兌換時仍可能失敗。
type InspectCodeUseCase struct {
	codeRepo          reward.CodeRepository
	campaignRepo      reward.CampaignRepository
	now               func() time.Time
	allowCampaignless bool
}

// NewInspectCodeUseCase 創建查詢用例
func NewInspectCodeUseCase(
	codeRepo reward.CodeRepository,
	campaignRepo reward.CampaignRepository,
	now func() time.Time,
	allowCampaignless bool,
) *InspectCodeUseCase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &InspectCodeUseCase{
		codeRepo:          codeRepo,
		campaignRepo:      campaignRepo,
		now:               now,
		allowCampaignless: allowCampaignless,
	}
}

// Execute 執行查詢
func (uc *InspectCodeUseCase) Execute(query InspectCodeQuery) (*InspectCodeResult, error) {
	value := reward.NormalizeCode(query.Code)
	if value == "" {
		return nil, reward.ErrCouponInvalid.WithContext("reason", "empty code")
	}
	now := uc.now()

	code, err := uc.codeRepo.FindByCode(nil, value)
	if err != nil {
		return nil, codeLookupError(err, value)
	}
	if err := code.CheckRedeemable(now); err != nil {
		return nil, err
	}

	result := &InspectCodeResult{
		Code:      code.Value(),
		ExpiresAt: code.ExpiresAt(),
	}

	if !code.HasCampaign() {
		if !uc.allowCampaignless {
			return nil, reward.ErrNoCampaign.WithContext("code", value)
		}
		return result, nil
	}

	campaign, err := uc.campaignRepo.FindWithTiers(nil, code.CampaignID())
	if err != nil {
		return nil, campaignLookupError(err, code)
	}
	if err := campaign.CheckRedeemable(now); err != nil {
		return nil, err
	}

	result.Campaign = summarize(campaign)
	return result, nil
}

func summarize(c *reward.Campaign) *CampaignSummary {
	tiers := c.Tiers()
	summary := &CampaignSummary{
		ID:           c.ID().String(),
		Name:         c.Name(),
		Description:  c.Description(),
		Distribution: string(c.Distribution()),
		StartsAt:     c.StartsAt(),
		EndsAt:       c.EndsAt(),
		Tiers:        make([]TierAvailability, 0, len(tiers)),
	}
	for _, t := range tiers {
		availability := TierAvailability{TierView: newTierView(t)}
		if limit, ok := t.MaxWinners(); ok {
			remaining, _ := t.Remaining()
			availability.MaxWinners = &limit
			availability.Remaining = &remaining
		}
		summary.Tiers = append(summary.Tiers, availability)
	}
	return summary
}
