package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TierInput 建立獎項的輸入
type TierInput struct {
	Name        string
	RewardType  string
	RewardValue string // 十進位字串，例如 "150.50"
	RewardName  string
	Weight      float64
	Priority    int
	MaxWinners  *int // nil 代表不限名額
	ImageURL    string
}

// CreateCampaignCommand 建立活動指令
type CreateCampaignCommand struct {
	Name         string
	Description  string
	StartsAt     time.Time
	EndsAt       time.Time
	Active       bool
	Distribution string
	Tiers        []TierInput
}

// CreateCampaignResult 建立活動結果
type CreateCampaignResult struct {
	CampaignID string
	TierIDs    []string // 依遍歷順序
	CreatedAt  time.Time
}

// CreateCampaignUseCase 建立活動與獎項
type CreateCampaignUseCase struct {
	campaignRepo reward.CampaignRepository
	txManager    shared.TransactionManager
	now          func() time.Time
}

// NewCreateCampaignUseCase 創建用例
func NewCreateCampaignUseCase(
	campaignRepo reward.CampaignRepository,
	txManager shared.TransactionManager,
	now func() time.Time,
) *CreateCampaignUseCase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &CreateCampaignUseCase{
		campaignRepo: campaignRepo,
		txManager:    txManager,
		now:          now,
	}
}

// Execute 執行用例
func (uc *CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (*CreateCampaignResult, error) {
	// 1. 解析分配方式與獎項
	distribution, err := reward.ParseDistributionType(cmd.Distribution)
	if err != nil {
		return nil, err
	}
	tiers := make([]reward.TierSpec, 0, len(cmd.Tiers))
	for i, in := range cmd.Tiers {
		spec, err := toTierSpec(in)
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", i, err)
		}
		tiers = append(tiers, spec)
	}

	// 2. 創建聚合（驗證權重、名次區段）
	campaign, err := reward.NewCampaign(reward.CampaignSpec{
		Name:         cmd.Name,
		Description:  cmd.Description,
		StartsAt:     cmd.StartsAt,
		EndsAt:       cmd.EndsAt,
		Active:       cmd.Active,
		Distribution: distribution,
		Tiers:        tiers,
	}, uc.now())
	if err != nil {
		return nil, err
	}

	// 3. 在事務中保存活動與獎項
	err = uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		return uc.campaignRepo.Save(tx, campaign)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	result := &CreateCampaignResult{
		CampaignID: campaign.ID().String(),
		CreatedAt:  campaign.CreatedAt(),
	}
	for _, t := range campaign.Tiers() {
		result.TierIDs = append(result.TierIDs, t.ID().String())
	}
	return result, nil
}

func toTierSpec(in TierInput) (reward.TierSpec, error) {
	rewardType, err := reward.ParseRewardType(in.RewardType)
	if err != nil {
		return reward.TierSpec{}, err
	}
	value, err := decimal.NewFromString(in.RewardValue)
	if err != nil {
		return reward.TierSpec{}, reward.ErrInvalidReward.WithContext("value", in.RewardValue, "parse_error", err.Error())
	}
	prize, err := reward.NewReward(rewardType, value, in.RewardName)
	if err != nil {
		return reward.TierSpec{}, err
	}
	return reward.TierSpec{
		Name:       in.Name,
		Reward:     prize,
		Weight:     in.Weight,
		Priority:   in.Priority,
		MaxWinners: in.MaxWinners,
		ImageURL:   in.ImageURL,
	}, nil
}
