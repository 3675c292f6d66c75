package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
)

// MaxCodesPerIssue 單次登錄的兌換碼上限
const MaxCodesPerIssue = 10000

// IssueCodesCommand 登錄已發行的兌換碼（本系統不產生兌換碼）
type IssueCodesCommand struct {
	CampaignID  string // 空字串代表未綁定活動
	Codes       []string
	BatchNumber string
	ExpiresAt   *time.Time
}

// IssueCodesResult 登錄結果
type IssueCodesResult struct {
	Issued      int
	BatchNumber string
}

// IssueCodesUseCase 批次登錄兌換碼
type IssueCodesUseCase struct {
	codeRepo     reward.CodeRepository
	campaignRepo reward.CampaignRepository
	txManager    shared.TransactionManager
	now          func() time.Time
}

// NewIssueCodesUseCase 創建用例
func NewIssueCodesUseCase(
	codeRepo reward.CodeRepository,
	campaignRepo reward.CampaignRepository,
	txManager shared.TransactionManager,
	now func() time.Time,
) *IssueCodesUseCase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &IssueCodesUseCase{
		codeRepo:     codeRepo,
		campaignRepo: campaignRepo,
		txManager:    txManager,
		now:          now,
	}
}

// Execute 執行用例
//
// 任一兌換碼無效或重複時整批不登錄。
func (uc *IssueCodesUseCase) Execute(ctx context.Context, cmd IssueCodesCommand) (*IssueCodesResult, error) {
	if len(cmd.Codes) == 0 || len(cmd.Codes) > MaxCodesPerIssue {
		return nil, reward.ErrInvalidCodeValue.WithContext(
			"reason", "code count out of range",
			"count", len(cmd.Codes),
			"max", MaxCodesPerIssue,
		)
	}

	// 1. 確認活動存在
	var campaignID reward.CampaignID
	if id := strings.TrimSpace(cmd.CampaignID); id != "" {
		parsed, err := reward.CampaignIDFromString(id)
		if err != nil {
			return nil, err
		}
		if _, err := uc.campaignRepo.FindWithTiers(nil, parsed); err != nil {
			return nil, err
		}
		campaignID = parsed
	}

	// 2. 建立兌換碼，輸入內重複直接拒絕
	now := uc.now()
	seen := make(map[string]struct{}, len(cmd.Codes))
	codes := make([]*reward.Code, 0, len(cmd.Codes))
	for _, value := range cmd.Codes {
		code, err := reward.NewCode(value, campaignID, cmd.BatchNumber, cmd.ExpiresAt, now)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code.Value()]; dup {
			return nil, reward.ErrDuplicateCode.WithContext("code", code.Value(), "reason", "duplicated in request")
		}
		seen[code.Value()] = struct{}{}
		codes = append(codes, code)
	}

	// 3. 在事務中批次保存
	err := uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		return uc.codeRepo.SaveBatch(tx, codes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue codes: %w", err)
	}

	return &IssueCodesResult{
		Issued:      len(codes),
		BatchNumber: strings.TrimSpace(cmd.BatchNumber),
	}, nil
}
