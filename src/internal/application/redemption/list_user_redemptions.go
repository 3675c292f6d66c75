package redemption

import (
	"fmt"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ListUserRedemptionsQuery 用戶兌換紀錄查詢（page 從 1 開始，0 代表預設值）
type ListUserRedemptionsQuery struct {
	UserID string
	Page   int
	Limit  int
}

// ListUserRedemptionsResult 分頁結果
type ListUserRedemptionsResult struct {
	Items      []RedemptionView
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// ListUserRedemptionsUseCase 查詢用戶的兌換紀錄（新到舊）
type ListUserRedemptionsUseCase struct {
	redemptionRepo reward.RedemptionRepository
}

func NewListUserRedemptionsUseCase(redemptionRepo reward.RedemptionRepository) *ListUserRedemptionsUseCase {
	return &ListUserRedemptionsUseCase{redemptionRepo: redemptionRepo}
}

// Execute 執行查詢
func (uc *ListUserRedemptionsUseCase) Execute(query ListUserRedemptionsQuery) (*ListUserRedemptionsResult, error) {
	user, err := reward.NewUserID(query.UserID)
	if err != nil {
		return nil, err
	}
	page, limit, err := normalizePage(query.Page, query.Limit)
	if err != nil {
		return nil, err
	}

	total, err := uc.redemptionRepo.CountByUserID(nil, user)
	if err != nil {
		return nil, fmt.Errorf("failed to count redemptions: %w", err)
	}

	result := &ListUserRedemptionsResult{
		Items:      []RedemptionView{},
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	offset := (page - 1) * limit
	if offset >= total {
		return result, nil
	}

	redemptions, err := uc.redemptionRepo.FindByUserID(nil, user, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	for _, r := range redemptions {
		result.Items = append(result.Items, newRedemptionView(r))
	}
	return result, nil
}

func normalizePage(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if page < 1 || limit < 1 || limit > maxPageLimit {
		return 0, 0, reward.ErrInvalidPagination.WithContext("page", page, "limit", limit)
	}
	return page, limit, nil
}
