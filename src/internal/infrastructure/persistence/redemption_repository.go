package persistence

import (
	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM RedemptionRepository 實作
// ===========================

// GORMRedemptionRepository 兌換紀錄倉儲（只新增）
type GORMRedemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *GORMRedemptionRepository {
	return &GORMRedemptionRepository{db: db}
}

var _ reward.RedemptionRepository = (*GORMRedemptionRepository)(nil)

// Save 新增兌換紀錄
//
// 唯一索引（code_id、campaign_id + assigned_rank）衝突代表並發事務搶先提交，返回可重試的 ErrConflict。
func (r *GORMRedemptionRepository) Save(ctx shared.TransactionContext, redemption *reward.Redemption) error {
	model := toRedemptionModel(redemption)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueConstraintError(err) {
			return reward.ErrConflict.WithContext(
				"redemption_id", model.ID,
				"code_id", model.CodeID,
				"database_error", err.Error(),
			)
		}
		return mapError(err, nil, "redemption_id", model.ID)
	}
	return nil
}

// CountForCampaign SELECT COUNT(*) FROM redemptions WHERE campaign_id = ?
func (r *GORMRedemptionRepository) CountForCampaign(ctx shared.TransactionContext, id reward.CampaignID) (int, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&RedemptionModel{}).
		Where("campaign_id = ?", id.String()).
		Count(&count).Error; err != nil {
		return 0, mapError(err, nil, "campaign_id", id.String())
	}
	return int(count), nil
}

// FindByUserID 新到舊；同一時間以 ID 排序確保分頁穩定
func (r *GORMRedemptionRepository) FindByUserID(ctx shared.TransactionContext, user reward.UserID, offset, limit int) ([]*reward.Redemption, error) {
	var models []RedemptionModel
	if err := dbFrom(ctx, r.db).
		Where("user_id = ?", user.String()).
		Order("redeemed_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, mapError(err, nil, "user_id", user.String())
	}

	out := make([]*reward.Redemption, 0, len(models))
	for i := range models {
		redemption, err := redemptionToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, redemption)
	}
	return out, nil
}

func (r *GORMRedemptionRepository) CountByUserID(ctx shared.TransactionContext, user reward.UserID) (int, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&RedemptionModel{}).
		Where("user_id = ?", user.String()).
		Count(&count).Error; err != nil {
		return 0, mapError(err, nil, "user_id", user.String())
	}
	return int(count), nil
}
