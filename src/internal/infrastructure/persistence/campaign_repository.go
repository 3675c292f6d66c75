package persistence

import (
	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================
// GORM CampaignRepository 實作
// ===========================

// GORMCampaignRepository 活動與獎項倉儲
type GORMCampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *GORMCampaignRepository {
	return &GORMCampaignRepository{db: db}
}

var _ reward.CampaignRepository = (*GORMCampaignRepository)(nil)

// Save 新增活動列與所有獎項列
func (r *GORMCampaignRepository) Save(ctx shared.TransactionContext, campaign *reward.Campaign) error {
	db := dbFrom(ctx, r.db)
	model := toCampaignModel(campaign)
	tiers := model.Tiers
	model.Tiers = nil

	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return mapError(err, nil, "campaign_id", model.ID)
	}
	if len(tiers) > 0 {
		if err := db.Create(&tiers).Error; err != nil {
			return mapError(err, nil, "campaign_id", model.ID)
		}
	}
	return nil
}

// FindWithTiers 讀取活動與獎項（不加鎖）
func (r *GORMCampaignRepository) FindWithTiers(ctx shared.TransactionContext, id reward.CampaignID) (*reward.Campaign, error) {
	return r.load(dbFrom(ctx, r.db), dbFrom(ctx, r.db), id)
}

// FindWithTiersForUpdate 以 FOR UPDATE 鎖定活動列，再讀取獎項
func (r *GORMCampaignRepository) FindWithTiersForUpdate(ctx shared.TransactionContext, id reward.CampaignID) (*reward.Campaign, error) {
	db := dbFrom(ctx, r.db)
	return r.load(db.Clauses(clause.Locking{Strength: "UPDATE"}), db, id)
}

func (r *GORMCampaignRepository) load(campaignDB, tierDB *gorm.DB, id reward.CampaignID) (*reward.Campaign, error) {
	var model CampaignModel
	if err := campaignDB.Where("id = ?", id.String()).First(&model).Error; err != nil {
		return nil, mapError(err, reward.ErrCampaignNotFound, "campaign_id", id.String())
	}

	var tiers []TierModel
	if err := tierDB.
		Where("campaign_id = ?", id.String()).
		Order("priority ASC, position ASC").
		Find(&tiers).Error; err != nil {
		return nil, mapError(err, nil, "campaign_id", id.String())
	}
	return campaignToDomain(&model, tiers)
}

// IncrementTierWinners UPDATE tiers SET current_winners = current_winners + 1，再讀回新值
//
// 兩個語句在同一事務中；PostgreSQL 的 UPDATE 取得列鎖，讀回的值就是本事務遞增後的值。
func (r *GORMCampaignRepository) IncrementTierWinners(ctx shared.TransactionContext, id reward.TierID) (int, error) {
	db := dbFrom(ctx, r.db)

	result := db.Model(&TierModel{}).
		Where("id = ?", id.String()).
		UpdateColumn("current_winners", gorm.Expr("current_winners + ?", 1))
	if result.Error != nil {
		return 0, mapError(result.Error, nil, "tier_id", id.String())
	}
	if result.RowsAffected == 0 {
		return 0, reward.ErrTierNotFound.WithContext("tier_id", id.String())
	}

	var model TierModel
	if err := db.Select("current_winners").Where("id = ?", id.String()).First(&model).Error; err != nil {
		return 0, mapError(err, reward.ErrTierNotFound, "tier_id", id.String())
	}
	return model.CurrentWinners, nil
}
