package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// ===========================
// GORM Model 定義
// ===========================

// CodeModel 已發行的兌換碼
type CodeModel struct {
	ID          string     `gorm:"type:varchar(36);primaryKey"`
	Code        string     `gorm:"type:varchar(128);uniqueIndex;not null"`
	CampaignID  *string    `gorm:"type:varchar(36);index"`
	Status      string     `gorm:"type:varchar(16);not null;default:UNUSED;index"`
	BatchNumber string     `gorm:"type:varchar(64);index"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	UsedBy      *string    `gorm:"type:varchar(64);index"`
	UsedAt      *time.Time `gorm:"column:used_at"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

func (CodeModel) TableName() string {
	return "codes"
}

// CampaignModel 活動
type CampaignModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Description  string    `gorm:"type:text"`
	StartsAt     time.Time `gorm:"not null"`
	EndsAt       time.Time `gorm:"not null"`
	IsActive     bool      `gorm:"not null;default:true"`
	Distribution string    `gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	Tiers []TierModel `gorm:"foreignKey:CampaignID"`
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// TierModel 獎項；CurrentWinners 是唯一會被兌換流程修改的欄位
type TierModel struct {
	ID             string          `gorm:"type:varchar(36);primaryKey"`
	CampaignID     string          `gorm:"type:varchar(36);not null;index:idx_tiers_campaign_order,priority:1"`
	Name           string          `gorm:"type:varchar(255);not null"`
	RewardType     string          `gorm:"type:varchar(16);not null"`
	RewardValue    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RewardName     string          `gorm:"type:varchar(255);not null"`
	Weight         float64         `gorm:"not null;default:0"`
	Priority       int             `gorm:"not null;default:0;index:idx_tiers_campaign_order,priority:2"`
	Position       int             `gorm:"not null;default:0"`
	MaxWinners     *int            `gorm:"column:max_winners"`
	CurrentWinners int             `gorm:"not null;default:0;check:chk_tiers_current_winners,current_winners >= 0"`
	ImageURL       string          `gorm:"type:varchar(512)"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

func (TierModel) TableName() string {
	return "tiers"
}

// RedemptionModel 兌換紀錄（只新增）
//
// code_id 唯一：一個兌換碼最多一筆紀錄。
// (campaign_id, assigned_rank) 唯一：同一活動的名次不重複；NULL 名次不受限制。
type RedemptionModel struct {
	ID           string          `gorm:"type:varchar(36);primaryKey"`
	CodeID       string          `gorm:"type:varchar(36);uniqueIndex;not null"`
	Code         string          `gorm:"type:varchar(128);not null"`
	CampaignID   *string         `gorm:"type:varchar(36);uniqueIndex:idx_redemptions_campaign_rank,priority:1"`
	TierID       *string         `gorm:"type:varchar(36);index"`
	TierName     string          `gorm:"type:varchar(255)"`
	UserID       string          `gorm:"type:varchar(64);not null;index:idx_redemptions_user_time,priority:1"`
	PrizeType    string          `gorm:"type:varchar(16)"`
	PrizeValue   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PrizeName    string          `gorm:"type:varchar(255)"`
	ImageURL     string          `gorm:"type:varchar(512)"`
	AssignedRank *int            `gorm:"uniqueIndex:idx_redemptions_campaign_rank,priority:2"`
	Status       string          `gorm:"type:varchar(32);not null"`
	RedeemedAt   time.Time       `gorm:"not null;index:idx_redemptions_user_time,priority:2"`
}

func (RedemptionModel) TableName() string {
	return "redemptions"
}

// allModels AutoMigrate 的順序（外鍵依賴在前）
func allModels() []interface{} {
	return []interface{}{
		&CampaignModel{},
		&TierModel{},
		&CodeModel{},
		&RedemptionModel{},
	}
}
