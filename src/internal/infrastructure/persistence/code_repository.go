package persistence

import (
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// codeInsertBatchSize 批次登錄兌換碼時每次 INSERT 的筆數
const codeInsertBatchSize = 500

// ===========================
// GORM CodeRepository 實作
// ===========================

// GORMCodeRepository 兌換碼倉儲
type GORMCodeRepository struct {
	db *gorm.DB
}

func NewCodeRepository(db *gorm.DB) *GORMCodeRepository {
	return &GORMCodeRepository{db: db}
}

var _ reward.CodeRepository = (*GORMCodeRepository)(nil)

// FindByCode 以兌換碼字串查找（不加鎖）
func (r *GORMCodeRepository) FindByCode(ctx shared.TransactionContext, value string) (*reward.Code, error) {
	return r.find(dbFrom(ctx, r.db), value)
}

// FindByCodeForUpdate SELECT ... FOR UPDATE
//
// SQLite 方言不輸出 FOR UPDATE；單一寫入者的事務本身已序列化。
func (r *GORMCodeRepository) FindByCodeForUpdate(ctx shared.TransactionContext, value string) (*reward.Code, error) {
	db := dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.find(db, value)
}

func (r *GORMCodeRepository) find(db *gorm.DB, value string) (*reward.Code, error) {
	var model CodeModel
	if err := db.Where("code = ?", value).First(&model).Error; err != nil {
		return nil, mapError(err, reward.ErrUnknownCode, "code", value)
	}
	return codeToDomain(&model)
}

// MarkUsed UPDATE codes SET status = 'USED' ... WHERE id = ? AND status = 'UNUSED'
//
// RowsAffected == 0 代表狀態已被其他事務改變。
func (r *GORMCodeRepository) MarkUsed(ctx shared.TransactionContext, id reward.CodeID, user reward.UserID, at time.Time) error {
	result := dbFrom(ctx, r.db).
		Model(&CodeModel{}).
		Where("id = ? AND status = ?", id.String(), string(reward.CodeStatusUnused)).
		Updates(map[string]interface{}{
			"status":     string(reward.CodeStatusUsed),
			"used_by":    user.String(),
			"used_at":    at,
			"updated_at": at,
		})
	if result.Error != nil {
		return mapError(result.Error, nil, "code_id", id.String())
	}
	if result.RowsAffected == 0 {
		return reward.ErrStaleCodeStatus.WithContext("code_id", id.String())
	}
	return nil
}

// SaveBatch 以 CreateInBatches 登錄兌換碼；任何重複會讓整批失敗（呼叫端應在事務中執行）
func (r *GORMCodeRepository) SaveBatch(ctx shared.TransactionContext, codes []*reward.Code) error {
	if len(codes) == 0 {
		return nil
	}
	models := make([]*CodeModel, 0, len(codes))
	for _, c := range codes {
		models = append(models, toCodeModel(c))
	}
	if err := dbFrom(ctx, r.db).CreateInBatches(models, codeInsertBatchSize).Error; err != nil {
		if isUniqueConstraintError(err) {
			return reward.ErrDuplicateCode.WithContext("database_error", err.Error())
		}
		return mapError(err, nil, "batch_size", len(codes))
	}
	return nil
}
