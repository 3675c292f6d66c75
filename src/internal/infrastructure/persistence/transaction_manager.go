package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionManager
// ===========================

// GORMTransactionManager 以 gorm.DB.Transaction 實作 shared.TransactionManager
//
// 每個工作單元受 lockTimeout 限制：
//   - 所有驅動：context.WithTimeout 包住整個事務（含等待連線與列鎖）
//   - PostgreSQL：額外設定 SET LOCAL lock_timeout，讓等待 FOR UPDATE 的語句直接失敗
//
// 逾時、死結、序列化失敗與 SQLite busy 一律轉換為 reward.ErrConflict（可重試）。
type GORMTransactionManager struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGORMTransactionManager lockTimeout <= 0 代表不設期限
func NewGORMTransactionManager(db *gorm.DB, lockTimeout time.Duration) *GORMTransactionManager {
	return &GORMTransactionManager{db: db, lockTimeout: lockTimeout}
}

// InTransaction fn 返回 nil 則提交；返回錯誤或 panic 則回滾（panic 會繼續往上拋）
func (m *GORMTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.lockTimeout)
		defer cancel()
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.lockTimeout > 0 && m.db.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(NewGORMTransactionContext(tx))
	})
	if err == nil {
		return nil
	}
	return translateTxError(ctx, err)
}

// translateTxError 領域錯誤原樣返回；鎖競爭轉為 ErrConflict；其他錯誤包裝為基礎設施錯誤
func translateTxError(ctx context.Context, err error) error {
	if _, ok := reward.AsDomainError(err); ok {
		return err
	}
	if isContentionError(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return reward.ErrConflict.WithContext("cause", err.Error())
	}
	return fmt.Errorf("transaction failed: %w", err)
}
