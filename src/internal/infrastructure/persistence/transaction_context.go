package persistence

import (
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionContext 實作
// ===========================

// gormTransactionContext 封裝事務中的 *gorm.DB，讓 Domain Layer 看不到 GORM
type gormTransactionContext struct {
	db *gorm.DB
}

// txContext repositories 用來取出事務 DB 的介面
type txContext interface {
	shared.TransactionContext
	GetDB() *gorm.DB
}

// NewGORMTransactionContext 以既有的 *gorm.DB 建立事務上下文
func NewGORMTransactionContext(db *gorm.DB) shared.TransactionContext {
	return &gormTransactionContext{db: db}
}

// GetDB 僅供 Infrastructure Layer 使用
func (ctx *gormTransactionContext) GetDB() *gorm.DB {
	return ctx.db
}

// dbFrom 從 TransactionContext 取出事務 DB；nil 或其他實作時使用 fallback（auto-commit）
func dbFrom(ctx shared.TransactionContext, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.(txContext); ok && tx != nil {
		return tx.GetDB()
	}
	return fallback
}
