package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"gorm.io/gorm"
)

// 錯誤判斷使用字串比對，涵蓋 SQLite 與 PostgreSQL（pgx）的英文錯誤訊息。

var uniqueViolationMarkers = []string{
	"UNIQUE constraint",
	"duplicate key",
	"Duplicate entry",
	"SQLSTATE 23505",
}

var contentionMarkers = []string{
	"lock timeout",
	"could not obtain lock",
	"deadlock detected",
	"could not serialize",
	"database is locked",
	"database table is locked",
	"SQLITE_BUSY",
	"SQLSTATE 55P03", // lock_not_available
	"SQLSTATE 40P01", // deadlock_detected
	"SQLSTATE 40001", // serialization_failure
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return containsAny(err.Error(), uniqueViolationMarkers)
}

// isContentionError 取得鎖逾時、死結、序列化失敗或 context 逾時
func isContentionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return containsAny(err.Error(), contentionMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// mapError 把 GORM 錯誤轉為領域錯誤
//
// notFound 為 nil 時，ErrRecordNotFound 也視為基礎設施錯誤。
func mapError(err error, notFound *reward.DomainError, keyValues ...interface{}) error {
	if err == nil {
		return nil
	}
	if _, ok := reward.AsDomainError(err); ok {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound.WithContext(keyValues...)
	}
	if isContentionError(err) {
		return reward.ErrConflict.WithContext(append(keyValues, "database_error", err.Error())...)
	}
	return reward.ErrRepositoryFailure.WithContext(append(keyValues, "database_error", err.Error())...)
}
