package reward

import (
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
)

// ===========================
// Repository 介面
// ===========================
//
// 所有方法的 ctx 遵循 shared.TransactionContext 約定：
// 寫入與鎖定讀取必須傳入事務；ctx == nil 只用於事務外的預檢查讀取。

// CodeRepository 兌換碼倉儲
type CodeRepository interface {
	// FindByCode 以兌換碼字串查找
	// 錯誤：ErrUnknownCode
	FindByCode(ctx shared.TransactionContext, value string) (*Code, error)

	// FindByCodeForUpdate 以兌換碼字串查找並鎖定該列，直到事務結束
	// 前置條件：ctx != nil
	// 錯誤：ErrUnknownCode，取得鎖逾時返回 ErrConflict
	FindByCodeForUpdate(ctx shared.TransactionContext, value string) (*Code, error)

	// MarkUsed 條件更新：只有狀態仍為 UNUSED 時才改為 USED
	// 前置條件：ctx != nil
	// 錯誤：ErrStaleCodeStatus（沒有任何列被更新）
	MarkUsed(ctx shared.TransactionContext, id CodeID, user UserID, at time.Time) error

	// SaveBatch 批次登錄已發行的兌換碼
	// 錯誤：ErrDuplicateCode（兌換碼字串重複）
	SaveBatch(ctx shared.TransactionContext, codes []*Code) error
}

// CampaignRepository 活動與獎項倉儲
type CampaignRepository interface {
	// Save 保存新活動與其所有獎項
	// 前置條件：ctx != nil
	Save(ctx shared.TransactionContext, campaign *Campaign) error

	// FindWithTiers 查找活動與依 priority 排序的獎項
	// 錯誤：ErrCampaignNotFound
	FindWithTiers(ctx shared.TransactionContext, id CampaignID) (*Campaign, error)

	// FindWithTiersForUpdate 鎖定活動列後讀取獎項
	//
	// 同一活動的兌換事務在這裡序列化，名次計數與獎項計數因此讀到一致的快照。
	// 前置條件：ctx != nil
	// 錯誤：ErrCampaignNotFound，取得鎖逾時返回 ErrConflict
	FindWithTiersForUpdate(ctx shared.TransactionContext, id CampaignID) (*Campaign, error)

	// IncrementTierWinners 原子遞增獎項計數並返回遞增後的值
	//
	// 不檢查上限；呼叫端以 Tier.CheckWinnerCount 檢查並在超額時中止事務。
	// 前置條件：ctx != nil
	// 錯誤：ErrTierNotFound
	IncrementTierWinners(ctx shared.TransactionContext, id TierID) (int, error)
}

// RedemptionRepository 兌換紀錄倉儲（只新增，不修改）
type RedemptionRepository interface {
	// Save 新增兌換紀錄
	// 前置條件：ctx != nil
	// 錯誤：同一兌換碼或同一名次已存在時返回 ErrConflict
	Save(ctx shared.TransactionContext, redemption *Redemption) error

	// CountForCampaign 活動已提交的兌換數（依序排名在同一事務中讀取）
	CountForCampaign(ctx shared.TransactionContext, id CampaignID) (int, error)

	// FindByUserID 用戶的兌換紀錄，新到舊
	FindByUserID(ctx shared.TransactionContext, user UserID, offset, limit int) ([]*Redemption, error)

	// CountByUserID 用戶的兌換紀錄總數
	CountByUserID(ctx shared.TransactionContext, user UserID) (int, error)
}
