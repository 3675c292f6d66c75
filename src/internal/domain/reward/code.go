package reward

import (
	"strings"
	"time"
)

// maxCodeLength 與資料表欄位長度一致
const maxCodeLength = 128

// NormalizeCode 掃描輸入的兌換碼只去除前後空白，大小寫視為有效內容
func NormalizeCode(value string) string {
	return strings.TrimSpace(value)
}

// ===========================
// Code - 兌換碼
// ===========================

// Code 已發行的兌換碼
//
// 兌換碼由外部系統產生並印製，本系統只負責登錄與兌換。
// 生命週期只有一次轉換：UNUSED → USED；轉換在兌換事務中以條件更新完成，
// 這裡的狀態是讀取當下的快照。
type Code struct {
	id          CodeID
	value       string
	campaignID  CampaignID // 零值代表未綁定活動
	status      CodeStatus
	batchNumber string
	expiresAt   *time.Time
	usedBy      UserID
	usedAt      *time.Time
	createdAt   time.Time
}

// NewCode 登錄一個新發行的兌換碼（狀態 UNUSED）
func NewCode(value string, campaignID CampaignID, batchNumber string, expiresAt *time.Time, now time.Time) (*Code, error) {
	v := NormalizeCode(value)
	if v == "" || len(v) > maxCodeLength {
		return nil, ErrInvalidCodeValue.WithContext("input", value)
	}
	return &Code{
		id:          NewCodeID(),
		value:       v,
		campaignID:  campaignID,
		status:      CodeStatusUnused,
		batchNumber: strings.TrimSpace(batchNumber),
		expiresAt:   copyTime(expiresAt),
		createdAt:   now,
	}, nil
}

// ReconstructCode 從持久化資料重建兌換碼
//
// 驗證：狀態可辨識；USED 必須有使用者與使用時間
func ReconstructCode(
	id CodeID,
	value string,
	campaignID CampaignID,
	status CodeStatus,
	batchNumber string,
	expiresAt *time.Time,
	usedBy UserID,
	usedAt *time.Time,
	createdAt time.Time,
) (*Code, error) {
	if id.IsEmpty() || value == "" {
		return nil, ErrInvariantViolation.WithContext("entity", "code", "code_id", id.String())
	}
	if !status.IsValid() {
		return nil, ErrInvariantViolation.WithContext("code_id", id.String(), "status", string(status))
	}
	if status == CodeStatusUsed && (usedBy.IsEmpty() || usedAt == nil) {
		return nil, ErrInvariantViolation.WithContext(
			"code_id", id.String(),
			"reason", "used code without used_by/used_at",
		)
	}
	return &Code{
		id:          id,
		value:       value,
		campaignID:  campaignID,
		status:      status,
		batchNumber: batchNumber,
		expiresAt:   copyTime(expiresAt),
		usedBy:      usedBy,
		usedAt:      copyTime(usedAt),
		createdAt:   createdAt,
	}, nil
}

// ===========================
// 業務方法
// ===========================

// CheckRedeemable 檢查兌換碼在 now 時是否可兌換
//
// 檢查順序：已使用優先於已過期，讓重複掃描得到一致的 COUPON_USED。
func (c *Code) CheckRedeemable(now time.Time) error {
	switch c.status {
	case CodeStatusUsed:
		return ErrCouponUsed.WithContext("code", c.value)
	case CodeStatusExpired:
		return ErrCouponExpired.WithContext("code", c.value)
	}
	if c.IsExpiredAt(now) {
		return ErrCouponExpired.WithContext("code", c.value, "expires_at", *c.expiresAt)
	}
	return nil
}

// IsExpiredAt 是否已超過到期時間（沒有到期時間則永不過期）
func (c *Code) IsExpiredAt(now time.Time) bool {
	return c.expiresAt != nil && now.After(*c.expiresAt)
}

// MarkUsed 在記憶體中套用 UNUSED → USED
//
// 持久化的轉換由 CodeRepository.MarkUsed 的條件更新完成；
// 這個方法讓聚合與資料庫狀態保持一致，並拒絕重複轉換。
func (c *Code) MarkUsed(user UserID, at time.Time) error {
	if user.IsEmpty() {
		return ErrInvalidUserID.WithContext("reason", "empty user id")
	}
	if c.status != CodeStatusUnused {
		return ErrCouponUsed.WithContext("code", c.value, "status", string(c.status))
	}
	c.status = CodeStatusUsed
	c.usedBy = user
	c.usedAt = &at
	return nil
}

// HasCampaign 是否綁定活動
func (c *Code) HasCampaign() bool {
	return !c.campaignID.IsEmpty()
}

func (c *Code) ID() CodeID {
	return c.id
}

func (c *Code) Value() string {
	return c.value
}

func (c *Code) CampaignID() CampaignID {
	return c.campaignID
}

func (c *Code) Status() CodeStatus {
	return c.status
}

func (c *Code) BatchNumber() string {
	return c.batchNumber
}

func (c *Code) ExpiresAt() *time.Time {
	return copyTime(c.expiresAt)
}

func (c *Code) UsedBy() UserID {
	return c.usedBy
}

func (c *Code) UsedAt() *time.Time {
	return copyTime(c.usedAt)
}

func (c *Code) CreatedAt() time.Time {
	return c.createdAt
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
