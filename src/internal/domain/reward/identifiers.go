package reward

import (
	"strings"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
)

// ===========================
// 實體 ID 類型定義
// ===========================

// CampaignMarker CampaignID 的標記類型
type CampaignMarker struct{}

// CampaignID 活動 ID；零值代表兌換碼未綁定活動
type CampaignID = shared.EntityID[CampaignMarker]

func NewCampaignID() CampaignID {
	return shared.NewEntityID[CampaignMarker]()
}

func CampaignIDFromString(s string) (CampaignID, error) {
	return shared.EntityIDFromString[CampaignMarker](s, ErrInvalidCampaignID)
}

// TierMarker TierID 的標記類型
type TierMarker struct{}

// TierID 獎項 ID
type TierID = shared.EntityID[TierMarker]

func NewTierID() TierID {
	return shared.NewEntityID[TierMarker]()
}

func TierIDFromString(s string) (TierID, error) {
	return shared.EntityIDFromString[TierMarker](s, ErrInvalidTierID)
}

// CodeMarker CodeID 的標記類型
type CodeMarker struct{}

// CodeID 兌換碼的內部 ID（與使用者掃描的兌換碼字串不同）
type CodeID = shared.EntityID[CodeMarker]

func NewCodeID() CodeID {
	return shared.NewEntityID[CodeMarker]()
}

func CodeIDFromString(s string) (CodeID, error) {
	return shared.EntityIDFromString[CodeMarker](s, ErrInvalidCodeID)
}

// RedemptionMarker RedemptionID 的標記類型
type RedemptionMarker struct{}

// RedemptionID 兌換紀錄 ID
type RedemptionID = shared.EntityID[RedemptionMarker]

func NewRedemptionID() RedemptionID {
	return shared.NewEntityID[RedemptionMarker]()
}

func RedemptionIDFromString(s string) (RedemptionID, error) {
	return shared.EntityIDFromString[RedemptionMarker](s, ErrInvalidRedemptionID)
}

// ===========================
// UserID - 外部身分
// ===========================

// maxUserIDLength 與資料表欄位長度一致
const maxUserIDLength = 64

// UserID 兌換者的身分識別
//
// 由上游身分驗證提供（例如 LINE user ID），不一定是 UUID，因此不使用 EntityID。
type UserID struct {
	value string
}

// NewUserID 建構 UserID（去除前後空白，不可為空，長度上限 64）
func NewUserID(s string) (UserID, error) {
	v := strings.TrimSpace(s)
	if v == "" || len(v) > maxUserIDLength {
		return UserID{}, ErrInvalidUserID.WithContext("input", s)
	}
	return UserID{value: v}, nil
}

func (u UserID) String() string {
	return u.value
}

func (u UserID) IsEmpty() bool {
	return u.value == ""
}

func (u UserID) Equals(other UserID) bool {
	return u.value == other.value
}
