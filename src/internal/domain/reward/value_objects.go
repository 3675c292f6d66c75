package reward

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ===========================
// DistributionType - 分配方式
// ===========================

// DistributionType 活動的獎項分配方式
type DistributionType string

const (
	// DistributionWeightedRandom 依權重隨機抽獎
	DistributionWeightedRandom DistributionType = "RANDOM"
	// DistributionSequentialRank 依兌換順序排名，名次區段對應獎項
	DistributionSequentialRank DistributionType = "SEQUENTIAL"
)

// ParseDistributionType 解析分配方式（不分大小寫）
func ParseDistributionType(s string) (DistributionType, error) {
	switch DistributionType(strings.ToUpper(strings.TrimSpace(s))) {
	case DistributionWeightedRandom:
		return DistributionWeightedRandom, nil
	case DistributionSequentialRank:
		return DistributionSequentialRank, nil
	default:
		return "", ErrInvalidDistribution.WithContext("input", s)
	}
}

func (d DistributionType) String() string {
	return string(d)
}

// ===========================
// CodeStatus - 兌換碼狀態
// ===========================

// CodeStatus 兌換碼狀態
//
// 狀態轉換只有一條：UNUSED → USED，且在整個生命週期中只發生一次。
// EXPIRED 由發碼端標記，本系統不會把任何兌換碼轉成 EXPIRED。
type CodeStatus string

const (
	CodeStatusUnused  CodeStatus = "UNUSED"
	CodeStatusUsed    CodeStatus = "USED"
	CodeStatusExpired CodeStatus = "EXPIRED"
)

func (s CodeStatus) IsValid() bool {
	switch s {
	case CodeStatusUnused, CodeStatusUsed, CodeStatusExpired:
		return true
	}
	return false
}

// ===========================
// RewardType / Reward - 獎品
// ===========================

// RewardType 獎品類型
type RewardType string

const (
	RewardTypeGift     RewardType = "GIFT"
	RewardTypeDiscount RewardType = "DISCOUNT"
	RewardTypeCashback RewardType = "CASHBACK"
)

// ParseRewardType 解析獎品類型（不分大小寫）
func ParseRewardType(s string) (RewardType, error) {
	t := RewardType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidReward.WithContext("reward_type", s)
	}
	return t, nil
}

func (t RewardType) IsValid() bool {
	switch t {
	case RewardTypeGift, RewardTypeDiscount, RewardTypeCashback:
		return true
	}
	return false
}

// Reward 獎品值對象
//
// 兌換時整個 Reward 會被快照到兌換紀錄，之後修改獎項不影響已兌換的紀錄。
type Reward struct {
	rewardType RewardType
	value      decimal.Decimal
	name       string
}

// NewReward 建構獎品
//
// 約束：類型必須有效、金額 >= 0、名稱不可為空
func NewReward(rewardType RewardType, value decimal.Decimal, name string) (Reward, error) {
	if !rewardType.IsValid() {
		return Reward{}, ErrInvalidReward.WithContext("reward_type", string(rewardType))
	}
	if value.IsNegative() {
		return Reward{}, ErrInvalidReward.WithContext("value", value.String())
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Reward{}, ErrInvalidReward.WithContext("name", "empty")
	}
	return Reward{rewardType: rewardType, value: value, name: name}, nil
}

func (r Reward) Type() RewardType {
	return r.rewardType
}

func (r Reward) Value() decimal.Decimal {
	return r.value
}

func (r Reward) Name() string {
	return r.name
}

// IsZero 零值獎品（未綁定活動的兌換紀錄）
func (r Reward) IsZero() bool {
	return r.rewardType == "" && r.name == "" && r.value.IsZero()
}

// ===========================
// RedemptionStatus - 兌換紀錄狀態
// ===========================

// RedemptionStatus 兌換紀錄狀態
//
// 新建立的紀錄一律是 PENDING_VERIFICATION；後續由人工核銷流程改為 CLAIMED（不在本引擎範圍）。
type RedemptionStatus string

const (
	RedemptionStatusPendingVerification RedemptionStatus = "PENDING_VERIFICATION"
	RedemptionStatusClaimed             RedemptionStatus = "CLAIMED"
)

func (s RedemptionStatus) IsValid() bool {
	return s == RedemptionStatusPendingVerification || s == RedemptionStatusClaimed
}

// ===========================
// Rank - 兌換名次
// ===========================

// Rank 依序排名活動中的兌換名次（從 1 開始）；0 代表沒有名次
type Rank int

// NoRank 隨機抽獎活動或未綁定活動的兌換沒有名次
const NoRank Rank = 0

func (r Rank) IsAssigned() bool {
	return r > 0
}

// Ordinal 英文序數：1st、2nd、3rd、4th、11th、12th、13th、21st ...
func (r Rank) Ordinal() string {
	n := int(r)
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// Display 顯示用文字，例如 "1st Winner"；沒有名次返回空字串
func (r Rank) Display() string {
	if !r.IsAssigned() {
		return ""
	}
	return r.Ordinal() + " Winner"
}
