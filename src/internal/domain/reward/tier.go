package reward

import (
	"math"
	"sort"
	"strings"
)

// ===========================
// Tier - 獎項
// ===========================

// Tier 活動中的一個獎項等級
//
// 不變性：
//   - currentWinners >= 0，且只會遞增
//   - 有上限時 currentWinners <= maxWinners
//   - weight 在 [0, 1]（隨機抽獎活動使用）
//
// currentWinners 是資料庫中的持久計數，只能由兌換事務內的 IncrementTierWinners 修改；
// 這裡的值是讀取當下的快照，用於判斷資格。
type Tier struct {
	id             TierID
	campaignID     CampaignID
	name           string
	reward         Reward
	weight         float64
	priority       int
	maxWinners     *int
	currentWinners int
	imageURL       string
	position       int // 建立順序，權重遍歷時 priority 相同則依此排序
}

// TierSpec 建立獎項的輸入
type TierSpec struct {
	Name       string
	Reward     Reward
	Weight     float64
	Priority   int
	MaxWinners *int // nil 代表不限名額
	ImageURL   string
}

func newTier(campaignID CampaignID, spec TierSpec, position int) (*Tier, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, ErrInvalidTier.WithContext("position", position, "reason", "name is required")
	}
	if spec.Reward.IsZero() {
		return nil, ErrInvalidTier.WithContext("tier", name, "reason", "reward is required")
	}
	if math.IsNaN(spec.Weight) || spec.Weight < 0 || spec.Weight > 1 {
		return nil, ErrInvalidTier.WithContext("tier", name, "weight", spec.Weight)
	}
	if spec.Priority < 0 {
		return nil, ErrInvalidTier.WithContext("tier", name, "priority", spec.Priority)
	}
	var limit *int
	if spec.MaxWinners != nil {
		if *spec.MaxWinners < 1 {
			return nil, ErrInvalidTier.WithContext("tier", name, "max_winners", *spec.MaxWinners)
		}
		v := *spec.MaxWinners
		limit = &v
	}

	return &Tier{
		id:         NewTierID(),
		campaignID: campaignID,
		name:       name,
		reward:     spec.Reward,
		weight:     spec.Weight,
		priority:   spec.Priority,
		maxWinners: limit,
		imageURL:   strings.TrimSpace(spec.ImageURL),
		position:   position,
	}, nil
}

// ReconstructTier 從持久化資料重建獎項
//
// 只檢查會讓分配演算法失效的不變性；weight 的範圍不在這裡強制，
// 異常權重在抽獎時視為 0。
func ReconstructTier(
	id TierID,
	campaignID CampaignID,
	name string,
	reward Reward,
	weight float64,
	priority int,
	maxWinners *int,
	currentWinners int,
	imageURL string,
	position int,
) (*Tier, error) {
	if id.IsEmpty() {
		return nil, ErrInvariantViolation.WithContext("entity", "tier", "reason", "empty id")
	}
	if currentWinners < 0 {
		return nil, ErrInvariantViolation.WithContext(
			"tier_id", id.String(),
			"current_winners", currentWinners,
		)
	}
	var limit *int
	if maxWinners != nil {
		v := *maxWinners
		limit = &v
	}
	return &Tier{
		id:             id,
		campaignID:     campaignID,
		name:           name,
		reward:         reward,
		weight:         weight,
		priority:       priority,
		maxWinners:     limit,
		currentWinners: currentWinners,
		imageURL:       imageURL,
		position:       position,
	}, nil
}

// ===========================
// 查詢方法
// ===========================

func (t *Tier) ID() TierID {
	return t.id
}

func (t *Tier) CampaignID() CampaignID {
	return t.campaignID
}

func (t *Tier) Name() string {
	return t.name
}

func (t *Tier) Reward() Reward {
	return t.reward
}

func (t *Tier) Weight() float64 {
	return t.weight
}

func (t *Tier) Priority() int {
	return t.priority
}

// MaxWinners 名額上限；ok == false 代表不限名額
func (t *Tier) MaxWinners() (limit int, ok bool) {
	if t.maxWinners == nil {
		return 0, false
	}
	return *t.maxWinners, true
}

func (t *Tier) IsUnbounded() bool {
	return t.maxWinners == nil
}

func (t *Tier) CurrentWinners() int {
	return t.currentWinners
}

func (t *Tier) ImageURL() string {
	return t.imageURL
}

func (t *Tier) Position() int {
	return t.position
}

// HasCapacity 是否還有名額：不限名額，或 currentWinners < maxWinners
func (t *Tier) HasCapacity() bool {
	return t.maxWinners == nil || t.currentWinners < *t.maxWinners
}

// Remaining 剩餘名額；ok == false 代表不限名額
func (t *Tier) Remaining() (remaining int, ok bool) {
	if t.maxWinners == nil {
		return 0, false
	}
	if left := *t.maxWinners - t.currentWinners; left > 0 {
		return left, true
	}
	return 0, true
}

// CheckWinnerCount 檢查遞增後的計數是否仍在上限內
//
// 計數遞增之後才檢查：兩個並發事務讀到相同快照時，
// 後提交者在這裡看到超額並中止，整個事務回滾。
func (t *Tier) CheckWinnerCount(newCount int) error {
	if t.maxWinners != nil && newCount > *t.maxWinners {
		return ErrTierLimitReached.WithContext(
			"tier_id", t.id.String(),
			"max_winners", *t.maxWinners,
			"new_count", newCount,
		)
	}
	return nil
}

// ===========================
// 排序
// ===========================

// SortTiers 依分配遍歷順序排序（就地）：priority 升序，再依建立順序
func SortTiers(tiers []*Tier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].priority != tiers[j].priority {
			return tiers[i].priority < tiers[j].priority
		}
		return tiers[i].position < tiers[j].position
	})
}
