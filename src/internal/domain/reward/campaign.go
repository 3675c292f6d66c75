package reward

import (
	"strings"
	"time"
)

// weightTolerance 權重總和的浮點誤差容許值
const weightTolerance = 1e-9

// ===========================
// Campaign - 活動聚合根
// ===========================

// Campaign 活動聚合根，包含依分配順序排列的獎項
//
// 不變性（建立時檢查）：
//   - endsAt 晚於 startsAt
//   - 至少一個獎項
//   - 隨機抽獎：每個權重在 [0, 1]，總和 <= 1
//   - 依序排名：priority 不重複，不限名額的獎項只能是最後一個
//
// 兌換流程只讀取 Campaign；獎項計數的遞增走 CampaignRepository.IncrementTierWinners。
type Campaign struct {
	id           CampaignID
	name         string
	description  string
	startsAt     time.Time
	endsAt       time.Time
	active       bool
	distribution DistributionType
	tiers        []*Tier
	createdAt    time.Time
	updatedAt    time.Time
}

// CampaignSpec 建立活動的輸入
type CampaignSpec struct {
	Name         string
	Description  string
	StartsAt     time.Time
	EndsAt       time.Time
	Active       bool
	Distribution DistributionType
	Tiers        []TierSpec
}

// NewCampaign 建立新活動並驗證所有建立時不變性
func NewCampaign(spec CampaignSpec, now time.Time) (*Campaign, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, ErrInvalidCampaign.WithContext("reason", "name is required")
	}
	if !spec.EndsAt.After(spec.StartsAt) {
		return nil, ErrInvalidCampaign.WithContext(
			"reason", "end must be after start",
			"starts_at", spec.StartsAt,
			"ends_at", spec.EndsAt,
		)
	}
	if spec.Distribution != DistributionWeightedRandom && spec.Distribution != DistributionSequentialRank {
		return nil, ErrInvalidDistribution.WithContext("input", string(spec.Distribution))
	}
	if len(spec.Tiers) == 0 {
		return nil, ErrInvalidCampaign.WithContext("reason", "at least one tier is required")
	}

	id := NewCampaignID()
	tiers := make([]*Tier, 0, len(spec.Tiers))
	for i, ts := range spec.Tiers {
		tier, err := newTier(id, ts, i)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	SortTiers(tiers)

	switch spec.Distribution {
	case DistributionWeightedRandom:
		if err := validateWeights(tiers); err != nil {
			return nil, err
		}
	case DistributionSequentialRank:
		if err := validateRankBlocks(tiers); err != nil {
			return nil, err
		}
	}

	return &Campaign{
		id:           id,
		name:         name,
		description:  strings.TrimSpace(spec.Description),
		startsAt:     spec.StartsAt,
		endsAt:       spec.EndsAt,
		active:       spec.Active,
		distribution: spec.Distribution,
		tiers:        tiers,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func validateWeights(tiers []*Tier) error {
	total := 0.0
	for _, t := range tiers {
		total += t.weight
	}
	if total > 1+weightTolerance {
		return ErrInvalidCampaign.WithContext("reason", "weights must sum to at most 1", "total_weight", total)
	}
	return nil
}

// validateRankBlocks tiers 已依 priority 排序
func validateRankBlocks(tiers []*Tier) error {
	for i, t := range tiers {
		if i > 0 && tiers[i-1].priority == t.priority {
			return ErrInvalidCampaign.WithContext(
				"reason", "priorities must be distinct",
				"priority", t.priority,
			)
		}
		if t.IsUnbounded() && i != len(tiers)-1 {
			return ErrInvalidCampaign.WithContext(
				"reason", "only the last tier may be unbounded",
				"tier", t.name,
			)
		}
	}
	return nil
}

// ReconstructCampaign 從持久化資料重建活動
//
// 建立時的不變性不重新檢查（活動可能在後台被調整過），
// 只確保分配方式可辨識、獎項屬於這個活動。
func ReconstructCampaign(
	id CampaignID,
	name string,
	description string,
	startsAt time.Time,
	endsAt time.Time,
	active bool,
	distribution DistributionType,
	tiers []*Tier,
	createdAt time.Time,
	updatedAt time.Time,
) (*Campaign, error) {
	if id.IsEmpty() {
		return nil, ErrInvariantViolation.WithContext("entity", "campaign", "reason", "empty id")
	}
	if distribution != DistributionWeightedRandom && distribution != DistributionSequentialRank {
		return nil, ErrInvariantViolation.WithContext(
			"campaign_id", id.String(),
			"distribution", string(distribution),
		)
	}
	ordered := make([]*Tier, len(tiers))
	copy(ordered, tiers)
	for _, t := range ordered {
		if !t.campaignID.Equals(id) {
			return nil, ErrInvariantViolation.WithContext(
				"campaign_id", id.String(),
				"tier_id", t.id.String(),
				"reason", "tier belongs to another campaign",
			)
		}
	}
	SortTiers(ordered)

	return &Campaign{
		id:           id,
		name:         name,
		description:  description,
		startsAt:     startsAt,
		endsAt:       endsAt,
		active:       active,
		distribution: distribution,
		tiers:        ordered,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

// ===========================
// 業務方法
// ===========================

// IsActive active 旗標為真，且 now 落在 [startsAt, endsAt]
func (c *Campaign) IsActive(now time.Time) bool {
	return c.active && !now.Before(c.startsAt) && !now.After(c.endsAt)
}

// CheckRedeemable 活動不在有效期間時返回 ErrCampaignInactive
func (c *Campaign) CheckRedeemable(now time.Time) error {
	if !c.IsActive(now) {
		return ErrCampaignInactive.WithContext(
			"campaign_id", c.id.String(),
			"active", c.active,
			"starts_at", c.startsAt,
			"ends_at", c.endsAt,
		)
	}
	return nil
}

// Tiers 依分配遍歷順序排列的獎項（返回副本切片）
func (c *Campaign) Tiers() []*Tier {
	out := make([]*Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// TierByID 依 ID 查找獎項
func (c *Campaign) TierByID(id TierID) (*Tier, bool) {
	for _, t := range c.tiers {
		if t.id.Equals(id) {
			return t, true
		}
	}
	return nil, false
}

// TotalCapacity 所有獎項名額總和；任何獎項不限名額時 ok == false
func (c *Campaign) TotalCapacity() (total int, ok bool) {
	for _, t := range c.tiers {
		limit, bounded := t.MaxWinners()
		if !bounded {
			return 0, false
		}
		total += limit
	}
	return total, true
}

func (c *Campaign) ID() CampaignID {
	return c.id
}

func (c *Campaign) Name() string {
	return c.name
}

func (c *Campaign) Description() string {
	return c.description
}

func (c *Campaign) StartsAt() time.Time {
	return c.startsAt
}

func (c *Campaign) EndsAt() time.Time {
	return c.endsAt
}

func (c *Campaign) Active() bool {
	return c.active
}

func (c *Campaign) Distribution() DistributionType {
	return c.distribution
}

func (c *Campaign) CreatedAt() time.Time {
	return c.createdAt
}

func (c *Campaign) UpdatedAt() time.Time {
	return c.updatedAt
}
