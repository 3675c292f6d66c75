package reward

import (
	"math"
	"math/rand/v2"
	"sync"
)

// ===========================
// Sampler - 隨機樣本來源
// ===========================

// Sampler 產生 [0, 1) 的均勻樣本
//
// 實作必須可以被多個 goroutine 同時呼叫。
type Sampler interface {
	Float64() float64
}

// SamplerFunc 函數轉 Sampler
type SamplerFunc func() float64

func (f SamplerFunc) Float64() float64 {
	return f()
}

// DefaultSampler 使用 math/rand/v2 的全域來源（並發安全）
func DefaultSampler() Sampler {
	return SamplerFunc(rand.Float64)
}

// NewSeededSampler 固定種子的 Sampler，用於可重現的抽樣（內部加鎖）
func NewSeededSampler(seed1, seed2 uint64) Sampler {
	return &seededSampler{r: rand.New(rand.NewPCG(seed1, seed2))}
}

type seededSampler struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *seededSampler) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// ===========================
// AllocationStrategy - 分配策略
// ===========================

// AllocationContext 單次兌換的分配輸入
type AllocationContext struct {
	// PriorRedemptions 同一活動在本事務開始前已提交的兌換數（依序排名使用）
	PriorRedemptions int
}

// Allocation 分配結果
type Allocation struct {
	Tier *Tier
	Rank Rank // 隨機抽獎為 NoRank
}

// AllocationStrategy 依活動的獎項快照選出一個獎項
//
// 純函數：不修改 tiers，不存取資料庫。沒有任何可分配的獎項時返回 ErrNoTierAvailable。
type AllocationStrategy interface {
	Allocate(tiers []*Tier, actx AllocationContext) (Allocation, error)
}

// StrategyFor 依分配方式返回對應策略
func StrategyFor(distribution DistributionType, sampler Sampler) (AllocationStrategy, error) {
	switch distribution {
	case DistributionWeightedRandom:
		return NewWeightedRandomStrategy(sampler), nil
	case DistributionSequentialRank:
		return SequentialRankStrategy{}, nil
	default:
		return nil, ErrInvalidDistribution.WithContext("input", string(distribution))
	}
}

// ===========================
// WeightedRandom - 權重隨機抽獎
// ===========================

// WeightedRandomStrategy 在仍有名額的獎項中依權重抽一個
type WeightedRandomStrategy struct {
	sampler Sampler
}

func NewWeightedRandomStrategy(sampler Sampler) *WeightedRandomStrategy {
	if sampler == nil {
		sampler = DefaultSampler()
	}
	return &WeightedRandomStrategy{sampler: sampler}
}

func (s *WeightedRandomStrategy) Allocate(tiers []*Tier, _ AllocationContext) (Allocation, error) {
	tier, err := DrawWeighted(EligibleTiers(tiers), s.sampler.Float64())
	if err != nil {
		return Allocation{}, err
	}
	return Allocation{Tier: tier, Rank: NoRank}, nil
}

// EligibleTiers 依遍歷順序（priority 升序，再依建立順序）返回仍有名額的獎項
func EligibleTiers(tiers []*Tier) []*Tier {
	ordered := orderedCopy(tiers)
	eligible := ordered[:0]
	for _, t := range ordered {
		if t.HasCapacity() {
			eligible = append(eligible, t)
		}
	}
	return eligible
}

// DrawWeighted 以樣本 sample ∈ [0, 1) 在 eligible 中做權重遍歷
//
// r = sample × Σw；依序走訪，r < w 時選中，否則 r -= w。
// 浮點殘差或總權重為 0 時落到最後一個獎項。
// 負權重或 NaN 視為 0。eligible 為空時返回 ErrNoTierAvailable。
func DrawWeighted(eligible []*Tier, sample float64) (*Tier, error) {
	if len(eligible) == 0 {
		return nil, ErrNoTierAvailable
	}
	if math.IsNaN(sample) || sample < 0 {
		sample = 0
	}

	total := 0.0
	for _, t := range eligible {
		total += effectiveWeight(t)
	}

	r := sample * total
	for _, t := range eligible {
		w := effectiveWeight(t)
		if r < w {
			return t, nil
		}
		r -= w
	}
	return eligible[len(eligible)-1], nil
}

func effectiveWeight(t *Tier) float64 {
	if math.IsNaN(t.weight) || t.weight < 0 {
		return 0
	}
	return t.weight
}

// ===========================
// SequentialRank - 依序排名
// ===========================

// SequentialRankStrategy 第 N 位兌換者取得名次 N，名次區段決定獎項
type SequentialRankStrategy struct{}

func (SequentialRankStrategy) Allocate(tiers []*Tier, actx AllocationContext) (Allocation, error) {
	rank := Rank(actx.PriorRedemptions + 1)
	tier, err := TierForRank(tiers, rank)
	if err != nil {
		return Allocation{}, err
	}
	return Allocation{Tier: tier, Rank: rank}, nil
}

// TierForRank 依 priority 升序，每個獎項佔用 maxWinners 個連續名次
//
// 例如上限 [1, 2]：名次 1 → 第一個獎項，名次 2、3 → 第二個獎項，名次 4 → ErrNoTierAvailable。
// 不限名額的獎項佔用其後所有名次。
func TierForRank(tiers []*Tier, rank Rank) (*Tier, error) {
	if rank < 1 {
		return nil, ErrNoTierAvailable.WithContext("rank", int(rank))
	}
	upper := 0
	for _, t := range orderedCopy(tiers) {
		limit, bounded := t.MaxWinners()
		if !bounded {
			return t, nil
		}
		upper += limit
		if int(rank) <= upper {
			return t, nil
		}
	}
	return nil, ErrNoTierAvailable.WithContext("rank", int(rank), "total_capacity", upper)
}

func orderedCopy(tiers []*Tier) []*Tier {
	out := make([]*Tier, len(tiers))
	copy(out, tiers)
	SortTiers(out)
	return out
}
