package redemption

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/infrastructure/config"
	"github.com/jackyeh168/scan_rewards/src/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ===========================
// 整合測試：SQLite + GORM Repository
// ===========================

type sqliteStack struct {
	db          *gorm.DB
	codes       *persistence.GORMCodeRepository
	campaigns   *persistence.GORMCampaignRepository
	redemptions *persistence.GORMRedemptionRepository
	useCase     *RedeemCodeUseCase
}

func setupSQLiteStack(t *testing.T) *sqliteStack {
	t.Helper()

	db, err := persistence.Open(context.Background(), config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, persistence.AutoMigrate(db))
	t.Cleanup(func() { _ = persistence.Close(db) })

	s := &sqliteStack{
		db:          db,
		codes:       persistence.NewCodeRepository(db),
		campaigns:   persistence.NewCampaignRepository(db),
		redemptions: persistence.NewRedemptionRepository(db),
	}
	s.useCase = NewRedeemCodeUseCase(
		s.codes, s.campaigns, s.redemptions,
		persistence.NewGORMTransactionManager(db, 10*time.Second),
		WithContentionRetries(3),
	)
	return s
}

func (s *sqliteStack) seed(t *testing.T, distribution reward.DistributionType, tiers []reward.TierSpec, codeCount int) (*reward.Campaign, []string) {
	t.Helper()

	now := time.Now().UTC()
	campaign, err := reward.NewCampaign(reward.CampaignSpec{
		Name:         "Concurrent Campaign",
		StartsAt:     now.Add(-time.Hour),
		EndsAt:       now.Add(time.Hour),
		Active:       true,
		Distribution: distribution,
		Tiers:        tiers,
	}, now)
	require.NoError(t, err)
	require.NoError(t, s.campaigns.Save(nil, campaign))

	values := make([]string, 0, codeCount)
	codes := make([]*reward.Code, 0, codeCount)
	for i := 0; i < codeCount; i++ {
		value := fmt.Sprintf("CC-%03d", i)
		code, err := reward.NewCode(value, campaign.ID(), "BATCH-C", nil, now)
		require.NoError(t, err)
		codes = append(codes, code)
		values = append(values, value)
	}
	require.NoError(t, s.codes.SaveBatch(nil, codes))
	return campaign, values
}

func giftTier(t *testing.T, name string, weight float64, priority int, limit *int) reward.TierSpec {
	t.Helper()
	prize, err := reward.NewReward(reward.RewardTypeGift, decimal.NewFromInt(50), name)
	require.NoError(t, err)
	return reward.TierSpec{Name: name, Reward: prize, Weight: weight, Priority: priority, MaxWinners: limit}
}

type redeemOutcome struct {
	result *RedeemCodeResult
	err    error
}

func redeemConcurrently(uc *RedeemCodeUseCase, cmds []RedeemCodeCommand) []redeemOutcome {
	outcomes := make([]redeemOutcome, len(cmds))
	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		go func(i int, cmd RedeemCodeCommand) {
			defer wg.Done()
			result, err := uc.Execute(context.Background(), cmd)
			outcomes[i] = redeemOutcome{result: result, err: err}
		}(i, cmd)
	}
	wg.Wait()
	return outcomes
}

// Test 1: 依序排名在並發下名次連續且不超過名額
func TestRedeemCode_Integration_SequentialRanksUnderConcurrency(t *testing.T) {
	// Arrange
	s := setupSQLiteStack(t)
	campaign, codes := s.seed(t, reward.DistributionSequentialRank, []reward.TierSpec{
		giftTier(t, "gold", 0, 1, intPtr(2)),
		giftTier(t, "silver", 0, 2, intPtr(3)),
	}, 8)

	cmds := make([]RedeemCodeCommand, 0, len(codes))
	for i, code := range codes {
		cmds = append(cmds, RedeemCodeCommand{Code: code, UserID: fmt.Sprintf("user-%d", i)})
	}

	// Act
	outcomes := redeemConcurrently(s.useCase, cmds)

	// Assert
	var ranks []int
	tierByRank := map[int]string{}
	claimed := 0
	for _, o := range outcomes {
		if o.err != nil {
			require.True(t, errors.Is(o.err, reward.ErrAllRewardsClaimed), "unexpected error: %v", o.err)
			claimed++
			continue
		}
		require.NotNil(t, o.result.AssignedRank)
		ranks = append(ranks, *o.result.AssignedRank)
		tierByRank[*o.result.AssignedRank] = o.result.Tier.Name
	}
	sort.Ints(ranks)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ranks, "名次連續且不重複")
	assert.Equal(t, 3, claimed)
	assert.Equal(t, "gold", tierByRank[1])
	assert.Equal(t, "gold", tierByRank[2])
	assert.Equal(t, "silver", tierByRank[5])

	stored, err := s.campaigns.FindWithTiers(nil, campaign.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Tiers()[0].CurrentWinners())
	assert.Equal(t, 3, stored.Tiers()[1].CurrentWinners())

	count, err := s.redemptions.CountForCampaign(nil, campaign.ID())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

// Test 2: 同一兌換碼被並發掃描，只有一次成功
func TestRedeemCode_Integration_SameCodeRedeemedExactlyOnce(t *testing.T) {
	// Arrange
	s := setupSQLiteStack(t)
	_, codes := s.seed(t, reward.DistributionWeightedRandom, []reward.TierSpec{
		giftTier(t, "grand", 1.0, 1, nil),
	}, 1)

	cmds := make([]RedeemCodeCommand, 10)
	for i := range cmds {
		cmds[i] = RedeemCodeCommand{Code: codes[0], UserID: fmt.Sprintf("user-%d", i)}
	}

	// Act
	outcomes := redeemConcurrently(s.useCase, cmds)

	// Assert
	successes := 0
	for _, o := range outcomes {
		if o.err == nil {
			successes++
			continue
		}
		assert.True(t, errors.Is(o.err, reward.ErrCouponUsed), "unexpected error: %v", o.err)
	}
	assert.Equal(t, 1, successes)

	code, err := s.codes.FindByCode(nil, codes[0])
	require.NoError(t, err)
	assert.Equal(t, reward.CodeStatusUsed, code.Status())
}

// Test 3: 權重抽獎在並發下不超過名額
func TestRedeemCode_Integration_WeightedRespectsCaps(t *testing.T) {
	// Arrange
	s := setupSQLiteStack(t)
	campaign, codes := s.seed(t, reward.DistributionWeightedRandom, []reward.TierSpec{
		giftTier(t, "limited", 0.9, 1, intPtr(3)),
		giftTier(t, "consolation", 0.1, 2, nil),
	}, 20)

	cmds := make([]RedeemCodeCommand, 0, len(codes))
	for i, code := range codes {
		cmds = append(cmds, RedeemCodeCommand{Code: code, UserID: fmt.Sprintf("user-%d", i)})
	}

	// Act
	outcomes := redeemConcurrently(s.useCase, cmds)

	// Assert
	for _, o := range outcomes {
		require.NoError(t, o.err)
	}
	stored, err := s.campaigns.FindWithTiers(nil, campaign.ID())
	require.NoError(t, err)
	limited, consolation := stored.Tiers()[0], stored.Tiers()[1]
	assert.LessOrEqual(t, limited.CurrentWinners(), 3)
	assert.Equal(t, 20, limited.CurrentWinners()+consolation.CurrentWinners())
}
