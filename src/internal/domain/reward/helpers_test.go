package reward_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int {
	return &v
}

func mustReward(t *testing.T, name string) reward.Reward {
	t.Helper()
	r, err := reward.NewReward(reward.RewardTypeGift, decimal.NewFromInt(100), name)
	require.NoError(t, err)
	return r
}

// tierFixture 以持久化資料的形式建立獎項，方便設定 currentWinners
type tierFixture struct {
	name     string
	weight   float64
	priority int
	cap      *int
	current  int
}

func buildTiers(t *testing.T, campaignID reward.CampaignID, fixtures ...tierFixture) []*reward.Tier {
	t.Helper()
	tiers := make([]*reward.Tier, 0, len(fixtures))
	for i, f := range fixtures {
		tier, err := reward.ReconstructTier(
			reward.NewTierID(),
			campaignID,
			f.name,
			mustReward(t, f.name),
			f.weight,
			f.priority,
			f.cap,
			f.current,
			"",
			i,
		)
		require.NoError(t, err)
		tiers = append(tiers, tier)
	}
	return tiers
}

func mustUser(t *testing.T, id string) reward.UserID {
	t.Helper()
	u, err := reward.NewUserID(id)
	require.NoError(t, err)
	return u
}
