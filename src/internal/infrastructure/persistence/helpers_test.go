package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ===========================
// 測試輔助函數
// ===========================

var fixtureNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// setupTestDB 每個測試一個獨立的 SQLite in-memory 資料庫
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(context.Background(), config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err, "open test database")
	require.NoError(t, AutoMigrate(db), "migrate test database")

	t.Cleanup(func() {
		_ = Close(db)
	})
	return db
}

func intPtr(v int) *int {
	return &v
}

func newTestReward(t *testing.T, name string) reward.Reward {
	t.Helper()
	r, err := reward.NewReward(reward.RewardTypeGift, decimal.RequireFromString("150.50"), name)
	require.NoError(t, err)
	return r
}

// createCampaign 建立並保存活動；caps 依序對應每個獎項的名額（nil = 不限）
func createCampaign(t *testing.T, db *gorm.DB, distribution reward.DistributionType, caps ...*int) *reward.Campaign {
	t.Helper()

	tiers := make([]reward.TierSpec, 0, len(caps))
	for i, limit := range caps {
		tiers = append(tiers, reward.TierSpec{
			Name:       "tier-" + string(rune('A'+i)),
			Reward:     newTestReward(t, "prize"),
			Weight:     1.0 / float64(len(caps)),
			Priority:   i + 1,
			MaxWinners: limit,
		})
	}
	campaign, err := reward.NewCampaign(reward.CampaignSpec{
		Name:         "Integration Campaign",
		StartsAt:     fixtureNow.Add(-time.Hour),
		EndsAt:       fixtureNow.Add(time.Hour),
		Active:       true,
		Distribution: distribution,
		Tiers:        tiers,
	}, fixtureNow)
	require.NoError(t, err)

	require.NoError(t, NewCampaignRepository(db).Save(nil, campaign))
	return campaign
}

func createCode(t *testing.T, db *gorm.DB, value string, campaignID reward.CampaignID) *reward.Code {
	t.Helper()
	code, err := reward.NewCode(value, campaignID, "BATCH-1", nil, fixtureNow)
	require.NoError(t, err)
	require.NoError(t, NewCodeRepository(db).SaveBatch(nil, []*reward.Code{code}))
	return code
}

func mustUserID(t *testing.T, s string) reward.UserID {
	t.Helper()
	u, err := reward.NewUserID(s)
	require.NoError(t, err)
	return u
}
