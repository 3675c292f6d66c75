package reward_test

import (
	"fmt"
	"testing"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: 序數後綴
func TestRank_Ordinal(t *testing.T) {
	tests := map[reward.Rank]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 101: "101st", 111: "111th",
	}

	for rank, want := range tests {
		t.Run(fmt.Sprint(int(rank)), func(t *testing.T) {
			assert.Equal(t, want, rank.Ordinal())
		})
	}
}

// Test 2: 沒有名次時不顯示
func TestRank_Display(t *testing.T) {
	assert.Equal(t, "1st Winner", reward.Rank(1).Display())
	assert.Equal(t, "", reward.NoRank.Display())
}

// Test 3: 分配方式解析
func TestParseDistributionType(t *testing.T) {
	got, err := reward.ParseDistributionType(" random ")
	require.NoError(t, err)
	assert.Equal(t, reward.DistributionWeightedRandom, got)

	got, err = reward.ParseDistributionType("SEQUENTIAL")
	require.NoError(t, err)
	assert.Equal(t, reward.DistributionSequentialRank, got)

	_, err = reward.ParseDistributionType("round-robin")
	assert.ErrorIs(t, err, reward.ErrInvalidDistribution)
}

// Test 4: 獎品驗證
func TestNewReward_Validation(t *testing.T) {
	_, err := reward.NewReward("POINTS", decimal.NewFromInt(1), "x")
	assert.ErrorIs(t, err, reward.ErrInvalidReward)

	_, err = reward.NewReward(reward.RewardTypeCashback, decimal.NewFromInt(-1), "x")
	assert.ErrorIs(t, err, reward.ErrInvalidReward)

	_, err = reward.NewReward(reward.RewardTypeDiscount, decimal.NewFromInt(10), " ")
	assert.ErrorIs(t, err, reward.ErrInvalidReward)

	r, err := reward.NewReward(reward.RewardTypeDiscount, decimal.RequireFromString("12.50"), "Coffee 12.5 off")
	require.NoError(t, err)
	assert.True(t, r.Value().Equal(decimal.RequireFromString("12.5")))
	assert.False(t, r.IsZero())
	assert.True(t, reward.Reward{}.IsZero())
}

// Test 5: UserID 驗證
func TestNewUserID_Validation(t *testing.T) {
	_, err := reward.NewUserID("  ")
	assert.ErrorIs(t, err, reward.ErrInvalidUserID)

	u, err := reward.NewUserID(" Uabc ")
	require.NoError(t, err)
	assert.Equal(t, "Uabc", u.String())
}

// Test 6: 錯誤分類與重試
func TestDomainError_RetryableAndContext(t *testing.T) {
	assert.True(t, reward.IsRetryable(reward.ErrConflict))
	assert.True(t, reward.IsRetryable(reward.ErrTierLimitReached.WithContext("tier_id", "t")))
	assert.False(t, reward.IsRetryable(reward.ErrCouponUsed))
	assert.False(t, reward.IsRetryable(fmt.Errorf("plain")))

	wrapped := fmt.Errorf("redeem: %w", reward.ErrAllRewardsClaimed.WithContext("campaign_id", "c1"))
	domainErr, ok := reward.AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, reward.ErrCodeAllRewardsClaimed, domainErr.Code)
	assert.Equal(t, "c1", domainErr.Context["campaign_id"])
	assert.Nil(t, reward.ErrAllRewardsClaimed.Context, "WithContext 不應修改原錯誤")

	assert.Panics(t, func() { _ = reward.ErrConflict.WithContext("odd") })
}
