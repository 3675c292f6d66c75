package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================
// CreateCampaign Use Case 測試
// ===========================

func validCommand() CreateCampaignCommand {
	return CreateCampaignCommand{
		Name:         "Launch Party",
		Description:  "掃碼抽獎",
		StartsAt:     testNow,
		EndsAt:       testNow.Add(7 * 24 * time.Hour),
		Active:       true,
		Distribution: "random",
		Tiers: []TierInput{
			{Name: "iPhone", RewardType: "GIFT", RewardValue: "32900", RewardName: "iPhone 17", Weight: 0.01, Priority: 1, MaxWinners: intPtr(1)},
			{Name: "Coupon", RewardType: "DISCOUNT", RewardValue: "50.5", RewardName: "NT$50 折價券", Weight: 0.99, Priority: 2},
		},
	}
}

// Test 1: 成功建立活動
func TestCreateCampaignUseCase_Success(t *testing.T) {
	// Arrange
	repo := NewMockCampaignRepository()
	txManager := NewMockTransactionManager()
	useCase := NewCreateCampaignUseCase(repo, txManager, fixedClock)

	// Act
	result, err := useCase.Execute(context.Background(), validCommand())

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, result.CampaignID)
	assert.Len(t, result.TierIDs, 2)
	assert.Equal(t, testNow, result.CreatedAt)
	assert.Equal(t, 1, repo.SaveCallCount)
	assert.Equal(t, 1, txManager.InTransactionCallCount)

	id, err := reward.CampaignIDFromString(result.CampaignID)
	require.NoError(t, err)
	stored, err := repo.FindWithTiers(nil, id)
	require.NoError(t, err)
	assert.Equal(t, reward.DistributionWeightedRandom, stored.Distribution())
	assert.Equal(t, "50.5", stored.Tiers()[1].Reward().Value().String())
}

// Test 2: 無效輸入不會保存
func TestCreateCampaignUseCase_InvalidInput_ReturnsError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cmd *CreateCampaignCommand)
		want   *reward.DomainError
	}{
		{"unknown distribution", func(c *CreateCampaignCommand) { c.Distribution = "lottery" }, reward.ErrInvalidDistribution},
		{"end before start", func(c *CreateCampaignCommand) { c.EndsAt = c.StartsAt.Add(-time.Hour) }, reward.ErrInvalidCampaign},
		{"no tiers", func(c *CreateCampaignCommand) { c.Tiers = nil }, reward.ErrInvalidCampaign},
		{"weights above one", func(c *CreateCampaignCommand) { c.Tiers[0].Weight = 0.5 }, reward.ErrInvalidCampaign},
		{"bad reward value", func(c *CreateCampaignCommand) { c.Tiers[0].RewardValue = "abc" }, reward.ErrInvalidReward},
		{"unknown reward type", func(c *CreateCampaignCommand) { c.Tiers[1].RewardType = "POINTS" }, reward.ErrInvalidReward},
		{"zero cap", func(c *CreateCampaignCommand) { c.Tiers[0].MaxWinners = intPtr(0) }, reward.ErrInvalidTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockCampaignRepository()
			txManager := NewMockTransactionManager()
			useCase := NewCreateCampaignUseCase(repo, txManager, fixedClock)
			cmd := validCommand()
			tt.mutate(&cmd)

			_, err := useCase.Execute(context.Background(), cmd)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %s, got %v", tt.want.Code, err)
			assert.Equal(t, 0, repo.SaveCallCount)
			assert.Equal(t, 0, txManager.InTransactionCallCount)
		})
	}
}

// Test 3: 依序排名只有最後一個獎項可以不限名額
func TestCreateCampaignUseCase_Sequential_UnboundedTierMustBeLast(t *testing.T) {
	useCase := NewCreateCampaignUseCase(NewMockCampaignRepository(), NewMockTransactionManager(), fixedClock)
	cmd := validCommand()
	cmd.Distribution = "SEQUENTIAL"
	cmd.Tiers[0].MaxWinners = nil
	cmd.Tiers[1].MaxWinners = intPtr(10)

	_, err := useCase.Execute(context.Background(), cmd)

	require.Error(t, err)
	assert.True(t, errors.Is(err, reward.ErrInvalidCampaign))
}
