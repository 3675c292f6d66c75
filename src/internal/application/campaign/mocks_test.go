package campaign

import (
	"context"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return testNow
}

func intPtr(v int) *int {
	return &v
}

// ===========================
// Mock Repositories
// ===========================

type MockCampaignRepository struct {
	campaigns     map[string]*reward.Campaign
	SaveCallCount int
}

func NewMockCampaignRepository() *MockCampaignRepository {
	return &MockCampaignRepository{campaigns: make(map[string]*reward.Campaign)}
}

func (m *MockCampaignRepository) Save(ctx shared.TransactionContext, c *reward.Campaign) error {
	m.SaveCallCount++
	m.campaigns[c.ID().String()] = c
	return nil
}

func (m *MockCampaignRepository) FindWithTiers(ctx shared.TransactionContext, id reward.CampaignID) (*reward.Campaign, error) {
	if c, ok := m.campaigns[id.String()]; ok {
		return c, nil
	}
	return nil, reward.ErrCampaignNotFound.WithContext("campaign_id", id.String())
}

func (m *MockCampaignRepository) FindWithTiersForUpdate(ctx shared.TransactionContext, id reward.CampaignID) (*reward.Campaign, error) {
	return m.FindWithTiers(ctx, id)
}

func (m *MockCampaignRepository) IncrementTierWinners(ctx shared.TransactionContext, id reward.TierID) (int, error) {
	return 0, reward.ErrTierNotFound
}

type MockCodeRepository struct {
	codes         map[string]*reward.Code
	SaveCallCount int
}

func NewMockCodeRepository() *MockCodeRepository {
	return &MockCodeRepository{codes: make(map[string]*reward.Code)}
}

func (m *MockCodeRepository) FindByCode(ctx shared.TransactionContext, value string) (*reward.Code, error) {
	if c, ok := m.codes[value]; ok {
		return c, nil
	}
	return nil, reward.ErrUnknownCode
}

func (m *MockCodeRepository) FindByCodeForUpdate(ctx shared.TransactionContext, value string) (*reward.Code, error) {
	return m.FindByCode(ctx, value)
}

func (m *MockCodeRepository) MarkUsed(ctx shared.TransactionContext, id reward.CodeID, user reward.UserID, at time.Time) error {
	return reward.ErrStaleCodeStatus
}

func (m *MockCodeRepository) SaveBatch(ctx shared.TransactionContext, codes []*reward.Code) error {
	m.SaveCallCount++
	for _, c := range codes {
		if _, exists := m.codes[c.Value()]; exists {
			return reward.ErrDuplicateCode.WithContext("code", c.Value())
		}
	}
	for _, c := range codes {
		m.codes[c.Value()] = c
	}
	return nil
}

// ===========================
// Mock TransactionManager
// ===========================

type MockTransactionManager struct {
	InTransactionCallCount int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	m.InTransactionCallCount++
	var tx shared.TransactionContext
	return fn(tx)
}
