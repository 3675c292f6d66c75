package redemption

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return testNow
}

func intPtr(v int) *int {
	return &v
}

// ===========================
// Mock TransactionManager
// ===========================

// mockTx 記錄事務內的寫入，回滾時依反序撤銷
type mockTx struct {
	undo []func()
}

func recordUndo(ctx shared.TransactionContext, undo func()) {
	if tx, ok := ctx.(*mockTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

type MockTransactionManager struct {
	mu                     sync.Mutex
	InTransactionCallCount int
	RollbackCount          int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InTransactionCallCount++

	if err := ctx.Err(); err != nil {
		return reward.ErrConflict.WithContext("cause", err.Error())
	}

	tx := &mockTx{}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.RollbackCount++
		return err
	}
	return nil
}

// ===========================
// Mock CodeRepository
// ===========================

type codeRow struct {
	id         reward.CodeID
	value      string
	campaignID reward.CampaignID
	status     reward.CodeStatus
	expiresAt  *time.Time
	usedBy     reward.UserID
	usedAt     *time.Time
}

type MockCodeRepository struct {
	rows map[string]*codeRow

	// ForUpdateErrs 依序在 FindByCodeForUpdate 返回的錯誤（用完後正常執行）
	ForUpdateErrs []error
	// BeforeLock 取得鎖之前執行，用來模擬另一個已提交的事務
	BeforeLock func()

	FindCallCount      int
	ForUpdateCallCount int
	MarkUsedCallCount  int
}

func NewMockCodeRepository() *MockCodeRepository {
	return &MockCodeRepository{rows: make(map[string]*codeRow)}
}

func (m *MockCodeRepository) Add(value string, campaignID reward.CampaignID, expiresAt *time.Time) {
	m.rows[value] = &codeRow{
		id:         reward.NewCodeID(),
		value:      value,
		campaignID: campaignID,
		status:     reward.CodeStatusUnused,
		expiresAt:  expiresAt,
	}
}

// SetStatus 模擬事務外的狀態變更；USED 會記成另一位用戶
func (m *MockCodeRepository) SetStatus(value string, status reward.CodeStatus) {
	row := m.rows[value]
	row.status = status
	if status == reward.CodeStatusUsed {
		other, _ := reward.NewUserID("someone-else")
		at := testNow.Add(-time.Minute)
		row.usedBy, row.usedAt = other, &at
	}
}

func (m *MockCodeRepository) Status(value string) reward.CodeStatus {
	return m.rows[value].status
}

func (m *MockCodeRepository) FindByCode(ctx shared.TransactionContext, value string) (*reward.Code, error) {
	m.FindCallCount++
	return m.load(value)
}

func (m *MockCodeRepository) FindByCodeForUpdate(ctx shared.TransactionContext, value string) (*reward.Code, error) {
	m.ForUpdateCallCount++
	if m.BeforeLock != nil {
		m.BeforeLock()
		m.BeforeLock = nil
	}
	if len(m.ForUpdateErrs) > 0 {
		err := m.ForUpdateErrs[0]
		m.ForUpdateErrs = m.ForUpdateErrs[1:]
		return nil, err
	}
	return m.load(value)
}

func (m *MockCodeRepository) load(value string) (*reward.Code, error) {
	row, ok := m.rows[value]
	if !ok {
		return nil, reward.ErrUnknownCode.WithContext("code", value)
	}
	return reward.ReconstructCode(
		row.id, row.value, row.campaignID, row.status, "BATCH-1",
		row.expiresAt, row.usedBy, row.usedAt, testNow.Add(-24*time.Hour),
	)
}

func (m *MockCodeRepository) MarkUsed(ctx shared.TransactionContext, id reward.CodeID, user reward.UserID, at time.Time) error {
	m.MarkUsedCallCount++
	for _, row := range m.rows {
		if !row.id.Equals(id) {
			continue
		}
		if row.status != reward.CodeStatusUnused {
			return reward.ErrStaleCodeStatus.WithContext("code_id", id.String())
		}
		row.status, row.usedBy, row.usedAt = reward.CodeStatusUsed, user, &at
		recordUndo(ctx, func() {
			row.status, row.usedBy, row.usedAt = reward.CodeStatusUnused, reward.UserID{}, nil
		})
		return nil
	}
	return reward.ErrUnknownCode.WithContext("code_id", id.String())
}

func (m *MockCodeRepository) SaveBatch(ctx shared.TransactionContext, codes []*reward.Code) error {
	for _, c := range codes {
		if _, exists := m.rows[c.Value()]; exists {
			return reward.ErrDuplicateCode.WithContext("code", c.Value())
		}
	}
	for _, c := range codes {
		m.rows[c.Value()] = &codeRow{
			id:         c.ID(),
			value:      c.Value(),
			campaignID: c.CampaignID(),
			status:     c.Status(),
			expiresAt:  c.ExpiresAt(),
		}
	}
	return nil
}

// ===========================
// Mock CampaignRepository
// ===========================

type MockCampaignRepository struct {
	campaigns map[string]*reward.Campaign
	winners   map[string]int

	// BeforeIncrement 遞增前執行，用來模擬並發的得獎者
	BeforeIncrement func(id reward.TierID)

	ForUpdateCallCount int
	IncrementCallCount int
}

func NewMockCampaignRepository() *MockCampaignRepository {
	return &MockCampaignRepository{
		campaigns: make(map[string]*reward.Campaign),
		winners:   make(map[string]int),
	}
}

func (m *MockCampaignRepository) Save(ctx shared.TransactionContext, c *reward.Campaign) error {
	m.campaigns[c.ID().String()] = c
	for _, t := range c.Tiers() {
		m.winners[t.ID().String()] = t.CurrentWinners()
	}
	return nil
}

func (m *MockCampaignRepository) Winners(id reward.TierID) int {
	return m.winners[id.String()]
}

// BumpWinners 直接增加計數（事務外，不會回滾）
func (m *MockCampaignRepository) BumpWinners(id reward.TierID) {
	m.winners[id.String()]++
}

func (m *MockCampaignRepository) FindWithTiers(ctx shared.TransactionContext, id reward.CampaignID) (*reward.Campaign, error) {
	return m.load(id)
}

func (m *MockCampaignRepository) FindWithTiersForUpdate(ctx shared.TransactionContext, id reward.CampaignID) (*reward.Campaign, error) {
	m.ForUpdateCallCount++
	return m.load(id)
}

// load 以目前的計數重建活動快照
func (m *MockCampaignRepository) load(id reward.CampaignID) (*reward.Campaign, error) {
	c, ok := m.campaigns[id.String()]
	if !ok {
		return nil, reward.ErrCampaignNotFound.WithContext("campaign_id", id.String())
	}
	tiers := make([]*reward.Tier, 0, len(c.Tiers()))
	for _, t := range c.Tiers() {
		var limit *int
		if v, ok := t.MaxWinners(); ok {
			limit = intPtr(v)
		}
		tier, err := reward.ReconstructTier(
			t.ID(), t.CampaignID(), t.Name(), t.Reward(), t.Weight(), t.Priority(),
			limit, m.winners[t.ID().String()], t.ImageURL(), t.Position(),
		)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return reward.ReconstructCampaign(
		c.ID(), c.Name(), c.Description(), c.StartsAt(), c.EndsAt(), c.Active(),
		c.Distribution(), tiers, c.CreatedAt(), c.UpdatedAt(),
	)
}

func (m *MockCampaignRepository) IncrementTierWinners(ctx shared.TransactionContext, id reward.TierID) (int, error) {
	m.IncrementCallCount++
	if m.BeforeIncrement != nil {
		hook := m.BeforeIncrement
		m.BeforeIncrement = nil
		hook(id)
	}
	key := id.String()
	if _, ok := m.winners[key]; !ok {
		return 0, reward.ErrTierNotFound.WithContext("tier_id", key)
	}
	m.winners[key]++
	recordUndo(ctx, func() { m.winners[key]-- })
	return m.winners[key], nil
}

// ===========================
// Mock RedemptionRepository
// ===========================

type MockRedemptionRepository struct {
	redemptions   []*reward.Redemption
	SaveCallCount int
	SaveErr       error
	CountErr      error
}

func NewMockRedemptionRepository() *MockRedemptionRepository {
	return &MockRedemptionRepository{}
}

func (m *MockRedemptionRepository) Save(ctx shared.TransactionContext, r *reward.Redemption) error {
	m.SaveCallCount++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for _, existing := range m.redemptions {
		if existing.CodeID().Equals(r.CodeID()) {
			return reward.ErrConflict.WithContext("code", r.Code())
		}
	}
	m.redemptions = append(m.redemptions, r)
	n := len(m.redemptions)
	recordUndo(ctx, func() { m.redemptions = m.redemptions[:n-1] })
	return nil
}

func (m *MockRedemptionRepository) CountForCampaign(ctx shared.TransactionContext, id reward.CampaignID) (int, error) {
	count := 0
	for _, r := range m.redemptions {
		if r.CampaignID().Equals(id) {
			count++
		}
	}
	return count, nil
}

// FindByUserID 新到舊（同一時間以寫入順序倒序）
func (m *MockRedemptionRepository) FindByUserID(ctx shared.TransactionContext, user reward.UserID, offset, limit int) ([]*reward.Redemption, error) {
	var matched []*reward.Redemption
	for i := len(m.redemptions) - 1; i >= 0; i-- {
		if m.redemptions[i].UserID().Equals(user) {
			matched = append(matched, m.redemptions[i])
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *MockRedemptionRepository) CountByUserID(ctx shared.TransactionContext, user reward.UserID) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	count := 0
	for _, r := range m.redemptions {
		if r.UserID().Equals(user) {
			count++
		}
	}
	return count, nil
}

// ===========================
// Mock Recorder / Publisher
// ===========================

type MockRecorder struct {
	Outcomes    []string
	Allocations []string
	Retries     int
}

func (m *MockRecorder) ObserveRedemption(outcome string, _ time.Duration) {
	m.Outcomes = append(m.Outcomes, outcome)
}

func (m *MockRecorder) CountAllocation(distribution, rewardType string) {
	m.Allocations = append(m.Allocations, distribution+"/"+rewardType)
}

func (m *MockRecorder) CountRetry() {
	m.Retries++
}

type MockEventPublisher struct {
	Events []shared.DomainEvent
	Err    error
}

func (m *MockEventPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	return m.PublishBatch(ctx, []shared.DomainEvent{event})
}

func (m *MockEventPublisher) PublishBatch(_ context.Context, events []shared.DomainEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, events...)
	return nil
}

// ===========================
// Fixtures
// ===========================

type fixture struct {
	codes       *MockCodeRepository
	campaigns   *MockCampaignRepository
	redemptions *MockRedemptionRepository
	txManager   *MockTransactionManager
	recorder    *MockRecorder
	publisher   *MockEventPublisher
}

func newFixture() *fixture {
	return &fixture{
		codes:       NewMockCodeRepository(),
		campaigns:   NewMockCampaignRepository(),
		redemptions: NewMockRedemptionRepository(),
		txManager:   NewMockTransactionManager(),
		recorder:    &MockRecorder{},
		publisher:   &MockEventPublisher{},
	}
}

func (f *fixture) useCase(opts ...Option) *RedeemCodeUseCase {
	base := []Option{
		WithClock(fixedClock),
		WithRecorder(f.recorder),
		WithEventPublisher(f.publisher),
	}
	return NewRedeemCodeUseCase(f.codes, f.campaigns, f.redemptions, f.txManager, append(base, opts...)...)
}

type tierSpec struct {
	name     string
	weight   float64
	priority int
	cap      *int
}

func (f *fixture) addCampaign(t *testing.T, distribution reward.DistributionType, active bool, specs ...tierSpec) *reward.Campaign {
	t.Helper()

	tiers := make([]reward.TierSpec, 0, len(specs))
	for _, s := range specs {
		prize, err := reward.NewReward(reward.RewardTypeGift, decimal.NewFromInt(100), s.name+" prize")
		require.NoError(t, err)
		tiers = append(tiers, reward.TierSpec{
			Name:       s.name,
			Reward:     prize,
			Weight:     s.weight,
			Priority:   s.priority,
			MaxWinners: s.cap,
			ImageURL:   "https://cdn.example.com/" + s.name + ".png",
		})
	}
	campaign, err := reward.NewCampaign(reward.CampaignSpec{
		Name:         "Spring Scan",
		StartsAt:     testNow.Add(-time.Hour),
		EndsAt:       testNow.Add(time.Hour),
		Active:       active,
		Distribution: distribution,
		Tiers:        tiers,
	}, testNow.Add(-2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.campaigns.Save(nil, campaign))
	return campaign
}

func requireDomainError(t *testing.T, err error, target *reward.DomainError) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, target), "expected %s, got %v", target.Code, err)
}
