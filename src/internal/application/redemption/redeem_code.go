package redemption

import (
	"context"
	"errors"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"go.uber.org/zap"
)

// RedeemCodeCommand 兌換指令
type RedeemCodeCommand struct {
	Code   string
	UserID string
}

// RedeemCodeResult 兌換結果
type RedeemCodeResult struct {
	RedemptionView
	Attempts int // 含重試的嘗試次數
}

// RedeemCodeUseCase 兌換交易協調器
//
// 每次嘗試依序經過 Validating → Locking → Allocating → Persisting → Committed，
// 任何一步失敗都會回滾整個事務並以 AbortError 返回中止階段。
// 可重試的衝突錯誤（ErrConflict、ErrTierLimitReached）會在新的事務中重試。
type RedeemCodeUseCase struct {
	codeRepo       reward.CodeRepository
	campaignRepo   reward.CampaignRepository
	redemptionRepo reward.RedemptionRepository
	txManager      shared.TransactionManager

	logger            *zap.Logger
	recorder          Recorder
	publisher         shared.EventPublisher
	now               func() time.Time
	sampler           reward.Sampler
	retries           int
	allowCampaignless bool
}

// Option 協調器選項
type Option func(*RedeemCodeUseCase)

func WithLogger(logger *zap.Logger) Option {
	return func(uc *RedeemCodeUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(uc *RedeemCodeUseCase) {
		if recorder != nil {
			uc.recorder = recorder
		}
	}
}

func WithEventPublisher(publisher shared.EventPublisher) Option {
	return func(uc *RedeemCodeUseCase) {
		uc.publisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *RedeemCodeUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// WithSampler 權重抽獎的亂數來源（測試用可注入固定序列）
func WithSampler(sampler reward.Sampler) Option {
	return func(uc *RedeemCodeUseCase) {
		if sampler != nil {
			uc.sampler = sampler
		}
	}
}

// WithContentionRetries 衝突時額外重試的次數（0 表示不重試）
func WithContentionRetries(n int) Option {
	return func(uc *RedeemCodeUseCase) {
		if n >= 0 {
			uc.retries = n
		}
	}
}

// WithCampaignlessCodes 是否接受未綁定活動的兌換碼（只做真偽驗證，不發獎）
func WithCampaignlessCodes(allow bool) Option {
	return func(uc *RedeemCodeUseCase) {
		uc.allowCampaignless = allow
	}
}

// NewRedeemCodeUseCase 創建兌換用例
func NewRedeemCodeUseCase(
	codeRepo reward.CodeRepository,
	campaignRepo reward.CampaignRepository,
	redemptionRepo reward.RedemptionRepository,
	txManager shared.TransactionManager,
	opts ...Option,
) *RedeemCodeUseCase {
	uc := &RedeemCodeUseCase{
		codeRepo:       codeRepo,
		campaignRepo:   campaignRepo,
		redemptionRepo: redemptionRepo,
		txManager:      txManager,
		logger:         zap.NewNop(),
		recorder:       nopRecorder{},
		now:            func() time.Time { return time.Now().UTC() },
		sampler:        reward.DefaultSampler(),
		retries:        1,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// outcome 一次成功嘗試的產出
type outcome struct {
	redemption   *reward.Redemption
	distribution reward.DistributionType
}

// Execute 執行兌換
func (uc *RedeemCodeUseCase) Execute(ctx context.Context, cmd RedeemCodeCommand) (*RedeemCodeResult, error) {
	started := time.Now()

	user, err := reward.NewUserID(cmd.UserID)
	if err != nil {
		uc.observe(started, err)
		return nil, err
	}
	value := reward.NormalizeCode(cmd.Code)
	if value == "" {
		err := reward.ErrCouponInvalid.WithContext("reason", "empty code")
		uc.observe(started, err)
		return nil, err
	}

	maxAttempts := 1 + uc.retries
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := uc.attempt(ctx, value, user, attempt)
		if err == nil {
			uc.publish(ctx, out.redemption)
			if out.redemption.HasTier() {
				uc.recorder.CountAllocation(string(out.distribution), string(out.redemption.Prize().Type()))
			}
			uc.observe(started, nil)
			return &RedeemCodeResult{
				RedemptionView: newRedemptionView(out.redemption),
				Attempts:       attempt,
			}, nil
		}

		lastErr = err
		if !reward.IsRetryable(err) || attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		uc.recorder.CountRetry()
		uc.logger.Warn("retrying redemption after contention",
			zap.String("code", value),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	uc.observe(started, lastErr)
	return nil, lastErr
}

// attempt 一次完整的兌換嘗試（事務外預檢查 + 一個事務）
func (uc *RedeemCodeUseCase) attempt(ctx context.Context, value string, user reward.UserID, attempt int) (*outcome, error) {
	run := newRedemptionRun(value, user, attempt)
	now := uc.now()

	// Validating：事務外的快速拒絕，不取得任何鎖
	if err := uc.precheck(value, now); err != nil {
		return nil, uc.abort(run, err)
	}

	var out *outcome
	err := uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		var err error
		out, err = uc.redeemInTx(tx, run, value, user, now)
		return err
	})
	if err != nil {
		return nil, uc.abort(run, err)
	}

	run.advance(StageCommitted)
	uc.logger.Info("redemption committed",
		zap.String("redemption_id", out.redemption.ID().String()),
		zap.String("code", value),
		zap.String("user_id", user.String()),
		zap.String("tier", out.redemption.TierName()),
		zap.Int("rank", int(out.redemption.Rank())),
		zap.Int("attempt", attempt),
	)
	return out, nil
}

func (uc *RedeemCodeUseCase) precheck(value string, now time.Time) error {
	code, err := uc.codeRepo.FindByCode(nil, value)
	if err != nil {
		return codeLookupError(err, value)
	}
	if err := code.CheckRedeemable(now); err != nil {
		return err
	}
	if !code.HasCampaign() {
		if !uc.allowCampaignless {
			return reward.ErrNoCampaign.WithContext("code", value)
		}
		return nil
	}
	campaign, err := uc.campaignRepo.FindWithTiers(nil, code.CampaignID())
	if err != nil {
		return campaignLookupError(err, code)
	}
	return campaign.CheckRedeemable(now)
}

// redeemInTx 事務內的步驟；鎖定順序固定為 兌換碼 → 活動
func (uc *RedeemCodeUseCase) redeemInTx(
	tx shared.TransactionContext,
	run *redemptionRun,
	value string,
	user reward.UserID,
	now time.Time,
) (*outcome, error) {
	run.advance(StageLocking)
	code, err := uc.codeRepo.FindByCodeForUpdate(tx, value)
	if err != nil {
		return nil, codeLookupError(err, value)
	}
	// 鎖定後重新檢查：預檢查之後可能已被另一個事務使用
	if err := code.CheckRedeemable(now); err != nil {
		return nil, err
	}

	var (
		tier         *reward.Tier
		rank         = reward.NoRank
		distribution reward.DistributionType
	)
	if code.HasCampaign() {
		run.advance(StageAllocating)
		campaign, err := uc.campaignRepo.FindWithTiersForUpdate(tx, code.CampaignID())
		if err != nil {
			return nil, campaignLookupError(err, code)
		}
		if err := campaign.CheckRedeemable(now); err != nil {
			return nil, err
		}
		alloc, err := uc.allocate(tx, campaign)
		if err != nil {
			return nil, err
		}
		tier, rank, distribution = alloc.Tier, alloc.Rank, campaign.Distribution()
	} else if !uc.allowCampaignless {
		return nil, reward.ErrNoCampaign.WithContext("code", value)
	}

	run.advance(StagePersisting)
	if tier != nil {
		count, err := uc.campaignRepo.IncrementTierWinners(tx, tier.ID())
		if err != nil {
			return nil, err
		}
		// 計數超過上限代表快照過時，回滾後重試
		if err := tier.CheckWinnerCount(count); err != nil {
			return nil, err
		}
	}

	if err := uc.codeRepo.MarkUsed(tx, code.ID(), user, now); err != nil {
		if errors.Is(err, reward.ErrStaleCodeStatus) {
			return nil, reward.ErrCouponUsed.WithContext("code", value)
		}
		return nil, err
	}
	if err := code.MarkUsed(user, now); err != nil {
		return nil, err
	}

	redemption, err := reward.NewRedemption(code, tier, user, rank, now)
	if err != nil {
		return nil, err
	}
	if err := uc.redemptionRepo.Save(tx, redemption); err != nil {
		return nil, err
	}

	return &outcome{redemption: redemption, distribution: distribution}, nil
}

func (uc *RedeemCodeUseCase) allocate(tx shared.TransactionContext, campaign *reward.Campaign) (reward.Allocation, error) {
	strategy, err := reward.StrategyFor(campaign.Distribution(), uc.sampler)
	if err != nil {
		return reward.Allocation{}, err
	}

	var actx reward.AllocationContext
	if campaign.Distribution() == reward.DistributionSequentialRank {
		prior, err := uc.redemptionRepo.CountForCampaign(tx, campaign.ID())
		if err != nil {
			return reward.Allocation{}, err
		}
		actx.PriorRedemptions = prior
	}

	alloc, err := strategy.Allocate(campaign.Tiers(), actx)
	if errors.Is(err, reward.ErrNoTierAvailable) {
		return reward.Allocation{}, reward.ErrAllRewardsClaimed.WithContext(
			"campaign_id", campaign.ID().String(),
			"prior_redemptions", actx.PriorRedemptions,
		)
	}
	return alloc, err
}

func (uc *RedeemCodeUseCase) abort(run *redemptionRun, err error) error {
	wrapped := run.abort(err)

	fields := []zap.Field{
		zap.String("stage", string(run.failed)),
		zap.String("code", run.code),
		zap.String("user_id", run.user.String()),
		zap.Int("attempt", run.attempt),
		zap.String("error_code", outcomeLabel(err)),
		zap.Error(err),
	}
	domainErr, ok := reward.AsDomainError(err)
	switch {
	case !ok || domainErr.Kind == reward.KindInfrastructure:
		uc.logger.Error("redemption aborted", fields...)
	case domainErr.Kind == reward.KindContention:
		uc.logger.Warn("redemption aborted", fields...)
	default:
		uc.logger.Info("redemption aborted", fields...)
	}
	return wrapped
}

// publish 事務提交後發布事件；失敗只記錄
func (uc *RedeemCodeUseCase) publish(ctx context.Context, r *reward.Redemption) {
	events := r.PullEvents()
	if uc.publisher == nil || len(events) == 0 {
		return
	}
	if err := uc.publisher.PublishBatch(ctx, events); err != nil {
		uc.logger.Warn("failed to publish redemption events",
			zap.String("redemption_id", r.ID().String()),
			zap.Error(err),
		)
	}
}

func (uc *RedeemCodeUseCase) observe(started time.Time, err error) {
	uc.recorder.ObserveRedemption(outcomeLabel(err), time.Since(started))
}

func outcomeLabel(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if domainErr, ok := reward.AsDomainError(err); ok {
		return string(domainErr.Code)
	}
	return "ERROR"
}

// codeLookupError 兌換碼不存在對外回報為無效兌換碼
func codeLookupError(err error, value string) error {
	if errors.Is(err, reward.ErrUnknownCode) {
		return reward.ErrCouponInvalid.WithContext("code", value)
	}
	return err
}

// campaignLookupError 兌換碼指向的活動不存在時視為沒有活動
func campaignLookupError(err error, code *reward.Code) error {
	if errors.Is(err, reward.ErrCampaignNotFound) {
		return reward.ErrNoCampaign.WithContext(
			"code", code.Value(),
			"campaign_id", code.CampaignID().String(),
		)
	}
	return err
}
