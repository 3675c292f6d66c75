package logging

import (
	"context"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
	"go.uber.org/zap"
)

// EventPublisher 把領域事件寫入結構化日誌
//
// 通知推播不在本服務範圍內；下游由日誌管線收集 reward.redemption_completed。
type EventPublisher struct {
	logger *zap.Logger
}

func NewEventPublisher(logger *zap.Logger) *EventPublisher {
	return &EventPublisher{logger: logger.Named("events")}
}

func (p *EventPublisher) Publish(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	if e, ok := event.(*reward.RedemptionCompletedEvent); ok {
		fields = append(fields,
			zap.String("user_id", e.UserID().String()),
			zap.String("code", e.Code()),
		)
		if !e.CampaignID().IsEmpty() {
			fields = append(fields, zap.String("campaign_id", e.CampaignID().String()))
		}
		if !e.TierID().IsEmpty() {
			fields = append(fields, zap.String("tier_id", e.TierID().String()))
		}
		if e.Rank().IsAssigned() {
			fields = append(fields, zap.Int("rank", int(e.Rank())))
		}
	}
	p.logger.Info("domain event", fields...)
	return nil
}

func (p *EventPublisher) PublishBatch(ctx context.Context, events []shared.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
