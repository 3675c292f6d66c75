package reward

import (
	"time"

	"github.com/google/uuid"
)

// EventTypeRedemptionCompleted 兌換完成事件類型
const EventTypeRedemptionCompleted = "reward.redemption_completed"

// RedemptionCompletedEvent 兌換完成事件
//
// 只在兌換事務提交後發布；下游（通知、報表）自行訂閱。
type RedemptionCompletedEvent struct {
	eventID      string
	redemptionID RedemptionID
	campaignID   CampaignID
	tierID       TierID
	userID       UserID
	code         string
	rank         Rank
	occurredAt   time.Time
}

func NewRedemptionCompletedEvent(r *Redemption) *RedemptionCompletedEvent {
	return &RedemptionCompletedEvent{
		eventID:      uuid.New().String(),
		redemptionID: r.id,
		campaignID:   r.campaignID,
		tierID:       r.tierID,
		userID:       r.userID,
		code:         r.code,
		rank:         r.rank,
		occurredAt:   r.redeemedAt,
	}
}

func (e *RedemptionCompletedEvent) EventID() string {
	return e.eventID
}

func (e *RedemptionCompletedEvent) EventType() string {
	return EventTypeRedemptionCompleted
}

func (e *RedemptionCompletedEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e *RedemptionCompletedEvent) AggregateID() string {
	return e.redemptionID.String()
}

func (e *RedemptionCompletedEvent) RedemptionID() RedemptionID {
	return e.redemptionID
}

func (e *RedemptionCompletedEvent) CampaignID() CampaignID {
	return e.campaignID
}

func (e *RedemptionCompletedEvent) TierID() TierID {
	return e.tierID
}

func (e *RedemptionCompletedEvent) UserID() UserID {
	return e.userID
}

func (e *RedemptionCompletedEvent) Code() string {
	return e.code
}

func (e *RedemptionCompletedEvent) Rank() Rank {
	return e.rank
}
