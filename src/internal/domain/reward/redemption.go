package reward

import (
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/shared"
)

// ===========================
// Redemption - 兌換紀錄聚合根
// ===========================

// Redemption 一次成功兌換的不可變紀錄
//
// 獎品內容在兌換當下快照（prize），之後修改獎項不影響此紀錄。
// 只有依序排名活動有名次；隨機抽獎活動與未綁定活動的兌換為 NoRank。
type Redemption struct {
	id         RedemptionID
	codeID     CodeID
	code       string
	campaignID CampaignID // 零值：未綁定活動
	tierID     TierID     // 零值：沒有分配獎項
	tierName   string
	userID     UserID
	prize      Reward
	imageURL   string
	rank       Rank
	status     RedemptionStatus
	redeemedAt time.Time

	events []shared.DomainEvent
}

// NewRedemption 建立兌換紀錄（狀態 PENDING_VERIFICATION）並記錄完成事件
//
// tier 可為 nil（未綁定活動的真偽驗證兌換）。
func NewRedemption(code *Code, tier *Tier, user UserID, rank Rank, at time.Time) (*Redemption, error) {
	if code == nil {
		return nil, ErrInvalidCodeValue.WithContext("reason", "code is required")
	}
	if user.IsEmpty() {
		return nil, ErrInvalidUserID.WithContext("reason", "empty user id")
	}
	if rank < 0 {
		return nil, ErrInvariantViolation.WithContext("reason", "negative rank", "rank", int(rank))
	}

	r := &Redemption{
		id:         NewRedemptionID(),
		codeID:     code.ID(),
		code:       code.Value(),
		campaignID: code.CampaignID(),
		userID:     user,
		rank:       rank,
		status:     RedemptionStatusPendingVerification,
		redeemedAt: at,
		events:     make([]shared.DomainEvent, 0, 1),
	}
	if tier != nil {
		r.tierID = tier.ID()
		r.tierName = tier.Name()
		r.prize = tier.Reward()
		r.imageURL = tier.ImageURL()
	}

	r.addEvent(NewRedemptionCompletedEvent(r))
	return r, nil
}

// ReconstructRedemption 從持久化資料重建兌換紀錄（不產生事件）
func ReconstructRedemption(
	id RedemptionID,
	codeID CodeID,
	code string,
	campaignID CampaignID,
	tierID TierID,
	tierName string,
	userID UserID,
	prize Reward,
	imageURL string,
	rank Rank,
	status RedemptionStatus,
	redeemedAt time.Time,
) (*Redemption, error) {
	if id.IsEmpty() || codeID.IsEmpty() || userID.IsEmpty() {
		return nil, ErrInvariantViolation.WithContext("entity", "redemption", "redemption_id", id.String())
	}
	if !status.IsValid() {
		return nil, ErrInvariantViolation.WithContext("redemption_id", id.String(), "status", string(status))
	}
	if rank < 0 {
		return nil, ErrInvariantViolation.WithContext("redemption_id", id.String(), "rank", int(rank))
	}
	return &Redemption{
		id:         id,
		codeID:     codeID,
		code:       code,
		campaignID: campaignID,
		tierID:     tierID,
		tierName:   tierName,
		userID:     userID,
		prize:      prize,
		imageURL:   imageURL,
		rank:       rank,
		status:     status,
		redeemedAt: redeemedAt,
	}, nil
}

func (r *Redemption) addEvent(event shared.DomainEvent) {
	r.events = append(r.events, event)
}

// PullEvents 取出待發布事件並清空（事務提交後由應用層發布）
func (r *Redemption) PullEvents() []shared.DomainEvent {
	events := r.events
	r.events = nil
	return events
}

func (r *Redemption) ID() RedemptionID {
	return r.id
}

func (r *Redemption) CodeID() CodeID {
	return r.codeID
}

func (r *Redemption) Code() string {
	return r.code
}

func (r *Redemption) CampaignID() CampaignID {
	return r.campaignID
}

func (r *Redemption) TierID() TierID {
	return r.tierID
}

func (r *Redemption) TierName() string {
	return r.tierName
}

// HasTier 是否分配到獎項
func (r *Redemption) HasTier() bool {
	return !r.tierID.IsEmpty()
}

func (r *Redemption) UserID() UserID {
	return r.userID
}

func (r *Redemption) Prize() Reward {
	return r.prize
}

func (r *Redemption) ImageURL() string {
	return r.imageURL
}

func (r *Redemption) Rank() Rank {
	return r.rank
}

func (r *Redemption) Status() RedemptionStatus {
	return r.status
}

func (r *Redemption) RedeemedAt() time.Time {
	return r.redeemedAt
}
