package redemption

import (
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"github.com/shopspring/decimal"
)

// TierView 獎項快照（回應用）
type TierView struct {
	ID          string
	Name        string
	RewardType  string
	RewardValue decimal.Decimal
	RewardName  string
	ImageURL    string
}

// RedemptionView 兌換紀錄（回應用）
type RedemptionView struct {
	RedemptionID string
	CouponCode   string
	CampaignID   string // 未綁定活動時為空字串
	Tier         *TierView
	AssignedRank *int
	RankDisplay  string
	Status       string
	RedeemedAt   time.Time
}

func newRedemptionView(r *reward.Redemption) RedemptionView {
	view := RedemptionView{
		RedemptionID: r.ID().String(),
		CouponCode:   r.Code(),
		Status:       string(r.Status()),
		RedeemedAt:   r.RedeemedAt(),
	}
	if !r.CampaignID().IsEmpty() {
		view.CampaignID = r.CampaignID().String()
	}
	if r.HasTier() {
		prize := r.Prize()
		view.Tier = &TierView{
			ID:          r.TierID().String(),
			Name:        r.TierName(),
			RewardType:  string(prize.Type()),
			RewardValue: prize.Value(),
			RewardName:  prize.Name(),
			ImageURL:    r.ImageURL(),
		}
	}
	if r.Rank().IsAssigned() {
		rank := int(r.Rank())
		view.AssignedRank = &rank
		view.RankDisplay = r.Rank().Display()
	}
	return view
}

func newTierView(t *reward.Tier) TierView {
	prize := t.Reward()
	return TierView{
		ID:          t.ID().String(),
		Name:        t.Name(),
		RewardType:  string(prize.Type()),
		RewardValue: prize.Value(),
		RewardName:  prize.Name(),
		ImageURL:    t.ImageURL(),
	}
}
