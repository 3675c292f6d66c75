package httpapi

import (
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/application/campaign"
	"github.com/jackyeh168/scan_rewards/src/internal/application/redemption"
	"github.com/shopspring/decimal"
)

// ===========================
// 請求
// ===========================

type redeemRequest struct {
	Code string `json:"code"`
}

type tierRequest struct {
	Name        string  `json:"name"`
	RewardType  string  `json:"reward_type"`
	RewardValue string  `json:"reward_value"`
	RewardName  string  `json:"reward_name"`
	Weight      float64 `json:"weight"`
	Priority    int     `json:"priority"`
	MaxWinners  *int    `json:"max_winners"`
	ImageURL    string  `json:"image_url"`
}

type createCampaignRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	StartsAt     time.Time     `json:"start_date"`
	EndsAt       time.Time     `json:"end_date"`
	Active       bool          `json:"is_active"`
	Distribution string        `json:"distribution_type"`
	Tiers        []tierRequest `json:"tiers"`
}

func (req createCampaignRequest) toCommand() campaign.CreateCampaignCommand {
	cmd := campaign.CreateCampaignCommand{
		Name:         req.Name,
		Description:  req.Description,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Active:       req.Active,
		Distribution: req.Distribution,
		Tiers:        make([]campaign.TierInput, 0, len(req.Tiers)),
	}
	for _, t := range req.Tiers {
		cmd.Tiers = append(cmd.Tiers, campaign.TierInput{
			Name:        t.Name,
			RewardType:  t.RewardType,
			RewardValue: t.RewardValue,
			RewardName:  t.RewardName,
			Weight:      t.Weight,
			Priority:    t.Priority,
			MaxWinners:  t.MaxWinners,
			ImageURL:    t.ImageURL,
		})
	}
	return cmd
}

type issueCodesRequest struct {
	Codes       []string   `json:"codes"`
	BatchNumber string     `json:"batch_number"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// ===========================
// 回應
// ===========================

type prizeResponse struct {
	TierID   string          `json:"tier_id"`
	TierName string          `json:"tier_name"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Value    decimal.Decimal `json:"value"`
	ImageURL string          `json:"image_url,omitempty"`
}

type redemptionResponse struct {
	ID           string         `json:"id"`
	CouponCode   string         `json:"coupon_code"`
	CampaignID   string         `json:"campaign_id,omitempty"`
	Prize        *prizeResponse `json:"prize"`
	Status       string         `json:"status"`
	AssignedRank *int           `json:"assigned_rank"`
	RankDisplay  string         `json:"rank_display,omitempty"`
	RedeemedAt   time.Time      `json:"redeemed_at"`
}

func toRedemptionResponse(v redemption.RedemptionView) redemptionResponse {
	resp := redemptionResponse{
		ID:           v.RedemptionID,
		CouponCode:   v.CouponCode,
		CampaignID:   v.CampaignID,
		Status:       v.Status,
		AssignedRank: v.AssignedRank,
		RankDisplay:  v.RankDisplay,
		RedeemedAt:   v.RedeemedAt,
	}
	if v.Tier != nil {
		resp.Prize = toPrizeResponse(*v.Tier)
	}
	return resp
}

func toPrizeResponse(t redemption.TierView) *prizeResponse {
	return &prizeResponse{
		TierID:   t.ID,
		TierName: t.Name,
		Name:     t.RewardName,
		Type:     t.RewardType,
		Value:    t.RewardValue,
		ImageURL: t.ImageURL,
	}
}

type tierAvailabilityResponse struct {
	prizeResponse
	MaxWinners *int `json:"max_winners"`
	Remaining  *int `json:"remaining"`
}

type campaignSummaryResponse struct {
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	Description  string                     `json:"description,omitempty"`
	Distribution string                     `json:"distribution_type"`
	StartsAt     time.Time                  `json:"start_date"`
	EndsAt       time.Time                  `json:"end_date"`
	Tiers        []tierAvailabilityResponse `json:"tiers"`
}

type inspectCodeResponse struct {
	Code      string                   `json:"code"`
	Valid     bool                     `json:"valid"`
	ExpiresAt *time.Time               `json:"expires_at,omitempty"`
	Campaign  *campaignSummaryResponse `json:"campaign"`
}

func toInspectCodeResponse(result *redemption.InspectCodeResult) inspectCodeResponse {
	resp := inspectCodeResponse{
		Code:      result.Code,
		Valid:     true,
		ExpiresAt: result.ExpiresAt,
	}
	if c := result.Campaign; c != nil {
		summary := &campaignSummaryResponse{
			ID:           c.ID,
			Name:         c.Name,
			Description:  c.Description,
			Distribution: c.Distribution,
			StartsAt:     c.StartsAt,
			EndsAt:       c.EndsAt,
			Tiers:        make([]tierAvailabilityResponse, 0, len(c.Tiers)),
		}
		for _, t := range c.Tiers {
			summary.Tiers = append(summary.Tiers, tierAvailabilityResponse{
				prizeResponse: *toPrizeResponse(t.TierView),
				MaxWinners:    t.MaxWinners,
				Remaining:     t.Remaining,
			})
		}
		resp.Campaign = summary
	}
	return resp
}

type paginationResponse struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type redemptionListResponse struct {
	Items      []redemptionResponse `json:"items"`
	Pagination paginationResponse   `json:"pagination"`
}

func toRedemptionListResponse(result *redemption.ListUserRedemptionsResult) redemptionListResponse {
	resp := redemptionListResponse{
		Items: make([]redemptionResponse, 0, len(result.Items)),
		Pagination: paginationResponse{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, toRedemptionResponse(item))
	}
	return resp
}
