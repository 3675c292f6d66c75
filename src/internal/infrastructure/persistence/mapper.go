package persistence

import (
	"fmt"
	"time"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
)

// ===========================
// Domain ↔ GORM 轉換
// ===========================
//
// toXxxModel 不會失敗；xxxToDomain 以 Reconstruct* 重建聚合，
// 資料損壞時返回 reward.ErrInvariantViolation。

func toCodeModel(c *reward.Code) *CodeModel {
	m := &CodeModel{
		ID:          c.ID().String(),
		Code:        c.Value(),
		CampaignID:  optionalID(c.CampaignID().IsEmpty(), c.CampaignID().String()),
		Status:      string(c.Status()),
		BatchNumber: c.BatchNumber(),
		ExpiresAt:   c.ExpiresAt(),
		UsedAt:      c.UsedAt(),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.CreatedAt(),
	}
	if !c.UsedBy().IsEmpty() {
		u := c.UsedBy().String()
		m.UsedBy = &u
	}
	return m
}

func codeToDomain(m *CodeModel) (*reward.Code, error) {
	id, err := reward.CodeIDFromString(m.ID)
	if err != nil {
		return nil, corrupted("code", m.ID, err)
	}
	campaignID, err := parseOptionalCampaignID(m.CampaignID)
	if err != nil {
		return nil, corrupted("code", m.ID, err)
	}
	var usedBy reward.UserID
	if m.UsedBy != nil {
		if usedBy, err = reward.NewUserID(*m.UsedBy); err != nil {
			return nil, corrupted("code", m.ID, err)
		}
	}
	return reward.ReconstructCode(
		id,
		m.Code,
		campaignID,
		reward.CodeStatus(m.Status),
		m.BatchNumber,
		m.ExpiresAt,
		usedBy,
		m.UsedAt,
		m.CreatedAt,
	)
}

func toCampaignModel(c *reward.Campaign) *CampaignModel {
	m := &CampaignModel{
		ID:           c.ID().String(),
		Name:         c.Name(),
		Description:  c.Description(),
		StartsAt:     c.StartsAt(),
		EndsAt:       c.EndsAt(),
		IsActive:     c.Active(),
		Distribution: string(c.Distribution()),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
	for _, t := range c.Tiers() {
		m.Tiers = append(m.Tiers, *toTierModel(t, c.CreatedAt()))
	}
	return m
}

func toTierModel(t *reward.Tier, at time.Time) *TierModel {
	m := &TierModel{
		ID:             t.ID().String(),
		CampaignID:     t.CampaignID().String(),
		Name:           t.Name(),
		RewardType:     string(t.Reward().Type()),
		RewardValue:    t.Reward().Value(),
		RewardName:     t.Reward().Name(),
		Weight:         t.Weight(),
		Priority:       t.Priority(),
		Position:       t.Position(),
		CurrentWinners: t.CurrentWinners(),
		ImageURL:       t.ImageURL(),
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if limit, ok := t.MaxWinners(); ok {
		m.MaxWinners = &limit
	}
	return m
}

func campaignToDomain(m *CampaignModel, tierModels []TierModel) (*reward.Campaign, error) {
	id, err := reward.CampaignIDFromString(m.ID)
	if err != nil {
		return nil, corrupted("campaign", m.ID, err)
	}
	tiers := make([]*reward.Tier, 0, len(tierModels))
	for i := range tierModels {
		tier, err := tierToDomain(&tierModels[i])
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return reward.ReconstructCampaign(
		id,
		m.Name,
		m.Description,
		m.StartsAt,
		m.EndsAt,
		m.IsActive,
		reward.DistributionType(m.Distribution),
		tiers,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func tierToDomain(m *TierModel) (*reward.Tier, error) {
	id, err := reward.TierIDFromString(m.ID)
	if err != nil {
		return nil, corrupted("tier", m.ID, err)
	}
	campaignID, err := reward.CampaignIDFromString(m.CampaignID)
	if err != nil {
		return nil, corrupted("tier", m.ID, err)
	}
	prize, err := reward.NewReward(reward.RewardType(m.RewardType), m.RewardValue, m.RewardName)
	if err != nil {
		return nil, corrupted("tier", m.ID, err)
	}
	return reward.ReconstructTier(
		id,
		campaignID,
		m.Name,
		prize,
		m.Weight,
		m.Priority,
		m.MaxWinners,
		m.CurrentWinners,
		m.ImageURL,
		m.Position,
	)
}

func toRedemptionModel(r *reward.Redemption) *RedemptionModel {
	m := &RedemptionModel{
		ID:         r.ID().String(),
		CodeID:     r.CodeID().String(),
		Code:       r.Code(),
		CampaignID: optionalID(r.CampaignID().IsEmpty(), r.CampaignID().String()),
		TierID:     optionalID(r.TierID().IsEmpty(), r.TierID().String()),
		TierName:   r.TierName(),
		UserID:     r.UserID().String(),
		PrizeType:  string(r.Prize().Type()),
		PrizeValue: r.Prize().Value(),
		PrizeName:  r.Prize().Name(),
		ImageURL:   r.ImageURL(),
		Status:     string(r.Status()),
		RedeemedAt: r.RedeemedAt(),
	}
	if r.Rank().IsAssigned() {
		rank := int(r.Rank())
		m.AssignedRank = &rank
	}
	return m
}

func redemptionToDomain(m *RedemptionModel) (*reward.Redemption, error) {
	id, err := reward.RedemptionIDFromString(m.ID)
	if err != nil {
		return nil, corrupted("redemption", m.ID, err)
	}
	codeID, err := reward.CodeIDFromString(m.CodeID)
	if err != nil {
		return nil, corrupted("redemption", m.ID, err)
	}
	campaignID, err := parseOptionalCampaignID(m.CampaignID)
	if err != nil {
		return nil, corrupted("redemption", m.ID, err)
	}
	var tierID reward.TierID
	if m.TierID != nil {
		if tierID, err = reward.TierIDFromString(*m.TierID); err != nil {
			return nil, corrupted("redemption", m.ID, err)
		}
	}
	userID, err := reward.NewUserID(m.UserID)
	if err != nil {
		return nil, corrupted("redemption", m.ID, err)
	}
	var prize reward.Reward
	if m.PrizeType != "" {
		if prize, err = reward.NewReward(reward.RewardType(m.PrizeType), m.PrizeValue, m.PrizeName); err != nil {
			return nil, corrupted("redemption", m.ID, err)
		}
	}
	rank := reward.NoRank
	if m.AssignedRank != nil {
		rank = reward.Rank(*m.AssignedRank)
	}
	return reward.ReconstructRedemption(
		id,
		codeID,
		m.Code,
		campaignID,
		tierID,
		m.TierName,
		userID,
		prize,
		m.ImageURL,
		rank,
		reward.RedemptionStatus(m.Status),
		m.RedeemedAt,
	)
}

// ===========================
// 私有輔助函數
// ===========================

func optionalID(empty bool, value string) *string {
	if empty {
		return nil
	}
	return &value
}

func parseOptionalCampaignID(s *string) (reward.CampaignID, error) {
	if s == nil || *s == "" {
		return reward.CampaignID{}, nil
	}
	return reward.CampaignIDFromString(*s)
}

func corrupted(entity, id string, cause error) error {
	return reward.ErrInvariantViolation.WithContext(
		"entity", entity,
		"id", id,
		"cause", fmt.Sprint(cause),
	)
}
