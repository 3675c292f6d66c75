package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackyeh168/scan_rewards/src/internal/application/campaign"
	"github.com/jackyeh168/scan_rewards/src/internal/application/redemption"
	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
)

const healthTimeout = 2 * time.Second

// POST /api/v1/scan/redeem
func (s *server) redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, messageBadBody)
		return
	}

	result, err := s.Redeem.Execute(r.Context(), redemption.RedeemCodeCommand{
		Code:   req.Code,
		UserID: userFrom(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"redemption": toRedemptionResponse(result.RedemptionView),
	})
}

// GET /api/v1/codes/{code}
func (s *server) inspectCode(w http.ResponseWriter, r *http.Request) {
	result, err := s.Inspect.Execute(redemption.InspectCodeQuery{Code: chi.URLParam(r, "code")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toInspectCodeResponse(result))
}

// GET /api/v1/users/{userID}/redemptions?page=&limit=
//
// 只能查詢自己的紀錄。
func (s *server) listRedemptions(w http.ResponseWriter, r *http.Request) {
	page, errPage := queryInt(r, "page")
	limit, errLimit := queryInt(r, "limit")
	if errPage != nil || errLimit != nil {
		s.writeError(w, r, reward.ErrInvalidPagination.WithContext(
			"page", r.URL.Query().Get("page"),
			"limit", r.URL.Query().Get("limit"),
		))
		return
	}
	userID := chi.URLParam(r, "userID")
	if userID != userFrom(r.Context()) {
		writeFailure(w, http.StatusForbidden, codeForbidden, messageForbidden)
		return
	}

	result, err := s.History.Execute(redemption.ListUserRedemptionsQuery{
		UserID: userID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toRedemptionListResponse(result))
}

// POST /api/v1/admin/campaigns
func (s *server) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, messageBadBody)
		return
	}

	result, err := s.Campaigns.Execute(r.Context(), req.toCommand())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"id":         result.CampaignID,
		"tier_ids":   result.TierIDs,
		"created_at": result.CreatedAt,
	})
}

// POST /api/v1/admin/campaigns/{campaignID}/codes
//
// campaignID 為 "-" 時登錄未綁定活動的兌換碼。
func (s *server) issueCodes(w http.ResponseWriter, r *http.Request) {
	var req issueCodesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, messageBadBody)
		return
	}

	campaignID := chi.URLParam(r, "campaignID")
	if campaignID == "-" {
		campaignID = ""
	}
	result, err := s.Codes.Execute(r.Context(), campaign.IssueCodesCommand{
		CampaignID:  campaignID,
		Codes:       req.Codes,
		BatchNumber: req.BatchNumber,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"issued":       result.Issued,
		"batch_number": result.BatchNumber,
	})
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok", "service": "scan-rewards"})
}

func (s *server) healthDB(w http.ResponseWriter, r *http.Request) {
	if s.PingDB == nil {
		writeData(w, http.StatusOK, map[string]string{"status": "ok", "database": "not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.PingDB(ctx); err != nil {
		writeFailure(w, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "資料庫無法連線")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
}

// queryInt 缺少參數時返回 0（由用例套用預設值）
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
