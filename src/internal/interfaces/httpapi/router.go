package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackyeh168/scan_rewards/src/internal/application/campaign"
	"github.com/jackyeh168/scan_rewards/src/internal/application/redemption"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UserIDHeader 上游認證閘道設定的用戶身分
const UserIDHeader = "X-User-ID"

// UserRoleHeader 上游認證閘道設定的角色，管理路徑需要 RoleAdmin
const UserRoleHeader = "X-User-Role"

const RoleAdmin = "admin"

const maxBodyBytes = 1 << 20

// ===========================
// 用例介面
// ===========================

type Redeemer interface {
	Execute(ctx context.Context, cmd redemption.RedeemCodeCommand) (*redemption.RedeemCodeResult, error)
}

type CodeInspector interface {
	Execute(query redemption.InspectCodeQuery) (*redemption.InspectCodeResult, error)
}

type HistoryLister interface {
	Execute(query redemption.ListUserRedemptionsQuery) (*redemption.ListUserRedemptionsResult, error)
}

type CampaignCreator interface {
	Execute(ctx context.Context, cmd campaign.CreateCampaignCommand) (*campaign.CreateCampaignResult, error)
}

type CodeIssuer interface {
	Execute(ctx context.Context, cmd campaign.IssueCodesCommand) (*campaign.IssueCodesResult, error)
}

// Deps 路由依賴；Admin 用例為 nil 時不掛載管理路徑
type Deps struct {
	Redeem    Redeemer
	Inspect   CodeInspector
	History   HistoryLister
	Campaigns CampaignCreator
	Codes     CodeIssuer

	// PingDB 資料庫健康檢查
	PingDB func(ctx context.Context) error
	// Metrics Prometheus scrape handler
	Metrics http.Handler

	Logger *zap.Logger

	// RedeemRPS 兌換端點每秒請求上限（0 代表不限制）
	RedeemRPS float64
	// RedeemBurst 小於 1 時視為 1；config.Validate 已拒絕 RPS > 0 而 burst 為 0 的設定
	RedeemBurst int
}

type server struct {
	Deps
	logger *zap.Logger
}

// NewRouter 建立 HTTP 路由
func NewRouter(deps Deps) http.Handler {
	s := &server{Deps: deps, logger: deps.Logger}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, codeNotFound, messageNoEndpoint)
	})

	r.Get("/health", s.health)
	r.Get("/health/db", s.healthDB)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(user chi.Router) {
			user.Use(requireUser)

			var limits []func(http.Handler) http.Handler
			if s.RedeemRPS > 0 {
				limits = append(limits, rateLimit(rate.NewLimiter(rate.Limit(s.RedeemRPS), max(s.RedeemBurst, 1))))
			}
			user.With(limits...).Post("/scan/redeem", s.redeem)
			user.Get("/codes/{code}", s.inspectCode)
			user.Get("/users/{userID}/redemptions", s.listRedemptions)
		})

		if s.Campaigns != nil && s.Codes != nil {
			api.Route("/admin/campaigns", func(admin chi.Router) {
				admin.Use(requireUser, requireAdmin)
				admin.Post("/", s.createCampaign)
				admin.Post("/{campaignID}/codes", s.issueCodes)
			})
		}
	})

	return r
}
