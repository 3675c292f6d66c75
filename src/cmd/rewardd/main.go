package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"gorm.io/gorm"

	"github.com/jackyeh168/scan_rewards/src/internal/application/campaign"
	"github.com/jackyeh168/scan_rewards/src/internal/application/redemption"
	"github.com/jackyeh168/scan_rewards/src/internal/infrastructure/config"
	"github.com/jackyeh168/scan_rewards/src/internal/infrastructure/logging"
	"github.com/jackyeh168/scan_rewards/src/internal/infrastructure/metrics"
	"github.com/jackyeh168/scan_rewards/src/internal/infrastructure/persistence"
	"github.com/jackyeh168/scan_rewards/src/internal/interfaces/httpapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rewardd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 設定與日誌
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// 資料庫
	db, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := persistence.Close(db); err != nil {
			logger.Warn("error closing database", zap.Error(err))
		}
	}()
	if err := persistence.AutoMigrate(db); err != nil {
		return err
	}

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Handler: h2c.NewHandler(newHandler(cfg, db, logger), &http2.Server{
			MaxConcurrentStreams: 1000,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting scan reward service",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("db_driver", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server exited gracefully")
	return nil
}

// newHandler 組裝 repository、用例與路由
func newHandler(cfg *config.Config, db *gorm.DB, logger *zap.Logger) http.Handler {
	codes := persistence.NewCodeRepository(db)
	campaigns := persistence.NewCampaignRepository(db)
	redemptions := persistence.NewRedemptionRepository(db)
	txManager := persistence.NewGORMTransactionManager(db, cfg.Engine.LockTimeout)
	now := func() time.Time { return time.Now().UTC() }

	redeem := redemption.NewRedeemCodeUseCase(codes, campaigns, redemptions, txManager,
		redemption.WithLogger(logger.Named("redemption")),
		redemption.WithRecorder(metrics.NewRecorder(prometheus.DefaultRegisterer)),
		redemption.WithEventPublisher(logging.NewEventPublisher(logger.Named("events"))),
		redemption.WithClock(now),
		redemption.WithContentionRetries(cfg.Engine.ContentionRetries),
		redemption.WithCampaignlessCodes(cfg.Engine.AllowCampaignless),
	)

	return httpapi.NewRouter(httpapi.Deps{
		Redeem:      redeem,
		Inspect:     redemption.NewInspectCodeUseCase(codes, campaigns, now, cfg.Engine.AllowCampaignless),
		History:     redemption.NewListUserRedemptionsUseCase(redemptions),
		Campaigns:   campaign.NewCreateCampaignUseCase(campaigns, txManager, now),
		Codes:       campaign.NewIssueCodesUseCase(codes, campaigns, txManager, now),
		PingDB:      func(ctx context.Context) error { return persistence.Ping(ctx, db) },
		Metrics:     promhttp.Handler(),
		Logger:      logger.Named("http"),
		RedeemRPS:   cfg.Server.RateLimitRPS,
		RedeemBurst: cfg.Server.RateLimitBurst,
	})
}
