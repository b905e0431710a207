package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/client/gamma"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/config"
	cronrunner "github.com/AndrewSerulneck/Trivia-Predictions/internal/cron"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/db"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/handler"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/logger"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/market"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/quota"
	gormrepository "github.com/AndrewSerulneck/Trivia-Predictions/internal/repository/gorm"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

const version = "1.0.0"

func main() {
	cfgPath := os.Getenv("VP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("VP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}
	if cfg.Settle.InstallProcedure {
		// Deployments without DDL rights run fine on the legacy path.
		if err := db.EnsureSettlementProcedure(dbConn); err != nil {
			logger.Warn("settlement procedure install failed", zap.Error(err))
		}
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	marketsHTTP := &http.Client{Timeout: cfg.Markets.Timeout}
	gammaClient := gamma.NewClient(marketsHTTP, cfg.Markets.BaseURL, cfg.Markets.APIKey)
	catalog := market.NewCatalog(gammaClient, logger,
		cfg.Catalog.TTL, cfg.Catalog.PageLimit, cfg.Catalog.MaxPages, cfg.Catalog.MaxRecords)

	quotaTracker := quota.NewTracker(store, cfg.Quota.PickLimitPerHour, cfg.Quota.TriviaLimitPerHour)
	pickEngine := &service.PickEngine{Repo: store, Markets: catalog, Quota: quotaTracker, Logger: logger}
	settler := &service.SettlementEngine{Repo: store, Logger: logger}
	autoSettle := &service.AutoSettleService{
		Repo:      store,
		Resolver:  catalog,
		Settler:   settler,
		Settings:  settingsSvc,
		Logger:    logger,
		Threshold: cfg.Settle.WinnerThreshold,
		ScanLimit: cfg.Settle.ScanLimit,
	}
	triviaSvc := &service.TriviaService{
		Repo:                store,
		Quota:               quotaTracker,
		Logger:              logger,
		CorrectAnswerPoints: cfg.Trivia.CorrectAnswerPoints,
		QuestionLimit:       cfg.Trivia.QuestionLimit,
	}
	leaderboardSvc := &service.LeaderboardService{Repo: store}
	notificationSvc := &service.NotificationService{Repo: store}
	adSvc := &service.AdService{Repo: store, Logger: logger}
	userSvc := &service.UserService{Repo: store, Logger: logger}
	venueSvc := &service.VenueService{Repo: store}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	(&handler.HealthHandler{DB: dbConn, Version: version}).Register(engine)
	(&handler.MarketHandler{Catalog: catalog}).Register(engine)
	(&handler.PickHandler{Repo: store, Picks: pickEngine, Quota: quotaTracker}).Register(engine)
	(&handler.TriviaHandler{Repo: store, Trivia: triviaSvc}).Register(engine)
	(&handler.LeaderboardHandler{Leaderboard: leaderboardSvc}).Register(engine)
	(&handler.VenueHandler{Venues: venueSvc, Users: userSvc}).Register(engine)
	(&handler.NotificationHandler{Repo: store, Notifications: notificationSvc}).Register(engine)
	(&handler.AdHandler{Ads: adSvc}).Register(engine)
	(&handler.AdminHandler{
		Repo:     store,
		Users:    userSvc,
		Venues:   venueSvc,
		Trivia:   triviaSvc,
		Ads:      adSvc,
		Settler:  settler,
		Settings: settingsSvc,
	}).Register(engine)
	(&handler.CronHandler{Secret: cfg.Cron.Secret, AutoSettle: autoSettle}).Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.AutoSettle, func(ctx context.Context) {
			if _, err := autoSettle.RunOnce(ctx); err != nil {
				logger.Warn("auto-settle run failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("invalid auto-settle schedule", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Cron-Secret")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
