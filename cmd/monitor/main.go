package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"basismon/internal/analytics"
	"basismon/internal/cache"
	"basismon/internal/client/bybit"
	"basismon/internal/config"
	cronrunner "basismon/internal/cron"
	"basismon/internal/db"
	"basismon/internal/handler"
	"basismon/internal/logger"
	"basismon/internal/market"
	"basismon/internal/monitor"
	"basismon/internal/notify"
	gormrepository "basismon/internal/repository/gorm"
	"basismon/internal/service"
	"basismon/internal/settings"

	_ "basismon/docs"
)

func main() {
	cfgPath := os.Getenv("BM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("BM_ENV_ONLY"); envOnlyRaw != "" {
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

	store := gormrepository.New(dbConn.Gorm)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settingsSvc := &settings.Service{
		Repo:   store,
		Logger: logger,
		Defaults: settings.Runtime{
			SpreadThresholdPercent:    cfg.Settings.SpreadThresholdPercent,
			FundingRateHistoryDays:    cfg.Settings.FundingRateHistoryDays,
			MonitoringIntervalSeconds: cfg.Settings.MonitoringIntervalSecs,
			ReturnOnCapitalThreshold:  cfg.Settings.ReturnOnCapitalThreshold,
			AlertsEnabled:             cfg.Settings.AlertsEnabled,
			CapitalUSDT:               cfg.Settings.CapitalUSDT,
			Leverage:                  cfg.Settings.Leverage,
			RiskFreeRate:              cfg.Settings.RiskFreeRate,
		},
	}
	if err := settingsSvc.EnsureDefaults(ctx); err != nil {
		logger.Warn("seed default settings failed", zap.Error(err))
	}
	if err := settingsSvc.Load(ctx); err != nil {
		logger.Warn("load runtime settings failed", zap.Error(err))
	}

	assets := monitoredAssets(cfg.Monitor.Assets)
	if len(assets) == 0 {
		logger.Fatal("no assets configured")
	}

	bybitClient := bybit.NewClient(cfg.Bybit)
	snapshots := market.NewSnapshotCache()
	funding := market.NewFundingRateHistory()

	engine := &analytics.Engine{
		Cache:              snapshots,
		Funding:            funding,
		StalenessTolerance: cfg.Monitor.StalenessTolerance,
		ExpiryGrace:        cfg.Monitor.ExpiryGrace,
	}

	hub := monitor.NewHub(cfg.Monitor.SubscriberBuffer)
	views := cache.New(cfg.ViewCache)

	broadcaster := &monitor.Broadcaster{
		Engine:    engine,
		Assets:    assets,
		Settings:  settingsSvc,
		Hub:       hub,
		Views:     views,
		KeyPrefix: cfg.ViewCache.KeyPrefix,
		Logger:    logger,
	}

	telegram := notify.NewTelegramSender(cfg.Telegram)
	if !telegram.Enabled() {
		logger.Info("telegram sender disabled, alerts will not be delivered")
	}
	alerts := &monitor.ROCAlertService{
		Repo:     store,
		Sender:   telegram,
		Settings: settingsSvc,
		Hub:      hub,
		Cooldown: time.Duration(cfg.Telegram.CooldownSeconds) * time.Second,
		Logger:   logger,
	}

	ingest := &service.MarketIngestService{
		Exchange: bybitClient,
		Assets:   assets,
		Cache:    snapshots,
		Funding:  funding,
		Settings: settingsSvc,
		Logger:   logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Broadcaster: broadcaster}
	healthHandler.Register(router)
	instrumentsHandler := &handler.InstrumentsHandler{
		Broadcaster: broadcaster,
		Engine:      engine,
		Settings:    settingsSvc,
		Assets:      assets,
		Views:       views,
		KeyPrefix:   cfg.ViewCache.KeyPrefix,
		Logger:      logger,
	}
	instrumentsHandler.Register(router)
	configHandler := &handler.ConfigHandler{Settings: settingsSvc, Logger: logger}
	configHandler.Register(router)
	alertsHandler := &handler.AlertsHandler{Repo: store}
	alertsHandler.Register(router)
	streamHandler := &handler.StreamHandler{Hub: hub, Broadcaster: broadcaster, Logger: logger}
	streamHandler.Register(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		if _, err := cronRunner.Add(cfg.Cron.FundingPrune, "funding_prune", func(ctx context.Context) error {
			if n := funding.Prune(time.Now().UTC()); n > 0 {
				logger.Info("pruned funding samples", zap.Int("count", n))
			}
			return nil
		}); err != nil {
			logger.Warn("cron register funding prune failed", zap.Error(err))
		}
		if _, err := cronRunner.Add(cfg.Cron.FundingBackfill, "funding_backfill", func(ctx context.Context) error {
			ingest.Backfill(ctx)
			return nil
		}); err != nil {
			logger.Warn("cron register funding backfill failed", zap.Error(err))
		}
		if _, err := cronRunner.Add(cfg.Cron.AlertCleanup, "alert_cleanup", func(ctx context.Context) error {
			before := time.Now().UTC().AddDate(0, 0, -90)
			n, err := store.DeleteAlertEventsBefore(ctx, before)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("deleted old alert events", zap.Int64("count", n))
			}
			return nil
		}); err != nil {
			logger.Warn("cron register alert cleanup failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	go func() {
		if err := ingest.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("market ingest stopped", zap.Error(err))
		}
	}()

	if cfg.Bybit.UseWebSocket {
		tickerStream := &service.TickerStreamService{
			Cfg:        cfg.Bybit,
			Instrument: bybitClient,
			Assets:     assets,
			Cache:      snapshots,
			Logger:     logger,
		}
		go func() {
			if err := tickerStream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("ticker stream stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := broadcaster.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("broadcaster stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := alerts.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("roc alert service stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 2)

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
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func monitoredAssets(items []config.AssetConfig) []market.Asset {
	out := make([]market.Asset, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		perp := strings.TrimSpace(item.PerpetualSymbol)
		if perp == "" {
			perp = name + "USDT"
		}
		spot := strings.TrimSpace(item.SpotSymbol)
		if spot == "" {
			spot = perp
		}
		out = append(out, market.Asset{
			Name:            name,
			PerpetualSymbol: perp,
			SpotSymbol:      spot,
		})
	}
	return out
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
