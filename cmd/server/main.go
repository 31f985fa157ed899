package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/config"
	"github.com/mamadbah2/stockledger/internal/repository/mongodb"
	"github.com/mamadbah2/stockledger/internal/repository/postgres"
	"github.com/mamadbah2/stockledger/internal/repository/sheets"
	"github.com/mamadbah2/stockledger/internal/scheduler"
	"github.com/mamadbah2/stockledger/internal/server/handlers"
	"github.com/mamadbah2/stockledger/internal/server/router"
	commandsvc "github.com/mamadbah2/stockledger/internal/service/commands"
	planningsvc "github.com/mamadbah2/stockledger/internal/service/planning"
	whatsappsvc "github.com/mamadbah2/stockledger/internal/service/whatsapp"
	"github.com/mamadbah2/stockledger/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/stockledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Logger.Level, cfg.Logger.Encoding))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	policy, items, err := config.LoadPolicy(cfg.Engine)
	if err != nil {
		baseLogger.Fatal("failed to load engine policy", zap.Error(err))
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	deps := planningsvc.Dependencies{
		Ranges: cfg.Sheets,
		Policy: policy,
		Keys:   items,
		Logger: baseLogger.Named("svc.planning"),
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		deps.Sheets = sheetsRepo
	} else {
		baseLogger.Warn("GOOGLE_SHEET_ID missing, ledger rebuilds disabled")
	}

	if cfg.Postgres.DSN != "" {
		pgRepo, err := postgres.Connect(startupCtx, cfg.Postgres.DSN, baseLogger.Named("repo.postgres"))
		if err != nil {
			baseLogger.Fatal("failed to init postgres repository", zap.Error(err))
		}
		defer func() {
			if err := pgRepo.Close(); err != nil {
				baseLogger.Error("failed to close postgres connection", zap.Error(err))
			}
		}()
		deps.Store = pgRepo
	}

	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		deps.History = mongoRepo
	}

	planner := planningsvc.NewService(deps)
	if err := planner.Warm(startupCtx); err != nil {
		baseLogger.Error("failed to warm ledger view", zap.Error(err))
	}

	commandDispatcher := commandsvc.NewService(planner, baseLogger.Named("svc.commands"))

	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey, cfg.AI.Model)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, free-text questions disabled")
	}

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(whatsappclient.Settings{
			BaseURL:       cfg.WhatsApp.BaseURL,
			APIVersion:    cfg.WhatsApp.APIVersion,
			AccessToken:   cfg.WhatsApp.AccessToken,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		})
	}

	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, aiClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
	webhookHandler := handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	planningHandler := handlers.NewPlanningHandler(planner, baseLogger.Named("handlers.planning"))
	engine := router.New(webhookHandler, planningHandler, baseLogger.Named("router"))

	var digestSender scheduler.DigestSender
	if cfg.WhatsApp.Enabled() {
		digestSender = messagingSvc
	}
	sched := scheduler.NewScheduler(cfg.Reporting, planner, digestSender, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
