package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/repository"
	"github.com/mamadbah2/herdbook/internal/repository/memory"
	"github.com/mamadbah2/herdbook/internal/repository/mongodb"
	"github.com/mamadbah2/herdbook/internal/repository/sheets"
	"github.com/mamadbah2/herdbook/internal/scheduler"
	"github.com/mamadbah2/herdbook/internal/server/handlers"
	"github.com/mamadbah2/herdbook/internal/server/router"
	dietsvc "github.com/mamadbah2/herdbook/internal/service/diet"
	herdsvc "github.com/mamadbah2/herdbook/internal/service/herd"
	"github.com/mamadbah2/herdbook/internal/service/notify"
	reportingsvc "github.com/mamadbah2/herdbook/internal/service/reporting"
	"github.com/mamadbah2/herdbook/internal/service/weighing"
	whatsappclient "github.com/mamadbah2/herdbook/pkg/clients/whatsapp"
	"github.com/mamadbah2/herdbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Development))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, closeStore := openStore(cfg, baseLogger)
	defer closeStore()

	var (
		sheet    sheets.Sheet
		exporter herdsvc.Exporter
	)
	if cfg.Sheets.Enabled() {
		client, err := sheets.NewClient(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets client", zap.Error(err))
		}
		sheet = client
	} else {
		baseLogger.Warn("google sheets not configured, weighing export disabled")
	}

	reportingSvc := reportingsvc.NewService(sheet, cfg.Sheets.WeighingsRange, store, baseLogger.Named("svc.reporting"))
	if sheet != nil {
		exporter = reportingSvc
	}
	herdSvc := herdsvc.NewService(store, weighing.NewSessionManager(), exporter, baseLogger.Named("svc.herd"))
	dietSvc := dietsvc.NewService(store, baseLogger.Named("svc.diet"))

	var notifier notify.Notifier
	if cfg.WhatsApp.Enabled() {
		notifier = notify.NewWhatsApp(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.Recipient, baseLogger.Named("notify.whatsapp"))
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		notifier = notify.NewLog(baseLogger.Named("notify.log"))
		baseLogger.Warn("whatsapp not configured, notifications go to the log")
	}

	sched, err := scheduler.NewScheduler(cfg.Consumption, dietSvc, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop(cfg.Server.ShutdownTimeout)

	loc, _ := cfg.Consumption.Location()
	engine := router.New(router.Handlers{
		Lots:    handlers.NewLotHandler(herdSvc, baseLogger.Named("handlers.lots")),
		Diets:   handlers.NewDietHandler(dietSvc, loc, baseLogger.Named("handlers.diets")),
		Reports: handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
		Tools:   handlers.NewToolHandler(baseLogger.Named("handlers.tools")),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
	if err := serve(ctx, srv, cfg.Server.ShutdownTimeout, baseLogger); err != nil {
		baseLogger.Error("http server stopped", zap.Error(err))
	}
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts it
// down within timeout. It returns the listener error, if any.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration, log *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var listenErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case listenErr = <-serveErr:
		if listenErr == nil {
			return nil
		}
		log.Error("http server crashed", zap.Error(listenErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	return listenErr
}

// openStore builds the configured store and returns the function that releases it.
func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, func()) {
	if cfg.Store.Backend == config.BackendMongoDB {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			log.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		return mongoRepo, func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		}
	}

	store := memory.NewStore()
	path := cfg.Store.SnapshotPath
	if path == "" {
		log.Warn("memory store without snapshot path, data is lost on exit")
		return store, func() {}
	}
	if err := store.LoadFile(path); err != nil {
		log.Fatal("failed to load store snapshot", zap.String("path", path), zap.Error(err))
	}
	log.Info("store snapshot loaded", zap.String("path", path))
	return store, func() {
		if err := store.SaveFile(path); err != nil {
			log.Error("failed to save store snapshot", zap.String("path", path), zap.Error(err))
			return
		}
		log.Info("store snapshot saved", zap.String("path", path))
	}
}
