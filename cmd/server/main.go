package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"brevio/web/internal/config"
	"brevio/web/internal/db"
	"brevio/web/internal/handler"
	transport "brevio/web/internal/http"
	"brevio/web/internal/logger"
	"brevio/web/internal/network"
	"brevio/web/internal/repository"
	"brevio/web/internal/scheduler"
	"brevio/web/internal/service"
	"brevio/web/internal/snowflake"
	"brevio/web/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "module", "server", "action", "run", "resource", "process", "result", "failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := snowflake.Init(cfg.NodeID); err != nil {
		return err
	}

	var (
		slots    store.Provider
		dbConn   *sql.DB
		slotRepo repository.SlotRepository
	)
	switch cfg.SlotBackend {
	case config.SlotBackendCookie:
		slots = store.CookieProvider{Secure: cfg.CookieSecure}
	default:
		dbConn, err = db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer dbConn.Close()
		slotRepo = repository.NewSlotRepository(dbConn)
		slots = store.NewSessionProvider(slotRepo, cfg.CookieSecure)
	}

	clients, err := network.NewClientFactory(cfg.ProxyURL)
	if err != nil {
		return err
	}
	rateLimiter := service.NewRateLimiter(cfg.APIRateLimit)
	summaryService := service.NewSummaryService(service.SummaryServiceConfig{
		Endpoint:  cfg.APIURL,
		Timeout:   cfg.APITimeout,
		UserAgent: config.BrevioUserAgent,
	}, clients, rateLimiter)

	pageHandler := handler.NewPageHandler(summaryService, slots)
	summaryHandler := handler.NewSummaryHandler(summaryService, slots)
	router := transport.NewRouter(pageHandler, summaryHandler, cfg.StaticDir)

	if slotRepo != nil {
		sched := scheduler.New(service.NewSlotService(slotRepo), cfg.PurgeInterval)
		sched.Start()
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "module", "server", "action", "start", "resource", "http", "result", "ok",
			"addr", cfg.Addr, "slot_backend", cfg.SlotBackend, "api_url", cfg.APIURL,
			"api_qps", rateLimiter.Limit(), "proxy", clients.ProxyURL() != "")
		if err := router.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "module", "server", "action", "stop", "resource", "http", "result", "ok")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return router.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
