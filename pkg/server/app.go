package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"tradehits/internal/domain/repository"
	"tradehits/internal/handler/api"
	internalrepo "tradehits/internal/repository"
	icache "tradehits/internal/service/cache"
	"tradehits/internal/usecase"
	pkgch "tradehits/pkg/clickhouse"
	"tradehits/pkg/config"
	xhttp "tradehits/pkg/http"
	pkgkafka "tradehits/pkg/kafka"
	applogger "tradehits/pkg/logger"
	pkgqueue "tradehits/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.SnapshotCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	storage     repository.Storage
	refresher   *usecase.OpportunityRefresher
	queue       *pkgqueue.RedisQueue
	SnapProc    *usecase.SnapshotProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.SnapshotCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetStorage injects the warehouse storage used by read endpoints.
func (a *App) SetStorage(s repository.Storage) { a.storage = s }

// SetRefresher injects the opportunity refresher.
func (a *App) SetRefresher(r *usecase.OpportunityRefresher) { a.refresher = r }

// SetQueue injects the refresh job queue.
func (a *App) SetQueue(q *pkgqueue.RedisQueue) { a.queue = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	var cachedAPI *api.SignalsHandler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.chClient != nil {
		store := internalrepo.NewCHSnapshotStore(a.chClient)
		store.SetLogger(l)
		eng := usecase.NewSignalEngine(store)
		fused := usecase.NewFusedSignalsUseCase(eng)
		snaps := usecase.NewSnapshotsUseCase(store)

		se := api.NewSignalsEchoHandler(l, eng, fused, snaps, a.storage, a.refresher)
		httpHandler = se

		// Cached, rate-limited read surface mounted under /v1
		cachedAPI = api.NewSignalsHandler(eng, fused, a.storage, a.refresher)
		cachedAPI.SetLogger(l)
		if a.cfg.Engine.Redis.Enabled {
			cachedAPI.SetCache(icache.NewRedisCache(icache.RedisConfig{
				Addr:     a.cfg.Engine.Redis.Addr,
				Password: a.cfg.Engine.Redis.Password,
				DB:       a.cfg.Engine.Redis.DB,
			}))
		} else {
			cachedAPI.SetCache(icache.NewTTLCache())
		}
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if cachedAPI != nil {
		e := a.httpServer.Echo()
		e.GET("/v1/score", echo.WrapHandler(cachedAPI.Score()))
		e.GET("/v1/fused", echo.WrapHandler(cachedAPI.Fused()))
		e.GET("/v1/crossovers", echo.WrapHandler(cachedAPI.Crossovers()))
		e.GET("/v1/opportunities", echo.WrapHandler(cachedAPI.Opportunities()))
	}

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Feed.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start opportunity refresher
	if a.refresher != nil {
		a.refresher.Start(ctx)
		l.Info("opportunity refresher started")
	}

	// Start refresh job queue if configured
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Warn("refresh queue start error", applogger.Error(err))
		} else {
			l.Info("refresh queue started")
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop refresher loop
	if a.refresher != nil {
		a.refresher.Stop()
	}

	// Stop refresh queue
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			l.Warn("refresh queue stop error", applogger.Error(err))
		}
	}

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close snapshot processor resources (publisher/storage)
	if a.SnapProc != nil {
		a.SnapProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
