package triallifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/trial-lifecycle/internal/cache"
	"github.com/magabrotheeeer/trial-lifecycle/internal/config"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/clock"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/jwt"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/smtp"
	"github.com/magabrotheeeer/trial-lifecycle/internal/metrics"
	"github.com/magabrotheeeer/trial-lifecycle/internal/migrations"
	"github.com/magabrotheeeer/trial-lifecycle/internal/notify"
	"github.com/magabrotheeeer/trial-lifecycle/internal/rabbitmq"
	"github.com/magabrotheeeer/trial-lifecycle/internal/registry"
	subscriptionservice "github.com/magabrotheeeer/trial-lifecycle/internal/services/subscription"
	sweeperservice "github.com/magabrotheeeer/trial-lifecycle/internal/services/sweeper"
	"github.com/magabrotheeeer/trial-lifecycle/internal/storage/repository"
)

// App связывает вместе реестр пробных периодов, планировщик проверок
// и HTTP-сервер. Жизненным циклом управляет Run.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	sweeper *sweeperservice.Service
	db      *repository.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
}

// New собирает приложение из конфигурации: хранилище (опционально),
// кэш представлений, канал доставки уведомлений, реестр, планировщик
// и HTTP-маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{logger: logger}

	var store registry.Store
	var history notify.History
	if cfg.StorageConnectionString != "" {
		db, err := repository.New(cfg.StorageConnectionString)
		if err != nil {
			return nil, err
		}
		if err = migrations.Run(db.DB, "./migrations"); err != nil {
			db.DB.Close()
			return nil, err
		}
		app.db = db
		store = db
		history = db
	} else {
		history = notify.NewMemoryHistory()
	}

	var viewCache subscriptionservice.Cache
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, err
		}
		viewCache = cacheRedis
	}

	emitter, err := app.buildEmitter(cfg, logger)
	if err != nil {
		app.close()
		return nil, err
	}

	var reg *registry.Registry
	if store != nil {
		reg, err = registry.NewWithStore(ctx, store)
		if err != nil {
			app.close()
			return nil, err
		}
	} else {
		reg = registry.New()
	}

	clk := clock.Real{}
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	sweeper := sweeperservice.New(reg, emitter, history, clk, collector,
		cfg.NotificationThresholds, cfg.SweepInterval, logger)
	app.sweeper = sweeper

	subscriptionService := subscriptionservice.New(reg, history, viewCache,
		clk, collector, cfg.TrialDuration(), logger)

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, subscriptionService, sweeper, maker)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

// buildEmitter выбирает канал доставки уведомлений по конфигурации:
// публикация в RabbitMQ либо прямая отправка по SMTP.
func (a *App) buildEmitter(cfg *config.Config, logger *slog.Logger) (notify.Emitter, error) {
	if cfg.EmitterKind == "smtp" {
		transport := smtp.NewTransport(cfg.SMTP, logger)
		return notify.NewSMTPEmitter(transport, logger), nil
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	a.conn = conn
	a.ch = ch
	return notify.NewAMQPEmitter(ch), nil
}

// Run запускает планировщик проверок и HTTP-сервер, затем дожидается
// сигнала остановки и гасит оба по порядку.
func (a *App) Run(ctx context.Context) error {
	a.sweeper.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.sweeper.Stop()
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.sweeper.Stop()
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", slog.Any("err", err))
		}
		a.ch = nil
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", slog.Any("err", err))
		}
		a.conn = nil
	}
	if a.db != nil {
		a.db.DB.Close()
		a.db = nil
	}
}
