package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/niksmo/home-catalog/config"
	"github.com/niksmo/home-catalog/internal/adapter"
	"github.com/niksmo/home-catalog/internal/adapter/cache"
	"github.com/niksmo/home-catalog/internal/adapter/httphandler"
	"github.com/niksmo/home-catalog/internal/adapter/kafka"
	"github.com/niksmo/home-catalog/internal/adapter/metrics"
	"github.com/niksmo/home-catalog/internal/adapter/mongodb"
	"github.com/niksmo/home-catalog/internal/adapter/postgresql"
	"github.com/niksmo/home-catalog/internal/core/port"
	"github.com/niksmo/home-catalog/internal/core/service"
	"github.com/niksmo/home-catalog/pkg/retry"
	"github.com/niksmo/home-catalog/pkg/schema"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

// Connectivity checks at startup only. Request-time queries never retry.
var startupRetry = retry.RetryConfig{
	MaxAttempts: 5,
	Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	ShouldRetry: func(err error) bool {
		return !errors.Is(err, context.Canceled)
	},
}

type App struct {
	ctx           context.Context
	cfg           config.Config
	metrics       *metrics.Metrics
	storage       port.CatalogStorage
	cache         *cache.HomeCache
	service       service.Service
	consumer      *kafka.HomeInvalidatorConsumer
	consumerWG    sync.WaitGroup
	httpServer    httphandler.HTTPServer
	metricsServer *httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg, metrics: metrics.New()}

	app.initLogger()
	app.initStorage()
	app.initCache()
	app.initCoreService()
	app.initConsumer()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	var (
		s   port.CatalogStorage
		err error
	)
	switch app.cfg.Storage.Driver {
	case config.DriverMongoDB:
		m := app.cfg.Storage.MongoDB
		s, err = retry.DoWithResult(app.ctx, startupRetry,
			func() (port.CatalogStorage, error) {
				return mongodb.Connect(app.ctx, m.URI, m.Database, m.Collection)
			},
		)
	case config.DriverPostgreSQL:
		dsn := app.cfg.Storage.PostgreSQL.DSN
		s, err = retry.DoWithResult(app.ctx, startupRetry,
			func() (port.CatalogStorage, error) {
				return postgresql.Connect(app.ctx, dsn)
			},
		)
	default:
		err = fmt.Errorf("unknown storage driver %q", app.cfg.Storage.Driver)
	}
	if err != nil {
		app.fallDown(op, err)
	}

	app.storage = app.metrics.WrapStorage(s)
}

func (app *App) initCache() {
	const op = "App.initCache"

	if !app.cfg.CacheEnabled() {
		slog.Info("home cache is disabled", "op", op)
		return
	}

	c := app.cfg.Cache
	cl, err := retry.DoWithResult(app.ctx, startupRetry,
		func() (*redis.Client, error) {
			return cache.NewRedisClient(app.ctx, c.RedisAddr, c.Password, c.DB)
		},
	)
	if err != nil {
		app.fallDown(op, err)
	}

	homeCache := cache.NewHomeCache(cl, c.Key, c.TTL)
	app.cache = &homeCache
}

func (app *App) initCoreService() {
	var homeCache port.HomeCache
	if app.cache != nil {
		homeCache = app.cache
	}
	app.service = service.New(app.storage, app.storage, homeCache)
}

func (app *App) initConsumer() {
	const op = "App.initConsumer"

	if !app.cfg.ConsumerEnabled() {
		slog.Info("home invalidation consumer is disabled", "op", op)
		return
	}

	b := app.cfg.Broker
	serde, err := app.newProductChangedSerde()
	if err != nil {
		app.fallDown(op, err)
	}

	clientCfg := kafka.ClientConfig{
		SeedBrokers: b.SeedBrokers,
		Topic:       b.Topics.ProductChanges,
		Group:       b.Consumers.HomeInvalidatorGroup,
	}
	if app.cfg.TLSEnabled() {
		clientCfg.TLS, err = adapter.MakeTLSConfig(b.TLS.CA, b.TLS.Cert, b.TLS.Key)
		if err != nil {
			app.fallDown(op, err)
		}
	}

	cl, err := retry.DoWithResult(app.ctx, startupRetry,
		func() (*kgo.Client, error) {
			return kafka.NewConsumerClient(app.ctx, clientCfg)
		},
	)
	if err != nil {
		app.fallDown(op, err)
	}

	consumer, err := kafka.NewHomeInvalidatorConsumer(cl, serde, app.service)
	if err != nil {
		app.fallDown(op, err)
	}
	app.consumer = &consumer
}

func (app *App) newProductChangedSerde() (schema.Serde, error) {
	srClient, err := sr.NewClient(sr.URLs(app.cfg.Broker.SchemaRegistryURLs...))
	if err != nil {
		return nil, err
	}

	subject := schema.TopicValueSubject(app.cfg.Broker.Topics.ProductChanges)
	return retry.DoWithResult(app.ctx, startupRetry,
		func() (schema.Serde, error) {
			return schema.NewSerdeProductChangedV1(
				app.ctx,
				schema.SubjectOpt(subject),
				schema.SchemaIdentifierOpt(schema.NewSchemaIdentifier(srClient)),
			)
		},
	)
}

func (app *App) initInboundAdapters() {
	httpCfg := app.cfg.HTTP

	mux := http.NewServeMux()
	httphandler.RegisterHome(mux, app.service, httpCfg.FailureStatus)
	httphandler.RegisterProducts(mux, app.service)

	var handler http.Handler = app.metrics.Instrument(mux)
	handler = httphandler.Deadline(httpCfg.HandlerTimeout)(handler)
	handler = httphandler.CORS(httpCfg.AllowedOrigins)(handler)
	handler = httphandler.LogRequests(handler)
	handler = httphandler.RequestID(handler)

	app.httpServer = httphandler.NewHTTPServer(
		"api", app.cfg.HTTPServerAddr, handler,
	)

	if app.cfg.MetricsAddr == "" {
		return
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", app.metrics.Handler())
	metricsServer := httphandler.NewHTTPServer(
		"metrics", app.cfg.MetricsAddr, metricsMux,
	)
	app.metricsServer = &metricsServer
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	if app.metricsServer != nil {
		go app.metricsServer.Run(stopFn)
	}

	if app.consumer != nil {
		app.consumerWG.Add(1)
		go func() {
			defer app.consumerWG.Done()
			app.consumer.Run(app.ctx)
		}()
	}

	slog.Info("application is running")
}

// Close expects the run context to be done.
func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.metricsServer != nil {
		app.metricsServer.Close(ctx)
	}

	if app.consumer != nil {
		app.consumerWG.Wait()
		app.consumer.Close()
	}
	if app.cache != nil {
		app.cache.Close()
	}
	app.storage.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
