package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	memoryadapter "github.com/saiko-shop/storefront/internal/adapter/memory"
	mongoadapter "github.com/saiko-shop/storefront/internal/adapter/mongo"
	natsadapter "github.com/saiko-shop/storefront/internal/adapter/nats"
	redisadapter "github.com/saiko-shop/storefront/internal/adapter/redis"
	"github.com/saiko-shop/storefront/internal/adapter/shopify"
	sqliteadapter "github.com/saiko-shop/storefront/internal/adapter/sqlite"
	"github.com/saiko-shop/storefront/internal/app/config"
	"github.com/saiko-shop/storefront/internal/intent"
	"github.com/saiko-shop/storefront/internal/platform/logger"
	"github.com/saiko-shop/storefront/internal/platform/metrics"
	"github.com/saiko-shop/storefront/internal/platform/tracer"
	httpport "github.com/saiko-shop/storefront/internal/port/http"
	"github.com/saiko-shop/storefront/internal/repository"
	"github.com/saiko-shop/storefront/internal/service"
	"github.com/saiko-shop/storefront/internal/view"
	"github.com/shopspring/decimal"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	cfg            *config.Config
	log            logger.Logger
	server         *httpport.Server
	redisClient    *redis.Client
	sqliteDB       *sql.DB
	mongoClient    *mongo.Client
	natsConn       *nats.Conn
	tracerProvider *sdktrace.TracerProvider
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
		Service:    cfg.Tracing.ServiceName,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Logger initialized")
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s, Storage: %s", cfg.Env, cfg.HTTPServer.Port, cfg.Storage.Driver)

	application := &App{cfg: cfg, log: appLogger}

	tp, err := tracer.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	application.tracerProvider = tp
	if tp != nil {
		appLogger.Infof("Tracing exporter initialized: %s", cfg.Tracing.Endpoint)
	}

	var appMetrics *metrics.Manager
	if cfg.Metrics.Enabled {
		appMetrics = metrics.NewManager(cfg.Metrics.Namespace)
		appLogger.Info("Prometheus metrics initialized")
	}

	storage, err := application.initStorage(ctx)
	if err != nil {
		return nil, err
	}
	stores := service.NewCartStores(storage, cfg.Storage.KeyPrefix, appLogger, appMetrics)
	appLogger.Info("Cart stores initialized")

	var checkout *service.CheckoutAdapter
	if cfg.Shopify.Enabled() {
		checkout, err = application.initCheckout(ctx, stores, appMetrics)
		if err != nil {
			return nil, err
		}
		appLogger.Infof("Shopify checkout enabled for %s", cfg.Shopify.Domain)
	} else {
		appLogger.Info("Shopify not configured, serving local checkout link")
	}

	catalog, err := catalogFromConfig(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	handler := httpport.NewCartHandler(stores, intent.NewDispatcher(), checkout, catalog, appLogger)
	router := httpport.NewRouter(handler, appLogger, appMetrics, httpport.SessionOptions{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Session.Secure,
	})

	application.server = httpport.NewServer(
		appLogger,
		cfg.HTTPServer.Port,
		cfg.HTTPServer.ReadTimeout,
		cfg.HTTPServer.WriteTimeout,
		cfg.HTTPServer.TimeoutGraceful,
		router,
	)
	appLogger.Info("HTTP server instance created")

	return application, nil
}

func (a *App) initStorage(ctx context.Context) (repository.CartStorage, error) {
	switch a.cfg.Storage.Driver {
	case config.StorageDriverRedis:
		a.log.Info("Initializing Redis client...")
		client, err := redisadapter.NewClient(ctx, a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
		}
		a.redisClient = client
		a.log.Info("Redis client initialized successfully")
		return redisadapter.NewCartStorage(client, a.cfg.Storage.TTL), nil
	case config.StorageDriverSQLite:
		a.log.Infof("Opening SQLite database at %s...", a.cfg.SQLite.Path)
		db, err := sqliteadapter.Open(ctx, a.cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		a.sqliteDB = db
		a.log.Info("SQLite database opened successfully")
		return sqliteadapter.NewCartStorage(db), nil
	case config.StorageDriverMemory, "":
		a.log.Warn("Using in-memory cart storage; carts are lost on restart")
		return memoryadapter.NewCartStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

func (a *App) initCheckout(ctx context.Context, stores *service.CartStores, m *metrics.Manager) (*service.CheckoutAdapter, error) {
	client := shopify.NewClient(shopify.Config{
		Domain:                a.cfg.Shopify.Domain,
		StorefrontAccessToken: a.cfg.Shopify.StorefrontAccessToken,
		APIVersion:            a.cfg.Shopify.APIVersion,
		Timeout:               a.cfg.Shopify.Timeout,
	})

	var recorder repository.CheckoutRecorder
	if a.cfg.MongoDB.URI != "" {
		a.log.Info("Initializing MongoDB client...")
		mongoClient, err := mongoadapter.NewClient(ctx, a.cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
		}
		a.mongoClient = mongoClient
		if err := mongoadapter.EnsureIndexes(ctx, mongoClient, a.cfg.MongoDB.Database); err != nil {
			a.log.Warnf("Failed to ensure checkout indexes: %v", err)
		}
		recorder = mongoadapter.NewCheckoutRepository(mongoClient, a.cfg.MongoDB.Database)
		a.log.Info("Checkout audit repository initialized")
	}

	var publisher repository.EventPublisher
	if a.cfg.NATS.URL != "" {
		a.log.Info("Connecting to NATS...")
		conn, err := natsadapter.NewConnection(a.cfg.NATS, a.log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.natsConn = conn
		publisher, err = natsadapter.NewPublisher(conn, a.cfg.NATS.SubjectPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		a.log.Info("NATS publisher initialized")
	}

	return service.NewCheckoutAdapter(stores, client, service.VariantTable(a.cfg.Shopify.Products), recorder, publisher, a.log, m), nil
}

func catalogFromConfig(products []config.CatalogProduct) ([]view.Product, error) {
	out := make([]view.Product, 0, len(products))
	for _, p := range products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for catalog product %s: %w", p.Price, p.ID, err)
		}
		out = append(out, view.Product{
			ID:    p.ID,
			Name:  p.Name,
			Price: price,
			Image: p.Image,
			Sizes: p.Sizes,
		})
	}
	return out, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	a.log.Info("HTTP server started in a goroutine")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	} else {
		a.log.Info("HTTP server stopped successfully")
	}

	a.log.Info("Closing connections...")

	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.log.Errorf("Error draining NATS connection: %v", err)
		} else {
			a.log.Info("NATS connection drained")
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB connection closed successfully")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}

	if a.sqliteDB != nil {
		if err := a.sqliteDB.Close(); err != nil {
			a.log.Errorf("Error closing SQLite database: %v", err)
		} else {
			a.log.Info("SQLite database closed successfully")
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Error shutting down tracer provider: %v", err)
		}
	}

	a.log.Info("Application shut down successfully")
	_ = a.log.Sync()
}
