package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/config"
	"github.com/gdugdh24/ethospair-backend/internal/delivery/http"
	"github.com/gdugdh24/ethospair-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/ethospair-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/database"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/ethos"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/realtime"
	"github.com/gdugdh24/ethospair-backend/internal/infrastructure/server"
	"github.com/gdugdh24/ethospair-backend/internal/repository"
	"github.com/gdugdh24/ethospair-backend/internal/repository/memory"
	"github.com/gdugdh24/ethospair-backend/internal/repository/postgres"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/auth"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/bonding"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/chat"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/discovery"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/profile"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ethosCachePrefix = "ethos:identity:"

type broker interface {
	chat.Publisher
	handler.Subscriber
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client
	Server *server.Server
	Gemini *gemini.GeminiClient
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	repos, tx, err := c.initStorage()
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Redis.Enabled() {
		c.Redis, err = database.NewRedisClient(&cfg.Redis)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
	}

	if cfg.Gemini.APIKey != "" {
		c.Gemini, err = gemini.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			// Bonds are still created without icebreakers.
			log.Warn("gemini client unavailable, icebreakers disabled", zap.Error(err))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var (
		cache  ethos.Cache
		events broker
	)
	if c.Redis != nil {
		cache = ethos.NewRedisCache(c.Redis, ethosCachePrefix)
		events = realtime.NewRedisBroker(c.Redis, log.Named("realtime"))
	} else {
		events = realtime.NewLocalBroker(log.Named("realtime"))
	}

	gateway := ethos.NewClient(ethos.Config{
		BaseURL:   cfg.Ethos.BaseURL,
		Timeout:   cfg.Ethos.Timeout,
		CacheTTL:  cfg.Ethos.CacheTTL,
		BulkLimit: cfg.Ethos.BulkLimit,
		Metrics:   m,
	}, cache, log.Named("ethos"))

	// A nil *GeminiClient must not end up inside a non-nil interface.
	var icebreakers bonding.IcebreakerGenerator
	if c.Gemini != nil {
		icebreakers = c.Gemini
	}

	// Initialize use cases
	authUseCase := auth.NewAuthUseCase(
		repos.Profiles,
		gateway,
		cfg.JWT.AccessSecret,
		time.Duration(cfg.JWT.AccessExpiryMin)*time.Minute,
		log.Named("auth"),
	)

	profileUseCase := profile.NewProfileUseCase(
		repos.Profiles,
		tx,
		gateway,
		m,
		log.Named("profile"),
	)

	discoveryUseCase := discovery.NewDiscoveryUseCase(
		repos,
		gateway,
		cfg.Ethos.BulkLimit,
		cfg.Discovery.DefaultMaxReputation,
		m,
		log.Named("discovery"),
	)

	bondingUseCase := bonding.NewBondingUseCase(
		repos,
		tx,
		icebreakers,
		m,
		log.Named("bonding"),
	)

	chatUseCase := chat.NewChatUseCase(
		repos,
		events,
		cfg.Chat.MaxMessageLength,
		m,
		log.Named("chat"),
	)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUseCase)
	profileHandler := handler.NewProfileHandler(profileUseCase)
	discoveryHandler := handler.NewDiscoveryHandler(discoveryUseCase, cfg.Discovery.DecisionWindow)
	bondingHandler := handler.NewBondingHandler(bondingUseCase)
	chatHandler := handler.NewChatHandler(chatUseCase, events, log.Named("ws"))

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authUseCase)

	router := http.NewRouter(
		authHandler,
		profileHandler,
		discoveryHandler,
		bondingHandler,
		chatHandler,
		authMiddleware,
		registry,
		log.Named("http"),
	)

	c.Server = server.NewServer(&cfg.Server, router.Setup(), log)
	return c, nil
}

func (c *Container) initStorage() (repository.Repositories, repository.Transactor, error) {
	switch c.Config.Storage.Type {
	case config.StorageTypeMemory:
		c.Log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return store.Repositories(), store, nil
	default:
		db, err := database.NewPostgresDB(&c.Config.Database)
		if err != nil {
			return repository.Repositories{}, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		store := postgres.NewStore(db)
		return store.Repositories(), store, nil
	}
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error

	if c.Gemini != nil {
		if err := c.Gemini.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gemini client: %w", err))
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
