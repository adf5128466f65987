package container

import (
	"context"
	"fmt"

	"campus-api/internal/config"
	"campus-api/internal/repository"
	"campus-api/internal/service"
	"campus-api/internal/service/auth"
	"campus-api/internal/store"
	"campus-api/internal/store/postgres"
	"campus-api/internal/store/supabase"
	"campus-api/pkg/database"
	"campus-api/pkg/logger"
	"campus-api/pkg/redis"
)

// Container holds all application dependencies. The store backend is a
// constructor-time choice; nothing switches backends at runtime.
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	Store       store.Store
	RedisClient *redis.Client
	Repos       *repository.Repositories
	Cache       *service.CacheService
	Notifier    *service.Notifier
	Services    *service.Services
	OAuthFlow   *auth.OAuthFlow
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	st, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	// Redis is optional; without it caching and notifications degrade
	// to no-ops and log-only.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	repos := repository.New(st)
	cache := service.NewCacheService(redisClient, log)
	notifier := service.NewNotifier(redisClient, log)

	authService := auth.NewService(cfg, repos.Profile, cache, log)
	electionService := service.NewElectionService(repos, cache, notifier, log)
	bookingService := service.NewBookingService(repos, cache, notifier, log)

	return &Container{
		Config:      cfg,
		Logger:      log,
		Store:       st,
		RedisClient: redisClient,
		Repos:       repos,
		Cache:       cache,
		Notifier:    notifier,
		Services: &service.Services{
			Auth:     authService,
			Election: electionService,
			Booking:  bookingService,
		},
		OAuthFlow: auth.NewOAuthFlow(cfg, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info("document store backend: postgres")
		return postgres.New(db, log), nil

	case config.BackendSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
			return nil, fmt.Errorf("supabase backend requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
		}
		log.Info("document store backend: supabase")
		return supabase.New(cfg, log), nil

	case config.BackendMemory:
		log.Warn("document store backend: memory (non-persistent)")
		return store.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Close releases container-held resources
func (c *Container) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
}
