package api

import (
	"context"
	"errors"
	"fmt"

	"recipe-scanner/internal/core/ai/cache"
	"recipe-scanner/internal/core/ai/gemini"
	"recipe-scanner/internal/core/ai/queue"
	"recipe-scanner/internal/core/ai/service"
	"recipe-scanner/internal/core/image"
	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/core/session"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/infrastructure/metrics"
	"recipe-scanner/internal/infrastructure/store"
	"recipe-scanner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Services 應用程式依賴
type Services struct {
	Config    *config.Config
	Metrics   *metrics.Metrics
	Images    *image.Service
	Queue     *queue.Manager
	Cache     *cache.CacheManager
	AI        *service.Service
	Pipeline  *recipe.Pipeline
	Store     store.DocumentStore
	Favorites *recipe.FavoriteService
	Sessions  *session.Manager
	Workflow  *session.Workflow

	closers []func() error
}

// NewServices 依設定建立所有服務
func NewServices(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Services, error) {
	s := &Services{Config: cfg, Metrics: m}

	client, err := gemini.NewClient(cfg.Gemini, gemini.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	redisClient := func() (*redis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		c := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		rdb = c
		s.closers = append(s.closers, c.Close)
		return c, nil
	}

	var responses cache.Store
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "redis":
			c, err := redisClient()
			if err != nil {
				s.Close()
				return nil, err
			}
			responses = cache.NewRedisStore(c, cfg.Redis.KeyPrefix, cfg.Cache.TTL)
		default:
			s.Cache = cache.NewManager(cfg.Cache)
			s.closers = append(s.closers, s.Cache.Close)
			responses = s.Cache
		}
	}

	switch cfg.Store.Driver {
	case "redis":
		c, err := redisClient()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Store = store.NewRedisStore(c, cfg.Redis.KeyPrefix)
	case "sqlite":
		level := logger.Silent
		if cfg.App.Debug {
			level = logger.Warn
		}
		db, err := store.OpenSQLite(cfg.Store.SQLitePath, level)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Store = db
	default:
		s.Store = store.NewMemoryStore()
	}
	s.closers = append(s.closers, s.Store.Close)

	s.Images = image.NewService(cfg.Image.MaxSizeBytes, cfg.Image.Quality)
	s.Queue = queue.NewManager(client, cfg.Queue)
	s.closers = append(s.closers, s.Queue.Close)
	s.AI = service.NewService(s.Queue, responses, m)
	s.Pipeline = recipe.NewPipeline(s.AI, cfg.Recipe, m)
	s.Favorites = recipe.NewFavoriteService(s.Store)
	s.Sessions = session.NewManager(cfg.Session, s.Pipeline.Rules())
	s.Workflow = session.NewWorkflow(s.Sessions, s.Pipeline)

	common.LogInfo("Services initialized",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Duration("inference_timeout", cfg.Gemini.Timeout),
		zap.Int("max_retries", cfg.Gemini.MaxRetries),
		zap.Int("queue_workers", cfg.Queue.Workers),
	)
	return s, nil
}

// Close 釋放資源，依建立的相反順序
func (s *Services) Close() error {
	if s.Sessions != nil {
		s.Sessions.Close()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
