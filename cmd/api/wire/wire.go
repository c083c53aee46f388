//go:build wireinject
// +build wireinject

package wire

import (
	"os"
	"time"

	"fieldregistry-server/cmd/config"
	"fieldregistry-server/internal/infra/async"
	"fieldregistry-server/internal/infra/cache"
	"fieldregistry-server/internal/infra/sql"
	"fieldregistry-server/internal/schemastore/httpapi"
	"fieldregistry-server/internal/schemastore/persistence"
	"fieldregistry-server/internal/schemastore/usecases"

	"github.com/google/wire"
)

func InitializeConfigController(broker async.InternalBroker) (*httpapi.ConfigController, error) {
	wire.Build(
		provideAppConfig,
		provideDatabase,
		provideDocumentCache,
		persistence.NewConfigRepository,
		wire.Bind(new(usecases.ConfigRepository), new(*persistence.SimpleConfigRepository)),
		usecases.NewConfigService,
		wire.Bind(new(usecases.ConfigService), new(*usecases.SimpleConfigService)),
		httpapi.NewConfigController,
	)
	return nil, nil
}

func InitializeInvalidationWebSocketController(broker async.InternalBroker) (*httpapi.InvalidationWebSocketController, error) {
	wire.Build(
		httpapi.NewInvalidationWebSocketController,
	)
	return nil, nil
}

func InitializeRevisionPruneWorker(ticker *time.Ticker) (*usecases.RevisionPruneWorker, error) {
	wire.Build(
		provideAppConfig,
		provideDatabase,
		providePruneSchedule,
		provideRevisionRetention,
		persistence.NewConfigRepository,
		wire.Bind(new(usecases.ConfigRepository), new(*persistence.SimpleConfigRepository)),
		usecases.NewRevisionPruneWorker,
	)
	return nil, nil
}

func provideAppConfig() config.AppConfig {
	return config.LoadConfig()
}

func provideDatabase(cfg config.AppConfig) sql.ORM {
	env, ok := os.LookupEnv("ENV")
	if !ok {
		env = "production"
	}

	if env == "local" {
		orm, err := sql.NewMemoryORM()
		if err != nil {
			panic(err)
		}
		return orm
	}

	orm, err := sql.NewPosgreORM(cfg.Postgresql.DSN)
	if err != nil {
		panic(err)
	}

	return orm
}

func provideDocumentCache(cfg config.AppConfig) cache.Cache {
	if cfg.Cache.Kind == "redis" {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			panic(err)
		}
		return redisCache
	}

	memoryCache, err := cache.New(nil)
	if err != nil {
		panic(err)
	}
	return memoryCache
}

func providePruneSchedule(cfg config.AppConfig) string {
	return cfg.Registry.PruneSchedule
}

func provideRevisionRetention(cfg config.AppConfig) time.Duration {
	return cfg.Registry.RevisionRetention
}
