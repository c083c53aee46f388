package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var loadConfigOnce sync.Once
var configInstance AppConfig

func LoadConfig() AppConfig {
	loadConfigOnce.Do(func() {
		viper.SetEnvPrefix("fieldregistry_server")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.SetConfigName("server")
		viper.AddConfigPath("config")
		viper.AddConfigPath("/config")
		if err := viper.ReadInConfig(); err != nil {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		configInstance = AppConfig{
			General: GeneralConfig{
				LogLevel: viper.GetString("general.log_level"),
			},
			HTTPServer: HTTPServerConfig{
				Addr:           viper.GetString("httpserver.addr"),
				AllowedOrigins: viper.GetStringSlice("httpserver.allowed_origins"),
			},
			Postgresql: PostgresqlConfig{
				DSN: viper.GetString("database.dsn"),
			},
			Cache: CacheConfig{
				Kind:          viper.GetString("cache.kind"),
				RedisAddr:     viper.GetString("cache.redis_addr"),
				RedisPassword: viper.GetString("cache.redis_password"),
				RedisDB:       viper.GetInt("cache.redis_db"),
			},
			Registry: RegistryConfig{
				PruneSchedule:     viper.GetString("registry.prune_schedule"),
				RevisionRetention: viper.GetDuration("registry.revision_retention"),
			},
		}
	})

	return configInstance
}

type AppConfig struct {
	General    GeneralConfig
	HTTPServer HTTPServerConfig
	Postgresql PostgresqlConfig
	Cache      CacheConfig
	Registry   RegistryConfig
}

type GeneralConfig struct {
	LogLevel string
}

type HTTPServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

type PostgresqlConfig struct {
	DSN string
}

// CacheConfig selects the document cache backend. Kind "memory" needs no
// further settings; kind "redis" reads the redis fields.
type CacheConfig struct {
	Kind          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type RegistryConfig struct {
	PruneSchedule     string
	RevisionRetention time.Duration
}
