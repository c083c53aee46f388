package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig(t *testing.T) {
	tempConfig := `
general:
  log_level: info
httpserver:
  addr: ":3000"
  allowed_origins:
    - "http://localhost:5173"
database:
  dsn: "host=localhost user=postgres dbname=postgres port=5432 sslmode=disable"
cache:
  kind: redis
  redis_addr: "localhost:6379"
  redis_password: ""
  redis_db: 0
registry:
  prune_schedule: "0 3 * * *"
  revision_retention: 720h
`

	if err := os.MkdirAll("config", 0755); err != nil {
		t.Fatalf("Failed to create config directory: %v", err)
	}

	err := os.WriteFile("config/server_test.yaml", []byte(tempConfig), 0644)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	defer os.Remove("config/server_test.yaml")

	defer viper.SetConfigName("server")
	viper.SetConfigName("server_test")

	config := LoadConfig()

	if config.HTTPServer.Addr != ":3000" {
		t.Errorf("Expected httpserver addr to be ':3000', got '%s'", config.HTTPServer.Addr)
	}

	if len(config.HTTPServer.AllowedOrigins) != 1 || config.HTTPServer.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Expected one allowed origin, got %v", config.HTTPServer.AllowedOrigins)
	}

	if config.Cache.Kind != "redis" {
		t.Errorf("Expected cache kind to be 'redis', got '%s'", config.Cache.Kind)
	}

	if config.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis addr to be 'localhost:6379', got '%s'", config.Cache.RedisAddr)
	}

	if config.Registry.PruneSchedule != "0 3 * * *" {
		t.Errorf("Expected prune schedule '0 3 * * *', got '%s'", config.Registry.PruneSchedule)
	}

	if config.Registry.RevisionRetention != 720*time.Hour {
		t.Errorf("Expected revision retention 720h, got %s", config.Registry.RevisionRetention)
	}
}
