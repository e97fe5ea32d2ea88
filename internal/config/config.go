package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		LocalDatabase
		Catalog
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	LocalDatabase struct {
		Path string
	}
	Catalog struct {
		BaseURL    string
		MaxResults int
		Timeout    time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("local_database_path", DefaultLocalDatabasePath)

	// Book catalog search defaults
	v.SetDefault("catalog_base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("catalog_max_results", 10)
	v.SetDefault("catalog_timeout", "10s")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		LocalDatabase: LocalDatabase{
			Path: v.GetString("LOCAL_DATABASE_PATH"),
		},
		Catalog: Catalog{
			BaseURL:    v.GetString("CATALOG_BASE_URL"),
			MaxResults: v.GetInt("CATALOG_MAX_RESULTS"),
			Timeout:    v.GetDuration("CATALOG_TIMEOUT"),
		},
	}
}
