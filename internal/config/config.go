package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Import   Import   `mapstructure:"import"`
	Calendar Calendar `mapstructure:"calendar"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server holds the configuration for the read-only API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Import holds the configuration for the import pipeline and the scrapers.
type Import struct {
	ChunkSize      int     `mapstructure:"chunk_size"`
	ShareBaseURL   string  `mapstructure:"share_base_url"`
	MailBaseURL    string  `mapstructure:"mail_base_url"`
	MailToken      string  `mapstructure:"mail_token"`
	MaxMailPages   int     `mapstructure:"max_mail_pages"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Calendar holds the configuration for the economic calendar feed.
type Calendar struct {
	URL             string `mapstructure:"url"`
	TTLSeconds      int    `mapstructure:"ttl_seconds"`
	RefreshSchedule string `mapstructure:"refresh_schedule"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("database.dsn", "journal.db")
	viper.SetDefault("import.chunk_size", 400)
	viper.SetDefault("import.max_mail_pages", 10)
	viper.SetDefault("import.rate_limit", 5) // requests per second
	viper.SetDefault("import.rate_limit_burst", 2)
	viper.SetDefault("calendar.ttl_seconds", 3600)
	viper.SetDefault("calendar.refresh_schedule", "@hourly")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
