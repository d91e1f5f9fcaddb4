package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	ServerAddress string
	Environment   string
	Database      DatabaseConfig
	Migration     MigrationConfig
	Matching      MatchingConfig
	OpenAI        OpenAIConfig
	Notification  NotificationConfig
	Logging       LoggingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Params   string
}

type MigrationConfig struct {
	Dir string
}

// MatchingConfig carries the default tolerances for a matching run.
// Callers can override any of them per request.
type MatchingConfig struct {
	DateToleranceDays int
	AmountTolerance   string
	MinConfidence     float64
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type NotificationConfig struct {
	WebhookURL string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("RECON_DATE_TOLERANCE_DAYS", 3)
	viper.SetDefault("RECON_AMOUNT_TOLERANCE", "0.01")
	viper.SetDefault("RECON_MIN_CONFIDENCE", 0.7)
	viper.SetDefault("OPENAI_MODEL", "gpt-4o")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{
		ServerAddress: viper.GetString("SERVER_ADDRESS"),
		Environment:   viper.GetString("ENVIRONMENT"),
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			Params:   viper.GetString("DB_PARAMS"),
		},
		Migration: MigrationConfig{
			Dir: viper.GetString("MIGRATION_DIR"),
		},
		Matching: MatchingConfig{
			DateToleranceDays: viper.GetInt("RECON_DATE_TOLERANCE_DAYS"),
			AmountTolerance:   viper.GetString("RECON_AMOUNT_TOLERANCE"),
			MinConfidence:     viper.GetFloat64("RECON_MIN_CONFIDENCE"),
		},
		OpenAI: OpenAIConfig{
			APIKey: viper.GetString("OPENAI_API_KEY"),
			Model:  viper.GetString("OPENAI_MODEL"),
		},
		Notification: NotificationConfig{
			WebhookURL: viper.GetString("NOTIFY_WEBHOOK_URL"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
	}

	return config, nil
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}

// GetMigrationDBURL returns the database URL for migrations
func (c *Config) GetMigrationDBURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}
