package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gmail     GmailConfig     `mapstructure:"gmail"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GmailConfig holds mail provider configuration for the fetcher
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
	UseIMAP      bool   `mapstructure:"use_imap"`
	IMAPHost     string `mapstructure:"imap_host"`
	IMAPPort     int    `mapstructure:"imap_port"`
	IMAPUser     string `mapstructure:"imap_user"`
	IMAPPassword string `mapstructure:"imap_password"`
}

// LLMConfig holds configuration for the generative-text API client
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds email processing pipeline configuration
type PipelineConfig struct {
	// SelfAddresses are the account owner's addresses, used to split thread
	// participants into internal vs external.
	SelfAddresses     []string `mapstructure:"self_addresses"`
	ProcessingVersion string   `mapstructure:"processing_version"`
	BatchWidth        int      `mapstructure:"batch_width"`
	MaxBatchSize      int      `mapstructure:"max_batch_size"`
}

// GatewayConfig holds ingestion gateway configuration
type GatewayConfig struct {
	SharedSecret string        `mapstructure:"shared_secret"`
	RateWindow   time.Duration `mapstructure:"rate_window"`
	SyncLimit    int           `mapstructure:"sync_limit"`
	BatchLimit   int           `mapstructure:"batch_limit"`
	StatusLimit  int           `mapstructure:"status_limit"`
}

// SchedulerConfig holds mailbox sync scheduler configuration
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("gmail.use_imap", false)
	viper.SetDefault("gmail.imap_host", "imap.gmail.com")
	viper.SetDefault("gmail.imap_port", 993)

	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", "45s")

	viper.SetDefault("pipeline.processing_version", "v2")
	viper.SetDefault("pipeline.batch_width", 10)
	viper.SetDefault("pipeline.max_batch_size", 50)

	viper.SetDefault("gateway.rate_window", "1m")
	viper.SetDefault("gateway.sync_limit", 10)
	viper.SetDefault("gateway.batch_limit", 20)
	viper.SetDefault("gateway.status_limit", 60)

	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.interval_minutes", 5)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Gmail
	viper.BindEnv("gmail.client_id", "GMAIL_CLIENT_ID")
	viper.BindEnv("gmail.client_secret", "GMAIL_CLIENT_SECRET")
	viper.BindEnv("gmail.refresh_token", "GMAIL_REFRESH_TOKEN")
	viper.BindEnv("gmail.user_email", "GMAIL_USER_EMAIL")
	viper.BindEnv("gmail.use_imap", "GMAIL_USE_IMAP")
	viper.BindEnv("gmail.imap_host", "GMAIL_IMAP_HOST")
	viper.BindEnv("gmail.imap_port", "GMAIL_IMAP_PORT")
	viper.BindEnv("gmail.imap_user", "GMAIL_IMAP_USER")
	viper.BindEnv("gmail.imap_password", "GMAIL_IMAP_PASSWORD")

	// LLM
	viper.BindEnv("llm.base_url", "LLM_BASE_URL")
	viper.BindEnv("llm.api_key", "LLM_API_KEY")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("llm.timeout", "LLM_TIMEOUT")

	// Pipeline
	viper.BindEnv("pipeline.self_addresses", "PIPELINE_SELF_ADDRESSES")
	viper.BindEnv("pipeline.processing_version", "PIPELINE_PROCESSING_VERSION")
	viper.BindEnv("pipeline.batch_width", "PIPELINE_BATCH_WIDTH")
	viper.BindEnv("pipeline.max_batch_size", "PIPELINE_MAX_BATCH_SIZE")

	// Gateway
	viper.BindEnv("gateway.shared_secret", "GATEWAY_SHARED_SECRET")
	viper.BindEnv("gateway.rate_window", "GATEWAY_RATE_WINDOW")
	viper.BindEnv("gateway.sync_limit", "GATEWAY_SYNC_LIMIT")
	viper.BindEnv("gateway.batch_limit", "GATEWAY_BATCH_LIMIT")
	viper.BindEnv("gateway.status_limit", "GATEWAY_STATUS_LIMIT")

	// Scheduler
	viper.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	viper.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required")
	}

	if c.Scheduler.Enabled {
		if !c.Gmail.UseIMAP {
			if c.Gmail.ClientID == "" || c.Gmail.ClientSecret == "" || c.Gmail.RefreshToken == "" {
				return fmt.Errorf("Gmail OAuth2 credentials are required when not using IMAP")
			}
		} else {
			if c.Gmail.IMAPUser == "" || c.Gmail.IMAPPassword == "" {
				return fmt.Errorf("IMAP credentials are required when using IMAP")
			}
		}

		if c.Scheduler.IntervalMinutes <= 0 {
			return fmt.Errorf("scheduler interval must be greater than 0")
		}
	}

	if c.Pipeline.BatchWidth <= 0 {
		return fmt.Errorf("pipeline batch width must be greater than 0")
	}

	if c.Pipeline.MaxBatchSize <= 0 || c.Pipeline.MaxBatchSize > 50 {
		return fmt.Errorf("pipeline max batch size must be between 1 and 50")
	}

	return nil
}
