package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// OllamaConfig holds Ollama-specific configuration
type OllamaConfig struct {
	URL            string        `mapstructure:"url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds the durable store configuration
type StoreConfig struct {
	Path   string `mapstructure:"path"`
	UserID string `mapstructure:"user_id"`
}

// VectorStoreConfig holds the conversation context store configuration
type VectorStoreConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	CollectionName string `mapstructure:"collection_name"`
	PersistPath    string `mapstructure:"persist_path"`
	TopK           int    `mapstructure:"top_k"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Ollama      OllamaConfig      `mapstructure:"ollama"`
	Store       StoreConfig       `mapstructure:"store"`
	VectorStore VectorStoreConfig `mapstructure:"vectorstore"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	HistorySize int               `mapstructure:"history_size"`
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.concierge")
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "concierge"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("CONCIERGE")
	viper.AutomaticEnv()

	// Missing config file is fine, defaults and env cover everything
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.model", "qwen3:latest")
	viper.SetDefault("ollama.embedding_model", "nomic-embed-text")
	viper.SetDefault("ollama.timeout", "90s")

	viper.SetDefault("store.path", "./.concierge/concierge.db")
	viper.SetDefault("store.user_id", "default_user")

	viper.SetDefault("vectorstore.enabled", true)
	viper.SetDefault("vectorstore.collection_name", "chat-history")
	viper.SetDefault("vectorstore.persist_path", "./.concierge/vectors")
	viper.SetDefault("vectorstore.top_k", 3)

	viper.SetDefault("logging.log_file", "./.concierge/system.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("history_size", 10)
}
