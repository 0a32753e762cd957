package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the helpdesk backend.
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Generation GenerationConfig `mapstructure:"generation"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address          string        `mapstructure:"address"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	SchedulerEnabled bool          `mapstructure:"scheduler_enabled"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	return nil
}

// LLMConfig contains the language-model provider settings.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if l.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if l.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// ToolsConfig contains agent tool settings.
type ToolsConfig struct {
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	WebFetch  WebFetchConfig  `mapstructure:"web_fetch"`
}

// WebSearchConfig contains web search provider settings.
type WebSearchConfig struct {
	Provider     string `mapstructure:"provider"` // serper or brave
	SerperAPIKey string `mapstructure:"serper_api_key"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`
	MaxResults   int    `mapstructure:"max_results"`
}

// WebFetchConfig contains headless page-fetch settings.
type WebFetchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// GenerationConfig bounds the AI generation pipeline.
type GenerationConfig struct {
	MaxAgentCycles int           `mapstructure:"max_agent_cycles"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
	Registry       string        `mapstructure:"registry"` // inmemory or redis
	JobTTL         time.Duration `mapstructure:"job_ttl"`
}

// Normalize applies defaults for unset generation values.
func (g GenerationConfig) Normalize() GenerationConfig {
	if g.MaxAgentCycles <= 0 {
		g.MaxAgentCycles = 10
	}
	if g.JobTimeout <= 0 {
		g.JobTimeout = 15 * time.Minute
	}
	if g.StatusInterval <= 0 {
		g.StatusInterval = time.Second
	}
	if g.Registry == "" {
		g.Registry = "inmemory"
	}
	if g.JobTTL <= 0 {
		g.JobTTL = time.Hour
	}
	return g
}

func (g GenerationConfig) Validate() error {
	switch g.Registry {
	case "inmemory", "redis":
		return nil
	default:
		return fmt.Errorf("generation.registry must be inmemory or redis, got %q", g.Registry)
	}
}

// StorageConfig contains storage and persistence settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains postgres connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns the host:port pair for the redis client.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("server.address", ":10002")
	viper.SetDefault("server.token_ttl", 24*time.Hour)
	viper.SetDefault("server.scheduler_enabled", true)
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("tools.web_search.provider", "serper")
	viper.SetDefault("tools.web_search.max_results", 3)
	viper.SetDefault("tools.web_fetch.timeout", 15*time.Second)
	viper.SetDefault("tools.web_fetch.max_chars", 20000)
	viper.SetDefault("generation.registry", "inmemory")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("DESKWISE")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Generation = config.Generation.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Generation.Validate(); err != nil {
		panic(err)
	}
	return &config
}
