package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config 應用程式設定（全部來自環境變數）
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Database DatabaseConfig `env:",prefix=DB_"`
	Engine   EngineConfig   `env:",prefix=ENGINE_"`
	App      AppConfig      `env:",prefix=APP_"`
}

// ServerConfig HTTP 伺服器設定
type ServerConfig struct {
	Port            string        `env:"PORT,default=8080"`
	Host            string        `env:"HOST,default=0.0.0.0"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=30s"`

	// 兌換端點的每秒請求上限（整個行程共用）；0 代表不限制
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS,default=200"`
	// RPS > 0 時必須 >= 1
	RateLimitBurst int `env:"RATE_LIMIT_BURST,default=400"`
}

// DatabaseConfig 資料庫設定
//
// Driver 為 postgres（正式環境）或 sqlite（本機與測試）。
type DatabaseConfig struct {
	Driver     string `env:"DRIVER,default=postgres"`
	Host       string `env:"HOST,default=localhost"`
	Port       string `env:"PORT,default=5432"`
	User       string `env:"USER,default=postgres"`
	Password   string `env:"PASSWORD,default=postgres"`
	Name       string `env:"NAME,default=scan_rewards"`
	SSLMode    string `env:"SSL_MODE,default=disable"`
	SQLitePath string `env:"SQLITE_PATH,default=file:scan_rewards.db?_busy_timeout=5000"`
	MaxConns   int    `env:"MAX_CONNS,default=25"`
	MinConns   int    `env:"MIN_CONNS,default=5"`
	LogQueries bool   `env:"LOG_QUERIES,default=false"`
}

// EngineConfig 兌換引擎設定
type EngineConfig struct {
	// LockTimeout 單次兌換事務（含等待列鎖）的期限，逾時視為可重試的衝突
	LockTimeout time.Duration `env:"LOCK_TIMEOUT,default=3s"`

	// ContentionRetries 遇到 CONFLICT / TIER_LIMIT_REACHED 時重新執行整個兌換流程的次數
	ContentionRetries int `env:"CONTENTION_RETRIES,default=1"`

	// AllowCampaignless 允許未綁定活動的兌換碼做真偽驗證兌換
	AllowCampaignless bool `env:"ALLOW_CAMPAIGNLESS,default=false"`
}

// AppConfig 應用層設定
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// Load 從環境變數載入設定
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom 從指定的 key-value 載入設定（測試與工具使用）
func LoadFrom(ctx context.Context, values map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(values))
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 檢查無法由預設值保證的設定
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want %q or %q", c.Database.Driver, DriverPostgres, DriverSQLite)
	}
	if c.Engine.LockTimeout <= 0 {
		return fmt.Errorf("invalid ENGINE_LOCK_TIMEOUT %s: must be positive", c.Engine.LockTimeout)
	}
	if c.Engine.ContentionRetries < 0 {
		return fmt.Errorf("invalid ENGINE_CONTENTION_RETRIES %d: must not be negative", c.Engine.ContentionRetries)
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("invalid rate limit %v/%d: must not be negative", c.Server.RateLimitRPS, c.Server.RateLimitBurst)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("invalid SERVER_RATE_LIMIT_BURST %d: must be at least 1 when SERVER_RATE_LIMIT_RPS is set", c.Server.RateLimitBurst)
	}
	return nil
}

// 支援的資料庫驅動
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// GetDatabaseURL PostgreSQL 連線字串
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr 伺服器監聽位址
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
