package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Workflow      WorkflowConfig      `mapstructure:"workflow"`
	Budget        BudgetConfig        `mapstructure:"budget"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// WorkflowConfig holds the thresholds and category lists the validation
// workflow consults. Amounts are IDR without decimal places.
type WorkflowConfig struct {
	HighValueThreshold int64    `mapstructure:"high_value_threshold"`
	LowValueThreshold  int64    `mapstructure:"low_value_threshold"`
	RoutineMaxAmount   int64    `mapstructure:"routine_max_amount"`
	RoutineCategories  []string `mapstructure:"routine_categories"`
	HighRiskCategories []string `mapstructure:"high_risk_categories"`
	BatchMode          string   `mapstructure:"batch_mode"`
}

// Batch modes for quick actions. Best-effort skips failing records and
// reports counts; atomic rolls the whole batch back on the first failure.
const (
	BatchModeBestEffort = "best_effort"
	BatchModeAtomic     = "atomic"
)

// BudgetConfig maps expense categories to monthly spending limits.
// Categories missing from the map fall back to DefaultLimit.
type BudgetConfig struct {
	CategoryLimits     map[string]int64 `mapstructure:"category_limits"`
	DefaultLimit       int64            `mapstructure:"default_limit"`
	WarningUtilization float64          `mapstructure:"warning_utilization"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- DEFAULTS -----------------

func (c *WorkflowConfig) ApplyDefaults() {
	if c.HighValueThreshold == 0 {
		c.HighValueThreshold = 5_000_000
	}
	if c.LowValueThreshold == 0 {
		c.LowValueThreshold = 500_000
	}
	if c.RoutineMaxAmount == 0 {
		c.RoutineMaxAmount = 1_000_000
	}
	if len(c.RoutineCategories) == 0 {
		c.RoutineCategories = []string{"konsultasi", "operasional"}
	}
	if len(c.HighRiskCategories) == 0 {
		c.HighRiskCategories = []string{"infrastruktur", "lainnya"}
	}
	if c.BatchMode == "" {
		c.BatchMode = BatchModeBestEffort
	}
}

func (c *BudgetConfig) ApplyDefaults() {
	if c.DefaultLimit == 0 {
		c.DefaultLimit = 10_000_000
	}
	if c.WarningUtilization == 0 {
		c.WarningUtilization = 80
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config from environment variables; used for
// container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DATABASE_DRIVER", "pgx"),
			Source:          getEnv("DATABASE_SOURCE", ""),
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("SECURITY_ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   getEnv("SECURITY_REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 7 * 24 * time.Hour,
			BCryptCost:           getEnvAsInt("SECURITY_BCRYPT_COST", 10),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.Workflow.ApplyDefaults()
	cfg.Budget.ApplyDefaults()
	return cfg
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Workflow.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("workflow config: %v", err))
	}

	if err := c.Budget.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("budget config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	return nil
}

func (c *WorkflowConfig) Validate() error {
	c.ApplyDefaults()
	if c.LowValueThreshold >= c.HighValueThreshold {
		return errors.New("low_value_threshold must be below high_value_threshold")
	}
	if c.BatchMode != BatchModeBestEffort && c.BatchMode != BatchModeAtomic {
		return fmt.Errorf("batch_mode must be %q or %q", BatchModeBestEffort, BatchModeAtomic)
	}
	return nil
}

func (c *BudgetConfig) Validate() error {
	c.ApplyDefaults()
	for category, limit := range c.CategoryLimits {
		if limit <= 0 {
			return fmt.Errorf("category limit for %q must be positive", category)
		}
	}
	if c.WarningUtilization <= 0 || c.WarningUtilization >= 100 {
		return errors.New("warning_utilization must be between 0 and 100")
	}
	return nil
}

func (c *WorkflowConfig) IsRoutineCategory(category string) bool {
	for _, routine := range c.RoutineCategories {
		if routine == category {
			return true
		}
	}
	return false
}

func (c *WorkflowConfig) IsHighRiskCategory(category string) bool {
	for _, risky := range c.HighRiskCategories {
		if risky == category {
			return true
		}
	}
	return false
}

func (c *BudgetConfig) LimitFor(category string) int64 {
	if limit, ok := c.CategoryLimits[category]; ok {
		return limit
	}
	return c.DefaultLimit
}
