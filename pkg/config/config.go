package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	Server      ServerConfig
	DB          DBConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Scoring     ScoringConfig
	Generator   GeneratorConfig
	Data        DataConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// ScoringConfig holds the normalization constants and weights used by the
// risk engine. The caps are policy values, never derived from data, so that
// scores stay comparable across pipeline runs.
type ScoringConfig struct {
	// DelayDaysMax is the average delivery delay (in days) considered
	// maximally bad when normalizing.
	DelayDaysMax float64
	// QualityIssuesMax is the per-order quality issue rate considered
	// maximally bad when normalizing.
	QualityIssuesMax float64
	// PerformanceWeight and FinancialWeight blend operational performance
	// with the external financial risk signal.
	PerformanceWeight float64
	FinancialWeight   float64
	// StrictDomain controls what happens when an input value is outside its
	// declared domain: true fails the whole run, false excludes the
	// offending supplier from the derived tables.
	StrictDomain bool
}

// GeneratorConfig holds synthetic data generation parameters
type GeneratorConfig struct {
	Seed         int64
	NumSuppliers int
	NumOrders    int
	StartDate    string
	EndDate      string
}

// DataConfig holds file locations for the CSV exchange directory
type DataConfig struct {
	Dir string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: "supplier-risk-service",
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8086"),
			Env:  getEnv("APP_ENV", "development"),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "supplier_risk"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "supplierrisksecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "supplier_risk"),
		},
		Scoring: ScoringConfig{
			DelayDaysMax:      getEnvAsFloat("SCORING_DELAY_DAYS_MAX", 30.0),
			QualityIssuesMax:  getEnvAsFloat("SCORING_QUALITY_ISSUES_MAX", 1.0),
			PerformanceWeight: getEnvAsFloat("SCORING_PERFORMANCE_WEIGHT", 0.7),
			FinancialWeight:   getEnvAsFloat("SCORING_FINANCIAL_WEIGHT", 0.3),
			StrictDomain:      getEnvAsBool("SCORING_STRICT_DOMAIN", true),
		},
		Generator: GeneratorConfig{
			Seed:         int64(getEnvAsInt("GENERATOR_SEED", 42)),
			NumSuppliers: getEnvAsInt("GENERATOR_NUM_SUPPLIERS", 15),
			NumOrders:    getEnvAsInt("GENERATOR_NUM_ORDERS", 600),
			StartDate:    getEnv("GENERATOR_START_DATE", "2024-01-01"),
			EndDate:      getEnv("GENERATOR_END_DATE", "2024-12-31"),
		},
		Data: DataConfig{
			Dir: getEnv("DATA_DIR", "data"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as zap logger fields
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as floats
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as gorm log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
