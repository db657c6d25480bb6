package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseConnections splits traffic between a writer and a reader. The
// row-isolation scopes apply identically on both; the split only exists
// so audit queries and exports can lean on a replica.
type DatabaseConnections struct {
	Writer *gorm.DB
	Reader *gorm.DB
}

type databaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// databaseConfigFor reads POSTGRES_<ROLE>_* variables for "writer" or
// "reader".
func databaseConfigFor(role string) databaseConfig {
	prefix := "POSTGRES_" + strings.ToUpper(role) + "_"
	return databaseConfig{
		Host:     getEnvWithDefault(prefix+"HOST", "localhost"),
		Port:     getEnvWithDefault(prefix+"PORT", "5432"),
		User:     getEnvWithDefault(prefix+"USER", "postgres"),
		Password: getEnvWithDefault(prefix+"PASSWORD", ""),
		DBName:   getEnvWithDefault(prefix+"DB_NAME", "tenant_core"),
		SSLMode:  getEnvWithDefault(prefix+"SSL_MODE", "disable"),
	}
}

func (c databaseConfig) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func openDatabase(role string) (*gorm.DB, error) {
	cfg := databaseConfigFor(role)
	db, err := gorm.Open(postgres.Open(cfg.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", role, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for %s: %w", role, err)
	}
	sqlDB.SetMaxOpenConns(getEnvIntWithDefault("DB_MAX_OPEN_CONNS", 50))
	sqlDB.SetMaxIdleConns(getEnvIntWithDefault("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetConnMaxLifetime(getEnvDurationWithDefault("DB_CONN_MAX_LIFETIME", time.Hour))

	return db, nil
}

func NewDatabaseConnections() (*DatabaseConnections, error) {
	writer, err := openDatabase("writer")
	if err != nil {
		return nil, err
	}
	reader, err := openDatabase("reader")
	if err != nil {
		return nil, err
	}
	return &DatabaseConnections{Writer: writer, Reader: reader}, nil
}

func (dc *DatabaseConnections) Close() error {
	var errs []error
	for role, db := range map[string]*gorm.DB{"writer": dc.Writer, "reader": dc.Reader} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s connection: %w", role, err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
