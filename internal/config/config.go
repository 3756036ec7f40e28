package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported values for STORE_SCHEMA.
const (
	SchemaInvoices  = "invoices"
	SchemaDocuments = "documents"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Security SecurityConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	Path        string
	AutoMigrate bool
}

type StorageConfig struct {
	// PDFRoot is the only directory PDFs are ever served from.
	PDFRoot        string
	LegacyPrefixes []string
	Schema         string
}

type SecurityConfig struct {
	APIKey      string
	CORSOrigins []string
}

type LoggerConfig struct {
	Level string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", getEnv("DB_PASS", "postgres")),
			DBName:      getEnv("DB_NAME", "telegram"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			Path:        getEnv("DB_PATH", "./invoices.db"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Storage: StorageConfig{
			PDFRoot:        getEnv("PDF_ROOT", "/data/pdfs"),
			LegacyPrefixes: getEnvAsList("PDF_LEGACY_PREFIXES", "/files/"),
			Schema:         strings.ToLower(getEnv("STORE_SCHEMA", SchemaInvoices)),
		},
		Security: SecurityConfig{
			APIKey:      os.Getenv("API_KEY"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000,http://localhost:8080"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	switch c.Storage.Schema {
	case SchemaInvoices, SchemaDocuments:
	default:
		return fmt.Errorf("unsupported STORE_SCHEMA %q", c.Storage.Schema)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	switch c.Database.Driver {
	case DriverMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.DBName,
		)
	case DriverSQLite:
		return c.Database.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.DBName,
			c.Database.SSLMode,
		)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blank entries.
func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
