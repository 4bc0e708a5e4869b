package config

import (
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // Durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort           string        // Application port
	DBUser            string        // Database user
	DBPassword        string        // Database password
	DBHost            string        // Database host
	DBPort            string        // Database port
	DBName            string        // Database name
	JWTSecret         string        // JWT secret key
	JWTTTL            time.Duration // Access token lifetime
	RedisAddr         string        // Redis server address
	RedisPass         string        // Redis password
	RedisDB           int           // Redis database number
	IsProd            bool          // Is production environment
	LogLevel          string        // logrus level name
	CardEncryptionKey string        // Secret for the card number vault
	TwoFACodeTTL      time.Duration // Lifetime of second-factor codes
	TransferRateLimit int           // Money-moving requests per user per minute
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:           getEnv("APP_PORT", "8080"),                                         // Application port
		DBUser:            os.Getenv("DB_USER"),                                               // Database user
		DBPassword:        os.Getenv("DB_PASSWORD"),                                           // Database password
		DBHost:            getEnv("DB_HOST", "localhost"),                                     // Database host
		DBPort:            getEnv("DB_PORT", "3306"),                                          // Database port
		DBName:            getEnv("DB_NAME", "fbank"),                                         // Database name
		JWTSecret:         os.Getenv("JWT_SECRET"),                                            // JWT secret key
		JWTTTL:            time.Duration(getInt("JWT_TTL_HOURS", 168)) * time.Hour,            // Seven days by default
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),                             // Redis server address
		RedisPass:         os.Getenv("REDIS_PASS"),                                            // Redis password
		RedisDB:           getInt("REDIS_DB", 0),                                              // Redis database number
		IsProd:            os.Getenv("IS_PROD") == "true",                                     // Is production environment
		LogLevel:          getEnv("LOG_LEVEL", "info"),                                        // Log level
		CardEncryptionKey: os.Getenv("CARD_ENCRYPTION_KEY"),                                   // Card vault secret
		TwoFACodeTTL:      time.Duration(getInt("TWOFA_CODE_TTL_SECONDS", 300)) * time.Second, // Second-factor code lifetime
		TransferRateLimit: getInt("TRANSFER_RATE_LIMIT", 30),                                  // Per-minute transfer budget
	}
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.CardEncryptionKey == "" {
		return fmt.Errorf("CARD_ENCRYPTION_KEY is required")
	}
	return nil
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getInt parses an integer variable, falling back on absence or garbage
func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
