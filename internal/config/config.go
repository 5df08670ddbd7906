package config

import (
	"os"
	"strconv"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Razorpay RazorpayConfig
	Tax      TaxConfig
	Shipping ShippingConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
}

// RazorpayConfig configures the external payment gateway collaborator.
type RazorpayConfig struct {
	KeyID          string
	KeySecret      string // secret for checkout signature (HMAC-SHA256)
	WebhookSecret  string // secret for webhook signature (HMAC-SHA256)
	APIURL         string
	TimeoutSeconds int
}

// TaxConfig drives the GST breakdown on orders. Orders shipped within
// StoreState split the rate into CGST+SGST halves, otherwise IGST applies.
type TaxConfig struct {
	GSTRatePercent int    // e.g. 18
	StoreState     string // state the store ships from
}

type ShippingConfig struct {
	StandardCost          int64 // whole rupees
	ExpressCost           int64
	FreeShippingThreshold int64 // subtotal at or above this ships free; 0 disables
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Elysian API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "elysian"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "change-me-in-production"),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72),
		},
		Razorpay: RazorpayConfig{
			KeyID:          getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:      getEnv("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret:  getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			APIURL:         getEnv("RAZORPAY_API_URL", "https://api.razorpay.com/v1"),
			TimeoutSeconds: getEnvInt("RAZORPAY_TIMEOUT_SECONDS", 10),
		},
		Tax: TaxConfig{
			GSTRatePercent: getEnvInt("TAX_GST_RATE", 18),
			StoreState:     getEnv("TAX_STORE_STATE", "Maharashtra"),
		},
		Shipping: ShippingConfig{
			StandardCost:          int64(getEnvInt("SHIPPING_STANDARD_COST", 99)),
			ExpressCost:           int64(getEnvInt("SHIPPING_EXPRESS_COST", 199)),
			FreeShippingThreshold: int64(getEnvInt("SHIPPING_FREE_THRESHOLD", 2000)),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
