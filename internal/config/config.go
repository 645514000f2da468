package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	TemplatesDir string
	CORSOrigins  string

	JWTSecret     string
	JWTTTL        time.Duration
	BcryptCost    int  // 0 means bcrypt's default
	SecureCookies bool // set behind HTTPS

	// Empty keeps idempotency keys in the SQL store.
	RedisURL string

	TraceExporter string // "", "stdout" or "otlp"
	OTLPEndpoint  string

	Gateway  GatewayConfig
	Frontend FrontendURLs
}

type GatewayConfig struct {
	StoreID     string
	StorePass   string
	BaseURL     string
	Currency    string
	Timeout     time.Duration
	CallbackURL string // public base for success/fail/cancel callbacks
}

// FrontendURLs are where gateway callbacks redirect the shopper.
type FrontendURLs struct {
	Success string
	Fail    string
	Cancel  string
}

func Load() Config {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := Config{
		Port:          env("PORT", "8080"),
		DBDSN:         env("DB_DSN", "bazaar.db"), // sqlite file in project root
		LogFile:       env("LOG_FILE", "./bazaar.log"),
		TemplatesDir:  env("TEMPLATES_DIR", "./web/templates"),
		CORSOrigins:   env("CORS_ORIGINS", "http://localhost:3000"),
		JWTSecret:     env("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:        duration("JWT_TTL", 24*time.Hour),
		BcryptCost:    integer("BCRYPT_COST", 0),
		SecureCookies: os.Getenv("COOKIE_SECURE") == "true",
		RedisURL:      os.Getenv("REDIS_URL"),
		TraceExporter: strings.ToLower(os.Getenv("TRACE_EXPORTER")),
		OTLPEndpoint:  env("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Gateway: GatewayConfig{
			StoreID:     os.Getenv("SSL_STORE_ID"),
			StorePass:   os.Getenv("SSL_STORE_PASS"),
			BaseURL:     env("SSL_BASE_URL", "https://sandbox.sslcommerz.com"),
			Currency:    env("SSL_CURRENCY", "BDT"),
			Timeout:     duration("SSL_TIMEOUT", 10*time.Second),
			CallbackURL: env("SSL_CALLBACK_URL", "http://localhost:8080/api/v1/payment/callback"),
		},
		Frontend: FrontendURLs{
			Success: os.Getenv("SSL_SUCCESS_FRONTEND_URL"),
			Fail:    os.Getenv("SSL_FAIL_FRONTEND_URL"),
			Cancel:  os.Getenv("SSL_CANCEL_FRONTEND_URL"),
		},
	}

	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s REDIS=%t TRACE=%q SSL_BASE_URL=%s SSL_STORE_ID=%s SSL_TIMEOUT=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.RedisURL != "", cfg.TraceExporter,
		cfg.Gateway.BaseURL, mask(cfg.Gateway.StoreID), cfg.Gateway.Timeout)
	return cfg
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("[config] bad %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func mask(s string) string {
	if len(s) <= 3 {
		return strings.Repeat("*", len(s))
	}
	return s[:3] + strings.Repeat("*", len(s)-3)
}
