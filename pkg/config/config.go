package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything read from the environment at startup.
// It is built once in main and handed to the services and routes that
// need it; nothing in this package keeps process-wide state.
type Config struct {
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	Port      string
	JWTSecret string
	DBPath    string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	DeepSeekAPIKey  string
	DeepSeekModel   string
	DeepSeekBaseURL string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	UserConcurrencyLimit   int
	DuplicateWindowSeconds int
	ChatCacheTTLSeconds    int
	ChatCacheMaxItems      int
}

// Load reads .env (outside production) plus host environment variables
// and validates the result. Fatal on misconfiguration, same as before.
func Load() *Config {
	// do not load .env file in production
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		AppEnv:          os.Getenv("APP_ENV"),
		Port:            os.Getenv("PORT"),
		JWTSecret:       os.Getenv("JWT_SECRET_KEY"),
		DBPath:          os.Getenv("DB_PATH"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		GeminiBaseURL:   os.Getenv("GEMINI_BASE_URL"),
		DeepSeekAPIKey:  os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekModel:   os.Getenv("DEEPSEEK_MODEL"),
		DeepSeekBaseURL: os.Getenv("DEEPSEEK_BASE_URL"),
	}

	if !slices.Contains([]string{"staging", "production"}, cfg.AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}
	cfg.IsStaging = cfg.AppEnv == "staging"
	cfg.IsProduction = cfg.AppEnv == "production"

	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "app.db"
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.DeepSeekModel == "" {
		cfg.DeepSeekModel = "deepseek-chat"
	}

	cfg.RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	cfg.RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	cfg.UserConcurrencyLimit = atoiOr(os.Getenv("USER_CONCURRENCY_LIMIT"), 2)
	cfg.DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	cfg.ChatCacheTTLSeconds = atoiOr(os.Getenv("CHAT_CACHE_TTL_SECONDS"), 600)
	cfg.ChatCacheMaxItems = atoiOr(os.Getenv("CHAT_CACHE_MAX_ITEMS"), 500)

	if cfg.IsProduction && cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", cfg.AppEnv, cfg.IsStaging, cfg.IsProduction)
	log.Printf("[config] GeminiModel=%s GeminiAPIKeyPresent=%v", cfg.GeminiModel, cfg.GeminiAPIKey != "")
	log.Printf("[config] DeepSeekModel=%s DeepSeekAPIKeyPresent=%v", cfg.DeepSeekModel, cfg.DeepSeekAPIKey != "")
	log.Printf("[config] RateLimit window=%ds capacity=%d userConc=%d dupWindow=%ds cacheTTL=%ds cacheMax=%d",
		cfg.RateLimitWindowSeconds, cfg.RateLimitCapacity, cfg.UserConcurrencyLimit,
		cfg.DuplicateWindowSeconds, cfg.ChatCacheTTLSeconds, cfg.ChatCacheMaxItems)

	return cfg
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
