package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	DatabaseURL       string
	DBMaxConns        int
	JWTSecret         string
	JWTIssuer         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	StoragePath       string
	StorageBaseURL    string
	GeoIPDBPath       string
	CORSOrigins       []string
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
	TrustProxyHeaders bool

	ClassifierStrategy  string
	ClassifierTimeout   time.Duration
	ClassifierModelPath string
	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	GeminiLegacyBaseURL string
	GeminiUseFallback   bool
	ImpactCheckEnforce  bool
	ImpactCheckFailOpen bool

	RazorpayKeyID     string
	RazorpayKeySecret string
	DonationCurrency  string
	MinDonationMinor  int64
}

const (
	ClassifierGemini  = "gemini"
	ClassifierModel   = "model"
	ClassifierKeyword = "keyword"
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              port,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTIssuer:         getEnv("JWT_ISSUER", "impacthub"),
		AccessTokenTTL:    time.Minute * time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60)),
		RefreshTokenTTL:   time.Hour * time.Duration(getEnvInt("REFRESH_TOKEN_TTL_HOURS", 24)),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:    getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:       getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		ClassifierStrategy:  strings.ToLower(getEnv("CLASSIFIER_STRATEGY", ClassifierGemini)),
		ClassifierTimeout:   time.Second * time.Duration(getEnvInt("CLASSIFIER_TIMEOUT_SECONDS", 15)),
		ClassifierModelPath: os.Getenv("CLASSIFIER_MODEL_PATH"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiLegacyBaseURL: getEnv("GEMINI_LEGACY_BASE_URL", "https://generativelanguage.googleapis.com/v1beta2"),
		GeminiUseFallback:   getEnvBool("GEMINI_USE_FALLBACK", true),
		ImpactCheckEnforce:  getEnvBool("IMPACT_CHECK_ENFORCE", false),
		ImpactCheckFailOpen: getEnvBool("IMPACT_CHECK_FAIL_OPEN", true),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		DonationCurrency:  strings.ToUpper(getEnv("DONATION_CURRENCY", "INR")),
		MinDonationMinor:  int64(getEnvInt("MIN_DONATION_MINOR", 200)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.ClassifierStrategy {
	case ClassifierGemini, ClassifierKeyword:
	case ClassifierModel:
		if strings.TrimSpace(cfg.ClassifierModelPath) == "" {
			return nil, fmt.Errorf("CLASSIFIER_MODEL_PATH is required when CLASSIFIER_STRATEGY=model")
		}
	default:
		return nil, fmt.Errorf("unsupported CLASSIFIER_STRATEGY %q", cfg.ClassifierStrategy)
	}

	if !cfg.IsDevelopment() && (cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "") {
		return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
