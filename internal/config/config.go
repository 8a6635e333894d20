package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/loyverse"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/reconcile"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ReconCacheTTLSeconds  int
	AuthSecret            string
	AccessTokenTTLMinutes int

	LoyverseBaseURL       string
	LoyverseToken         string
	LoyverseStoreID       string
	LoyverseTimeout       time.Duration
	LoyverseWebhookSecret string

	MenuCatalogPath    string
	CashToleranceCents int64

	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPFrom         string
	ReportRecipients []string

	SchedulerEnabled bool
	LogLevel         string
	LogFormat        string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil || smtpPort < 1 {
		smtpPort = 587
	}
	tolerance, err := strconv.ParseInt(getEnv("CASH_TOLERANCE_CENTS", strconv.FormatInt(reconcile.DefaultCashToleranceCents, 10)), 10, 64)
	if err != nil || tolerance < 0 {
		tolerance = reconcile.DefaultCashToleranceCents
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		ReconCacheTTLSeconds:  positiveInt("RECON_CACHE_TTL_SECONDS", 300),
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: positiveInt("ACCESS_TOKEN_TTL_MINUTES", 480),

		LoyverseBaseURL:       getEnv("LOYVERSE_BASE_URL", loyverse.DefaultBaseURL),
		LoyverseToken:         strings.TrimSpace(os.Getenv("LOYVERSE_API_TOKEN")),
		LoyverseStoreID:       os.Getenv("LOYVERSE_STORE_ID"),
		LoyverseTimeout:       time.Duration(positiveInt("LOYVERSE_TIMEOUT_SECONDS", 30)) * time.Second,
		LoyverseWebhookSecret: strings.TrimSpace(os.Getenv("LOYVERSE_WEBHOOK_SECRET")),

		MenuCatalogPath:    getEnv("MENU_CATALOG_PATH", "menu_portions.yaml"),
		CashToleranceCents: tolerance,

		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         smtpPort,
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         getEnv("SMTP_FROM", "backoffice@localhost"),
		ReportRecipients: splitList(os.Getenv("REPORT_RECIPIENTS")),

		SchedulerEnabled: getEnv("SCHEDULER_ENABLED", "true") == "true",
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) ReconCacheTTL() time.Duration {
	return time.Duration(c.ReconCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
