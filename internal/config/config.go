package config

import (
	"os"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Port string

	SessionStore string
	SessionTTL   time.Duration
	PostgresURL  string
	RedisAddr    string

	// Empty secret means every shopper is a guest.
	JWTSecret string

	CheckoutDelay    time.Duration
	OrdersServiceURL string
	UpstreamTimeout  time.Duration

	KafkaBrokers []string

	EmailServiceURL string

	OTLPEndpoint string

	CORSAllowOrigins []string
	Categories       []domain.Category
}

const defaultCategories = "socks:Socks,compression:Compression Socks,orthopedic:Orthopedic Care,insoles:Insoles"

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		SessionStore: strings.ToLower(getenv("SESSION_STORE", StoreMemory)),
		SessionTTL:   parseDuration(getenv("SESSION_TTL", "720h"), 720*time.Hour),
		PostgresURL:  os.Getenv("POSTGRES_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CheckoutDelay:    parseDuration(getenv("CHECKOUT_DELAY", "2s"), 2*time.Second),
		OrdersServiceURL: strings.TrimRight(os.Getenv("ORDERS_SERVICE_URL"), "/"),
		UpstreamTimeout:  parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),

		EmailServiceURL: os.Getenv("EMAIL_SERVICE_URL"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		CORSAllowOrigins: withDefault(splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")), "*"),
		Categories:       parseCategories(getenv("CATEGORIES", defaultCategories)),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func withDefault(v []string, def string) []string {
	if len(v) == 0 {
		return []string{def}
	}
	return v
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// parseCategories reads "id:Name" pairs. An entry without a name uses its id.
func parseCategories(v string) []domain.Category {
	var out []domain.Category
	for _, entry := range splitCSV(v) {
		id, name, ok := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !ok || strings.TrimSpace(name) == "" {
			name = id
		}
		out = append(out, domain.Category{ID: id, Name: strings.TrimSpace(name)})
	}
	return out
}
