package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServiceNames lists the upstreams the gateway knows about.
var ServiceNames = []string{
	"auth",
	"organization",
	"farmer",
	"lorry",
	"delivery",
	"payment",
	"notification",
	"field-manager",
	"farm-admin",
	"report",
}

// Settings holds every environment-driven knob for the server, gateway and CLI.
type Settings struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimezone string
	SQLitePath string

	RedisURL string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	LogFile  string
	LogLevel string

	GatewayPort       string
	GatewayTimeout    time.Duration
	DefaultServiceURL string
	ServiceURLs       map[string]string
	UpstreamPrefix    string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// App is the settings loaded at startup.
var App = Defaults()

// Load reads .env (if present) and the process environment into App.
func Load() *Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	s := &Settings{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "*"), ","),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "farmtally"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimezone: getEnv("DB_TIMEZONE", "UTC"),
		SQLitePath: getEnv("SQLITE_PATH", "farmtally.db"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:  getEnv("JWT_SECRET", "supersecret"),
		AccessTTL:  getDuration("JWT_ACCESS_TTL", 8*time.Hour),
		RefreshTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		LogFile:  getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GatewayPort:       getEnv("GATEWAY_PORT", "3000"),
		GatewayTimeout:    getDuration("GATEWAY_TIMEOUT", 30*time.Second),
		DefaultServiceURL: getEnv("DEFAULT_SERVICE_URL", "http://localhost:8080"),
		ServiceURLs:       map[string]string{},
		UpstreamPrefix:    getEnv("UPSTREAM_PREFIX", "/api/v1/"),
		RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
	}

	for _, name := range ServiceNames {
		key := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_SERVICE_URL"
		s.ServiceURLs[name] = getEnv(key, s.DefaultServiceURL)
	}

	App = s
	return s
}

// Defaults returns settings suitable for tests and local runs without env.
func Defaults() *Settings {
	s := &Settings{
		Port:              "8080",
		GinMode:           "debug",
		DBDriver:          "sqlite",
		SQLitePath:        "farmtally.db",
		RedisURL:          "redis://localhost:6379/0",
		JWTSecret:         "supersecret",
		AccessTTL:         8 * time.Hour,
		RefreshTTL:        7 * 24 * time.Hour,
		LogFile:           "./logs/app.log",
		LogLevel:          "info",
		GatewayPort:       "3000",
		GatewayTimeout:    30 * time.Second,
		DefaultServiceURL: "http://localhost:8080",
		ServiceURLs:       map[string]string{},
		UpstreamPrefix:    "/api/v1/",
		RateLimitRequests: 100,
		RateLimitWindow:   15 * time.Minute,
	}
	for _, name := range ServiceNames {
		s.ServiceURLs[name] = s.DefaultServiceURL
	}
	return s
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s", key, v, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer for %s=%q, using %d", key, v, defaultValue)
		return defaultValue
	}
	return n
}
