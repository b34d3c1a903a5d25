package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment.
type Config struct {
	Port           string
	DatabaseDSN    string
	AuthGRPCAddr   string
	JWTSecret      string
	AMQPURL        string
	AMQPExchange   string
	OTLPEndpoint   string
	ServiceName    string
	Environment    string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	DebugRoutes    bool
}

const (
	envDevelopment = "development"
	devJWTSecret   = "dev-secret"
)

// ErrNoTokenVerifier is returned by Validate when neither a JWT secret nor a
// remote auth service is configured.
var ErrNoTokenVerifier = errors.New("JWT_SECRET or AUTH_GRPC_ADDR must be set outside development")

// Load reads an optional .env file and then the environment.
func Load() Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8083"),
		DatabaseDSN:    getEnv("DB_DSN", ""),
		AuthGRPCAddr:   getEnv("AUTH_GRPC_ADDR", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "friend_chat.events"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:    getEnv("SERVICE_NAME", "friend-chat-service"),
		Environment:    getEnv("ENVIRONMENT", envDevelopment),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		DebugRoutes:    getBool("DEBUG_ROUTES", false),
	}
	if cfg.JWTSecret == "" && cfg.Environment == envDevelopment {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

// Validate reports settings the process cannot run safely without.
func (c Config) Validate() error {
	if c.JWTSecret == "" && c.AuthGRPCAddr == "" {
		return ErrNoTokenVerifier
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
