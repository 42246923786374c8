package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Presence   PresenceConfig
	Webhook    WebhookConfig
	Cloudinary CloudinaryConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// PresenceConfig documents the client-driven presence contract. The server
// performs no timeout-based downgrade; these values are advertised to
// clients so heartbeat and typing windows stay consistent across them.
type PresenceConfig struct {
	HeartbeatInterval time.Duration
	TypingIdleWindow  time.Duration
}

type WebhookConfig struct {
	// Secret enables HMAC-SHA256 verification of the identity webhook
	// (X-Webhook-Signature header). Empty disables verification.
	Secret string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "chirp:chirp@tcp(localhost:3306)/chirp?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret: getenv("JWT_SECRET", "change-me-in-production"),
			Issuer: getenv("JWT_ISSUER", "chirp"),
			Expiry: 24 * time.Hour,
		},
		Presence: PresenceConfig{
			HeartbeatInterval: getenvSeconds("PRESENCE_HEARTBEAT_SEC", 30),
			TypingIdleWindow:  getenvSeconds("TYPING_IDLE_SEC", 2),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("IDENTITY_WEBHOOK_SECRET"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvSeconds(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallback) * time.Second
}
