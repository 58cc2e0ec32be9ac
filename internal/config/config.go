package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Hub       HubConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	Telegram  TelegramConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin credential parameters.
type AuthConfig struct {
	SessionSecret     string
	OTPTTLSeconds     int
	OTPMaxAttempts    int
	SessionTTLMinutes int
	// ExposeOTP echoes the code in the request-otp response. Off unless set explicitly.
	ExposeOTP    bool
	CookieSecure bool
}

// HubConfig tunes the in-memory notification hub.
type HubConfig struct {
	Capacity         int
	KeepaliveSeconds int
}

// RateLimitConfig holds fixed-window thresholds per route group.
type RateLimitConfig struct {
	Backend       string
	WindowSeconds int
	Limits        map[string]int
}

// UploadConfig controls media storage.
type UploadConfig struct {
	Dir             string
	MaxBytes        int64
	ImageExtensions []string
	VoiceExtensions []string
}

// TelegramConfig holds out-of-band relay credentials.
type TelegramConfig struct {
	BotToken          string
	AdminChatID       int64
	MessagesPerSecond float64
	QueueSize         int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	var adminChatID int64
	if raw := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); raw != "" {
		adminChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-chat"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionSecret:     getEnv("AUTH_SESSION_SECRET", "dev-secret"),
			OTPTTLSeconds:     getEnvAsInt("AUTH_OTP_TTL_SECONDS", 300),
			OTPMaxAttempts:    getEnvAsInt("AUTH_OTP_MAX_ATTEMPTS", 5),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 600),
			ExposeOTP:         getEnvAsBool("AUTH_EXPOSE_OTP", false),
			CookieSecure:      getEnvAsBool("AUTH_COOKIE_SECURE", env == "production"),
		},
		Hub: HubConfig{
			Capacity:         getEnvAsInt("HUB_CAPACITY", 100),
			KeepaliveSeconds: getEnvAsInt("HUB_KEEPALIVE_SECONDS", 30),
		},
		RateLimit: RateLimitConfig{
			Backend:       getEnv("RATE_LIMIT_BACKEND", "memory"),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			Limits: map[string]int{
				"register": getEnvAsInt("RATE_LIMIT_REGISTER", 10),
				"message":  getEnvAsInt("RATE_LIMIT_MESSAGE", 30),
				"upload":   getEnvAsInt("RATE_LIMIT_UPLOAD", 10),
				"otp":      getEnvAsInt("RATE_LIMIT_OTP", 5),
				"default":  getEnvAsInt("RATE_LIMIT_DEFAULT", 60),
			},
		},
		Upload: UploadConfig{
			Dir:             getEnv("UPLOAD_DIR", "static/uploads"),
			MaxBytes:        int64(getEnvAsInt("UPLOAD_MAX_BYTES", 16<<20)),
			ImageExtensions: getEnvAsList("UPLOAD_IMAGE_EXTENSIONS", []string{"png", "jpg", "jpeg", "gif", "webp"}),
			VoiceExtensions: getEnvAsList("UPLOAD_VOICE_EXTENSIONS", []string{"webm", "ogg", "mp3", "wav"}),
		},
		Telegram: TelegramConfig{
			BotToken:          os.Getenv("TELEGRAM_BOT_TOKEN"),
			AdminChatID:       adminChatID,
			MessagesPerSecond: getEnvAsFloat("TELEGRAM_MESSAGES_PER_SECOND", 1),
			QueueSize:         getEnvAsInt("TELEGRAM_QUEUE_SIZE", 64),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// OTPTTL returns how long an issued code stays valid.
func (a AuthConfig) OTPTTL() time.Duration {
	return time.Duration(a.OTPTTLSeconds) * time.Second
}

// SessionTTL returns the admin session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// Keepalive returns the interval between ping frames on idle streams.
func (h HubConfig) Keepalive() time.Duration {
	return time.Duration(h.KeepaliveSeconds) * time.Second
}

// Window returns the fixed rate-limit window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Enabled reports whether the Telegram relay has credentials.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.AdminChatID != 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
