package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AcceptMode controls how answer acceptance treats sibling answers.
type AcceptMode string

const (
	// AcceptExclusive clears every other accepted answer of the question.
	AcceptExclusive AcceptMode = "exclusive"
	// AcceptLegacy only flags the target answer, siblings keep their flag.
	AcceptLegacy AcceptMode = "legacy"
)

type Config struct {
	Port        int
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigin  string
	LogLevel    string
	GinMode     string
	AcceptMode  AcceptMode

	// Avatar storage
	UploadDir      string
	AvatarStorage  string // "local" or "minio"
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	// Token denylist; empty means in-process
	RedisURL string
}

// Load reads the configuration from the environment. Call godotenv.Load
// first if a .env file should be honoured.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:    getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=devqa port=5432 sslmode=disable"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		CORSOrigin:     getenv("CORS_ORIGIN", "http://localhost:5173"),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		GinMode:        getenv("GIN_MODE", "debug"),
		AcceptMode:     AcceptMode(strings.ToLower(getenv("ACCEPT_MODE", string(AcceptExclusive)))),
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		AvatarStorage:  strings.ToLower(getenv("AVATAR_STORAGE", "local")),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "avatars"),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	port, err := strconv.Atoi(getenv("PORT", "5000"))
	if err != nil || port <= 0 {
		return Config{}, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}
	cfg.Port = port

	cfg.TokenTTL, err = time.ParseDuration(getenv("TOKEN_TTL", "168h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		cfg.MinioUseSSL, err = strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
		}
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	switch cfg.AcceptMode {
	case AcceptExclusive, AcceptLegacy:
	default:
		return Config{}, fmt.Errorf("invalid ACCEPT_MODE %q (exclusive or legacy)", cfg.AcceptMode)
	}

	switch cfg.AvatarStorage {
	case "local":
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return Config{}, errors.New("AVATAR_STORAGE=minio needs MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	default:
		return Config{}, fmt.Errorf("invalid AVATAR_STORAGE %q (local or minio)", cfg.AvatarStorage)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
