package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/island-troll-tribes/stats-service/services"
)

// Config holds every tunable of the stats service. Rating parameters are
// injected into the calculator from here rather than read ad hoc, so tests
// and deployments can vary them freely.
type Config struct {
	ServerPort         int
	FirestoreProjectID string

	Rating services.RatingConfig

	StandingsDefaultLimit int
	StandingsMaxLimit     int
	PlayersDefaultLimit   int
	PlayerSearchLimit     int
	SearchMinQueryLen     int
	ClassTopPlayers       int

	ReconcileInterval time.Duration
	ReconcileGrace    time.Duration

	// Replay archive (Cloudflare R2). Optional: when AccountID is empty
	// the replay endpoints answer 503.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// ReplayStorageConfigured reports whether enough R2 settings are present
// to build an uploader.
func (c *Config) ReplayStorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// Load reads the configuration from environment variables, optionally
// seeded from a local .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		return nil, fmt.Errorf("FIRESTORE_PROJECT_ID environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	defaultRating, err := floatEnv("RATING_DEFAULT", 1000)
	if err != nil {
		return nil, err
	}
	kFactor, err := floatEnv("RATING_K_FACTOR", 32)
	if err != nil {
		return nil, err
	}
	maxSwing, err := floatEnv("RATING_MAX_SWING", 50)
	if err != nil {
		return nil, err
	}
	if kFactor <= 0 || maxSwing <= 0 {
		return nil, fmt.Errorf("RATING_K_FACTOR and RATING_MAX_SWING must be positive")
	}

	standingsDefault, err := intEnv("STANDINGS_DEFAULT_LIMIT", 25)
	if err != nil {
		return nil, err
	}
	standingsMax, err := intEnv("STANDINGS_MAX_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	playersDefault, err := intEnv("PLAYERS_DEFAULT_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	searchLimit, err := intEnv("PLAYER_SEARCH_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	minQueryLen, err := intEnv("SEARCH_MIN_QUERY_LEN", 2)
	if err != nil {
		return nil, err
	}
	classTop, err := intEnv("CLASS_TOP_PLAYERS", 5)
	if err != nil {
		return nil, err
	}

	reconcileInterval, err := durationEnv("RECONCILE_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	reconcileGrace, err := durationEnv("RECONCILE_GRACE", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:         port,
		FirestoreProjectID: projectID,
		Rating: services.RatingConfig{
			Default:  defaultRating,
			KFactor:  kFactor,
			MaxSwing: maxSwing,
		},
		StandingsDefaultLimit: standingsDefault,
		StandingsMaxLimit:     standingsMax,
		PlayersDefaultLimit:   playersDefault,
		PlayerSearchLimit:     searchLimit,
		SearchMinQueryLen:     minQueryLen,
		ClassTopPlayers:       classTop,
		ReconcileInterval:     reconcileInterval,
		ReconcileGrace:        reconcileGrace,
		R2AccountID:           os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:         os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:     os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:          os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:       os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

func floatEnv(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
