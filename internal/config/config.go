package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	defaultListenHost = "127.0.0.1"
	defaultListenPort = 3040

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	DataDir      string
	DBPath       string
	SettingsFile string
	ListenHost   string
	ListenPort   int
	PublicURL    string
	CorsOrigins  []string
	Env          string
	LogLevel     string

	// Contact URI embedded in VAPID tokens, mailto: or https:.
	VapidSubject string

	// Send-endpoint budget per identity, 10 calls per 15 minutes by default.
	SendRateMax    int
	SendRateWindow time.Duration

	// Janitor schedule and the age after which a registration that was never
	// refreshed is considered dead.
	PruneSchedule      string
	RegistrationMaxAge time.Duration
}

func Load() (*Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}

	settingsFile := filepath.Join(dataDir, "settings.json")
	settings, err := LoadServerSettings(settingsFile)
	if err != nil {
		return nil, err
	}

	dbPath := os.Getenv("PERMITHUB_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "permithub.db")
	}

	env := getenvDefault("PERMITHUB_ENV", EnvDevelopment)
	if env != EnvDevelopment && env != EnvProduction {
		return nil, fmt.Errorf("PERMITHUB_ENV must be %q or %q", EnvDevelopment, EnvProduction)
	}

	rateMax, err := parseIntEnv("PERMITHUB_SEND_RATE_MAX", 10)
	if err != nil {
		return nil, err
	}
	rateWindow, err := parseDurationEnv("PERMITHUB_SEND_RATE_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	maxAge, err := parseDurationEnv("PERMITHUB_REGISTRATION_MAX_AGE", 90*24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir:            dataDir,
		DBPath:             dbPath,
		SettingsFile:       settingsFile,
		ListenHost:         settings.ListenHost,
		ListenPort:         settings.ListenPort,
		PublicURL:          settings.PublicURL,
		CorsOrigins:        settings.CorsOrigins,
		Env:                env,
		LogLevel:           getenvDefault("PERMITHUB_LOG_LEVEL", "info"),
		VapidSubject:       settings.VapidSubject,
		SendRateMax:        rateMax,
		SendRateWindow:     rateWindow,
		PruneSchedule:      getenvDefault("PERMITHUB_PRUNE_SCHEDULE", "@every 5m"),
		RegistrationMaxAge: maxAge,
	}, nil
}

func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

func resolveDataDir() (string, error) {
	if custom := os.Getenv("PERMITHUB_HOME"); custom != "" {
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if home == "" {
		return "", errors.New("cannot resolve user home dir")
	}

	return filepath.Join(home, ".permithub"), nil
}

func parsePortEnv(key string, fallback int) (int, error) {
	if raw := os.Getenv(key); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return 0, fmt.Errorf("%s must be a valid port number", key)
		}
		return parsed, nil
	}

	return fallback, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	if raw := os.Getenv(key); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	}
	return fallback, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if raw := os.Getenv(key); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return 0, fmt.Errorf("%s must be a positive duration", key)
		}
		return parsed, nil
	}
	return fallback, nil
}

func getenvDefault(key string, fallback string) string {
	if raw := os.Getenv(key); raw != "" {
		return raw
	}
	return fallback
}
