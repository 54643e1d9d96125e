package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type AppConfig struct {
	Port           string
	FrontendOrigin string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type DbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type JWTConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

type ThrottleConfig struct {
	MaxAttempts   int
	LockoutWindow time.Duration
}

type BlacklistConfig struct {
	SweepInterval time.Duration
}

type WeatherConfig struct {
	APIKey      string
	BaseURL     string
	DefaultCity string
	Timeout     time.Duration
}

type Config struct {
	AppConfig       *AppConfig
	DbConfig        *DbConfig
	JWTConfig       *JWTConfig
	ThrottleConfig  *ThrottleConfig
	BlacklistConfig *BlacklistConfig
	WeatherConfig   *WeatherConfig
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

func LoadConfig(logger *zap.Logger) (*Config, error) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return nil, errors.New("POSTGRES_DSN is not set")
	}

	maxOpenConns, err := getenvInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	maxIdleConns, err := getenvInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	maxConnLifetime, err := getenvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	dbConfig := &DbConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		MaxConnLifetime: maxConnLifetime,
	}

	readTimeout, err := getenvDuration("APP_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := getenvDuration("APP_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := getenvDuration("APP_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	appConfig := &AppConfig{
		Port:           getenv("APP_PORT", "5000"),
		FrontendOrigin: getenv("FRONTEND_URL", "http://localhost:5173"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET is not set")
		return nil, ErrMissingJWTSecret
	}
	ttl, err := getenvDuration("JWT_EXPIRES_IN", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	jwtConfig := &JWTConfig{
		Secret: []byte(secret),
		Issuer: getenv("JWT_ISSUER", "osma-weather-api"),
		TTL:    ttl,
	}

	maxAttempts, err := getenvInt("LOGIN_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	lockoutWindow, err := getenvDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	throttleConfig := &ThrottleConfig{
		MaxAttempts:   maxAttempts,
		LockoutWindow: lockoutWindow,
	}

	sweepInterval, err := getenvDuration("BLACKLIST_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	blacklistConfig := &BlacklistConfig{SweepInterval: sweepInterval}

	weatherTimeout, err := getenvDuration("OPENWEATHER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	weatherConfig := &WeatherConfig{
		APIKey:      os.Getenv("OPENWEATHER_API_KEY"),
		BaseURL:     getenv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		DefaultCity: getenv("DEFAULT_CITY", "Berlin"),
		Timeout:     weatherTimeout,
	}

	return &Config{
		AppConfig:       appConfig,
		DbConfig:        dbConfig,
		JWTConfig:       jwtConfig,
		ThrottleConfig:  throttleConfig,
		BlacklistConfig: blacklistConfig,
		WeatherConfig:   weatherConfig,
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
