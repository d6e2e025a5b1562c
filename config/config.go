package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	DBURL         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTPrivateKeyFile string
	JWTPublicKeyFile  string
	JWTIssuer         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration

	MaxLoginAttempts    int
	LockoutDuration     time.Duration
	RecentAttemptWindow time.Duration
	MaxActiveSessions   int

	PasswordMaxAge time.Duration

	TokenSweepInterval   time.Duration
	TokenSweepGrace      time.Duration
	AttemptRetention     time.Duration
	AttemptSweepInterval time.Duration
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBURL:         mustGetEnv("DB_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTPrivateKeyFile: mustGetEnv("JWT_PRIVATE_KEY_FILE"),
		JWTPublicKeyFile:  mustGetEnv("JWT_PUBLIC_KEY_FILE"),
		JWTIssuer:         getEnv("JWT_ISSUER", "clinica-auth"),
		AccessTokenTTL:    getEnvAsDuration("ACCESS_TOKEN_TTL", 900*time.Second),
		RefreshTokenTTL:   getEnvAsDuration("REFRESH_TOKEN_TTL", 604800*time.Second),

		MaxLoginAttempts:    getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:     getEnvAsDuration("LOCKOUT_DURATION", 30*time.Minute),
		RecentAttemptWindow: getEnvAsDuration("RECENT_ATTEMPT_WINDOW", 15*time.Minute),
		MaxActiveSessions:   getEnvAsInt("MAX_ACTIVE_SESSIONS", 5),

		PasswordMaxAge: getEnvAsDuration("PASSWORD_MAX_AGE", 90*24*time.Hour),

		TokenSweepInterval:   getEnvAsDuration("TOKEN_SWEEP_INTERVAL", time.Hour),
		TokenSweepGrace:      getEnvAsDuration("TOKEN_SWEEP_GRACE", 24*time.Hour),
		AttemptRetention:     getEnvAsDuration("ATTEMPT_RETENTION", 30*24*time.Hour),
		AttemptSweepInterval: getEnvAsDuration("ATTEMPT_SWEEP_INTERVAL", 24*time.Hour),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %s", key, defaultVal)
		return defaultVal
	}
	return val
}
