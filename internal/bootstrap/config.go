package bootstrap

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TelemetryURL          string
	TelemetryPollInterval time.Duration

	SweepInterval  time.Duration
	RollupInterval time.Duration
	StaleAfter     time.Duration
	StaleGrace     time.Duration

	TTTWarning         float64
	TTTCritical        float64
	EngagementWarning  float64
	EngagementCritical float64
	SilenceFraction    float64
	SilenceMinElapsed  time.Duration

	AutoMonitoring bool

	SendgridAPIKey    string
	ReminderFromName  string
	ReminderFromEmail string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		TelemetryURL:          getEnv("TELEMETRY_URL", ""),
		TelemetryPollInterval: getEnvDuration("TELEMETRY_POLL_INTERVAL", 5*time.Second),

		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 30*time.Second),
		RollupInterval: getEnvDuration("ROLLUP_INTERVAL", 10*time.Second),
		StaleAfter:     getEnvDuration("SESSION_STALE_AFTER", 2*time.Minute),
		StaleGrace:     getEnvDuration("SESSION_STALE_GRACE", time.Minute),

		TTTWarning:         getEnvFloat("TTT_WARNING", 70),
		TTTCritical:        getEnvFloat("TTT_CRITICAL", 85),
		EngagementWarning:  getEnvFloat("ENGAGEMENT_WARNING", 30),
		EngagementCritical: getEnvFloat("ENGAGEMENT_CRITICAL", 15),
		SilenceFraction:    getEnvFloat("SILENCE_FRACTION", 0.4),
		SilenceMinElapsed:  getEnvDuration("SILENCE_MIN_ELAPSED", 2*time.Minute),

		AutoMonitoring: getEnv("AUTO_MONITORING", "true") == "true",

		SendgridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		ReminderFromName:  getEnv("REMINDER_FROM_NAME", "ClassWatch"),
		ReminderFromEmail: getEnv("REMINDER_FROM_EMAIL", "coach@classwatch.example.com"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
