package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Coach access key exchanged for a JWT at /api/coach/login.
	CoachAccessKey string `mapstructure:"COACH_ACCESS_KEY"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`

	// External calendar configuration.
	CalendarBaseURL string `mapstructure:"CALENDAR_BASE_URL"`
	CalendarID      string `mapstructure:"CALENDAR_ID"`
	CalendarToken   string `mapstructure:"CALENDAR_TOKEN"`

	// Booking engine settings.
	Timezone             string `mapstructure:"TIMEZONE"`
	BusinessStartHour    int    `mapstructure:"BUSINESS_START_HOUR"`
	BusinessEndHour      int    `mapstructure:"BUSINESS_END_HOUR"`
	WorkingDays          []int  `mapstructure:"WORKING_DAYS"` // time.Weekday values, 0=Sunday
	FreeSessionMinutes   int    `mapstructure:"FREE_SESSION_MINUTES"`
	PaidSessionMinutes   int    `mapstructure:"PAID_SESSION_MINUTES"`
	CalendarMaxRetries   int    `mapstructure:"CALENDAR_MAX_RETRIES"`
	CalendarRetryBackoff int    `mapstructure:"CALENDAR_RETRY_BACKOFF_MS"`
	CalendarTimeout      int    `mapstructure:"CALENDAR_TIMEOUT_MS"`
	SessionIdleMinutes   int    `mapstructure:"SESSION_IDLE_MINUTES"`
	MaxRequestsPerMin    int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_CACHE_DB", 1)
	viper.SetDefault("CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3")
	viper.SetDefault("TIMEZONE", "Europe/Paris")
	viper.SetDefault("BUSINESS_START_HOUR", 9)
	viper.SetDefault("BUSINESS_END_HOUR", 20)
	viper.SetDefault("WORKING_DAYS", []int{1, 2, 3, 4, 5, 6})
	viper.SetDefault("FREE_SESSION_MINUTES", 60)
	viper.SetDefault("PAID_SESSION_MINUTES", 60)
	viper.SetDefault("CALENDAR_MAX_RETRIES", 3)
	viper.SetDefault("CALENDAR_RETRY_BACKOFF_MS", 500)
	viper.SetDefault("CALENDAR_TIMEOUT_MS", 5000)
	viper.SetDefault("SESSION_IDLE_MINUTES", 30)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := time.LoadLocation(AppConfig.Timezone); err != nil {
		log.Fatalf("Invalid TIMEZONE %q: %v", AppConfig.Timezone, err)
	}
}

// Location returns the configured timezone. All slot computation happens in it.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SessionIdleTTL is how long a booking session may sit without requester
// input before it self-cancels (enforced as the Redis key TTL).
func SessionIdleTTL() time.Duration {
	return time.Duration(AppConfig.SessionIdleMinutes) * time.Minute
}

// SessionDuration returns the configured duration for a session type.
func SessionDuration(sessionType string) int {
	if sessionType == "paid" {
		return AppConfig.PaidSessionMinutes
	}
	return AppConfig.FreeSessionMinutes
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
