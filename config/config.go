package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Booking policy.
	TaxPercent           float64       `mapstructure:"TAX_PERCENT"`
	DropOffOTPTTL        time.Duration `mapstructure:"DROPOFF_OTP_TTL"`
	PickupOTPTTL         time.Duration `mapstructure:"PICKUP_OTP_TTL"`
	CancelWindowHours    int           `mapstructure:"CANCEL_WINDOW_HOURS"`
	FullRefundHours      int           `mapstructure:"FULL_REFUND_HOURS"`
	PartialRefundPercent float64       `mapstructure:"PARTIAL_REFUND_PERCENT"`
	OTPHashCost          int           `mapstructure:"OTP_HASH_COST"`
	ReminderLeadTime     time.Duration `mapstructure:"REMINDER_LEAD_TIME"`
}

var AppConfig Config

func LoadConfig() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

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
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "petcare")
	viper.SetDefault("JWT_SECRET", "")

	viper.SetDefault("TAX_PERCENT", 18.0)
	viper.SetDefault("DROPOFF_OTP_TTL", 15*time.Minute)
	viper.SetDefault("PICKUP_OTP_TTL", 30*time.Minute)
	viper.SetDefault("CANCEL_WINDOW_HOURS", 24)
	viper.SetDefault("FULL_REFUND_HOURS", 48)
	viper.SetDefault("PARTIAL_REFUND_PERCENT", 50.0)
	viper.SetDefault("OTP_HASH_COST", 10)
	viper.SetDefault("REMINDER_LEAD_TIME", 24*time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if AppConfig.JWTSecret == "" && IsProduction() {
		log.Fatal("JWT_SECRET must be set in production")
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
