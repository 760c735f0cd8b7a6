package config

import (
	"errors"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Lifecycle    LifecycleConfig
	Sweeper      SweeperConfig
	Notification NotificationConfig
}

type AppConfig struct {
	Port     string
	Env      string
	Timezone string
	LogLevel string
}

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type LifecycleConfig struct {
	Grace           time.Duration
	SlotGranularity time.Duration
}

type SweeperConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
}

type NotificationConfig struct {
	Timeout time.Duration
}

// Location resolves APP_TIMEZONE, falling back to UTC
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads path when it exists; environment variables always win.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SWEEPER_ENABLED", true)
	v.SetDefault("SWEEPER_BATCH_SIZE", 0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			Timezone: v.GetString("APP_TIMEZONE"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Lifecycle: LifecycleConfig{
			Grace:           parseDuration(v.GetString("LIFECYCLE_GRACE"), 15*time.Minute),
			SlotGranularity: parseDuration(v.GetString("LIFECYCLE_SLOT_GRANULARITY"), 30*time.Minute),
		},
		Sweeper: SweeperConfig{
			Enabled:   v.GetBool("SWEEPER_ENABLED"),
			Interval:  parseDuration(v.GetString("SWEEPER_INTERVAL"), 5*time.Minute),
			BatchSize: v.GetInt("SWEEPER_BATCH_SIZE"),
		},
		Notification: NotificationConfig{
			Timeout: parseDuration(v.GetString("NOTIFICATION_TIMEOUT"), 5*time.Second),
		},
	}

	return config, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
