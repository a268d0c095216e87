package config

import (
	"fmt"
	"strings"
	"time"

	"alcyxob/workout-scheduler/internal/scheduling"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Lock      LockConfig      `mapstructure:"lock"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mongo or memory
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // dev or prod
}

// SchedulerConfig controls calendar interpretation and the missed-workout sweep.
type SchedulerConfig struct {
	Timezone                 string `mapstructure:"timezone"` // IANA name used to derive "today"
	DefaultWindowWeeks       int    `mapstructure:"default_window_weeks"`
	DefaultStrategy          string `mapstructure:"default_strategy"`
	ClearSkipOnComplete      bool   `mapstructure:"clear_skip_on_complete"`
	SweepEnabled             bool   `mapstructure:"sweep_enabled"`
	SweepCron                string `mapstructure:"sweep_cron"`
	AutoRescheduleAfterSweep bool   `mapstructure:"auto_reschedule_after_sweep"`
	SweepWorkers             int    `mapstructure:"sweep_workers"`
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// LockConfig selects the per-schedule lock backend.
type LockConfig struct {
	Driver        string        `mapstructure:"driver"` // local or redis
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No file: defaults and env vars only
		err = nil
	} else if err != nil {
		return
	}

	// Duration strings ("10s", "1h") decode straight into time.Duration fields.
	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if err = config.Validate(); err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "workout_scheduler")
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.presign_expiry", "15m")
	// AutomaticEnv only overrides keys viper already knows, so even empty keys get a default.
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.mode", "dev")

	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.default_window_weeks", 2)
	v.SetDefault("scheduler.default_strategy", string(scheduling.DefaultStrategy))
	v.SetDefault("scheduler.clear_skip_on_complete", true)
	v.SetDefault("scheduler.sweep_enabled", true)
	v.SetDefault("scheduler.sweep_cron", "15 0 * * *")
	v.SetDefault("scheduler.auto_reschedule_after_sweep", true)
	v.SetDefault("scheduler.sweep_workers", 4)

	v.SetDefault("lock.driver", "local")
	v.SetDefault("lock.redis_addr", "localhost:6379")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.ttl", "10s")
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Lock.Driver {
	case "local", "redis":
	default:
		return fmt.Errorf("unsupported lock.driver %q", c.Lock.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	if _, err := scheduling.ParseStrategy(c.Scheduler.DefaultStrategy); err != nil {
		return fmt.Errorf("scheduler.default_strategy: %w", err)
	}
	if c.Scheduler.DefaultWindowWeeks <= 0 {
		return fmt.Errorf("scheduler.default_window_weeks must be positive")
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive")
	}
	return nil
}
