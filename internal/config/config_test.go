package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SCHEDULER_SWEEP_WORKERS", "8")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.JWT.Secret != "test-secret" {
		t.Errorf("JWT.Secret = %q, want env value", cfg.JWT.Secret)
	}
	if cfg.Scheduler.SweepWorkers != 8 {
		t.Errorf("SweepWorkers = %d, want 8", cfg.Scheduler.SweepWorkers)
	}
	if cfg.Lock.TTL != 10*time.Second {
		t.Errorf("Lock.TTL = %v, want 10s", cfg.Lock.TTL)
	}
	if !cfg.Scheduler.ClearSkipOnComplete {
		t.Error("ClearSkipOnComplete should default to true")
	}
	if cfg.Scheduler.DefaultStrategy != "next_available" {
		t.Errorf("DefaultStrategy = %q", cfg.Scheduler.DefaultStrategy)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
jwt:
  secret: from-file
  expiration: 30m
database:
  driver: memory
scheduler:
  timezone: Europe/Berlin
  default_strategy: spread_evenly
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("JWT.Expiration = %v, want 30m", cfg.JWT.Expiration)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Database.Driver = %q, want memory", cfg.Database.Driver)
	}
	loc, err := cfg.Scheduler.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Database:  DatabaseConfig{Driver: "memory"},
			JWT:       JWTConfig{Secret: "s"},
			Scheduler: SchedulerConfig{DefaultWindowWeeks: 2},
			Lock:      LockConfig{Driver: "local", TTL: time.Second},
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad driver", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"bad lock", func(c *Config) { c.Lock.Driver = "etcd" }, true},
		{"no secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"bad strategy", func(c *Config) { c.Scheduler.DefaultStrategy = "random" }, true},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, true},
		{"zero window", func(c *Config) { c.Scheduler.DefaultWindowWeeks = 0 }, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
