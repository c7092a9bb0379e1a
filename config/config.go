package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                       string `yaml:"dsn"`
	MaxOpenConns              int    `yaml:"max_open_conns"`
	MaxIdleConns              int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes    int    `yaml:"conn_max_lifetime_minutes"`
	EnableExclusionConstraint bool   `yaml:"enable_exclusion_constraint"`
}

// BookingConfig tunes the booking scheduler and the reminder sweep.
type BookingConfig struct {
	PastGraceMinutes     int  `yaml:"past_grace_minutes"`
	ReminderLeadMinutes  int  `yaml:"reminder_lead_minutes"`
	ReminderSweepSeconds int  `yaml:"reminder_sweep_seconds"`
	RemindersEnabled     bool `yaml:"reminders_enabled"`

	PastGrace             time.Duration `yaml:"-"`
	ReminderLead          time.Duration `yaml:"-"`
	ReminderSweepInterval time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Booking.PastGraceMinutes <= 0 {
		cfg.Booking.PastGraceMinutes = 5
	}
	cfg.Booking.PastGrace = time.Duration(cfg.Booking.PastGraceMinutes) * time.Minute

	if cfg.Booking.ReminderLeadMinutes <= 0 {
		cfg.Booking.ReminderLeadMinutes = 30
	}
	cfg.Booking.ReminderLead = time.Duration(cfg.Booking.ReminderLeadMinutes) * time.Minute

	if cfg.Booking.ReminderSweepSeconds <= 0 {
		cfg.Booking.ReminderSweepSeconds = 60
	}
	cfg.Booking.ReminderSweepInterval = time.Duration(cfg.Booking.ReminderSweepSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
