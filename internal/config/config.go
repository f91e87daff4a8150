package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Discord        DiscordConfig        `yaml:"discord"`
	Database       DatabaseConfig       `yaml:"database"`
	NATS           NATSConfig           `yaml:"nats"`
	Server         ServerConfig         `yaml:"server"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
	Auction        AuctionConfig        `yaml:"auction"`
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	GuildID   string `yaml:"guild_id"`
	ChannelID string `yaml:"channel_id"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Driver   string `yaml:"driver"` // "sqlx" or "ent"
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// NATSConfig holds the push fan-out connection settings. When URL is empty
// the NATS notifier is not wired and updates only reach Discord and logs.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Environment    string `yaml:"environment"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// AuctionConfig holds the live-auction rules and timer tuning.
type AuctionConfig struct {
	// BasePrice is the opening price of every nomination, in credits.
	BasePrice int `yaml:"base_price"`
	// MinIncrement is the smallest allowed raise over the highest bid.
	MinIncrement int `yaml:"min_increment"`
	// TeamBudget is the starting budget of a newly registered team.
	TeamBudget int `yaml:"team_budget"`
	// BidSeconds is the countdown for each bidding round; each accepted
	// bid resets it.
	BidSeconds int `yaml:"bid_seconds"`
	// WarningSeconds is the remaining-time band in which warning
	// notifications are emitted.
	WarningSeconds int `yaml:"warning_seconds"`
	// FinalizeGrace is how long expiry-driven finalization waits for an
	// in-flight explicit winner before claiming the round itself.
	FinalizeGrace time.Duration `yaml:"finalize_grace"`
	// Slots are the per-role roster maximums for new teams.
	Slots SlotConfig `yaml:"slots"`
}

// SlotConfig is the classic fantasy football roster shape.
type SlotConfig struct {
	Goalkeepers int `yaml:"goalkeepers"`
	Defenders   int `yaml:"defenders"`
	Midfielders int `yaml:"midfielders"`
	Forwards    int `yaml:"forwards"`
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Driver:  "sqlx",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "fanta-auction",
			ServiceVersion: "0.1.0",
			Environment:    "dev",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "fanta-auction-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
		Auction: AuctionConfig{
			BasePrice:      1,
			MinIncrement:   1,
			TeamBudget:     500,
			BidSeconds:     30,
			WarningSeconds: 10,
			FinalizeGrace:  50 * time.Millisecond,
			Slots: SlotConfig{
				Goalkeepers: 3,
				Defenders:   8,
				Midfielders: 8,
				Forwards:    6,
			},
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlx", "ent":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"sqlx\" or \"ent\"", c.Database.Driver)
	}
	if c.Auction.BasePrice < 1 {
		return fmt.Errorf("auction base_price must be at least 1, got %d", c.Auction.BasePrice)
	}
	if c.Auction.MinIncrement < 1 {
		return fmt.Errorf("auction min_increment must be at least 1, got %d", c.Auction.MinIncrement)
	}
	if c.Auction.BidSeconds < 1 {
		return fmt.Errorf("auction bid_seconds must be at least 1, got %d", c.Auction.BidSeconds)
	}
	if c.Auction.WarningSeconds < 0 || c.Auction.WarningSeconds > c.Auction.BidSeconds {
		return fmt.Errorf("auction warning_seconds must be within [0, bid_seconds], got %d", c.Auction.WarningSeconds)
	}
	return nil
}
