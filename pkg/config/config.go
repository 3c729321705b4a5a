package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"production" validate:"required"`
	// Daemon keeps the process alive across sessions; when false the
	// process exits after the first session's report is written.
	Daemon bool `yaml:"daemon" default:"true"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Log struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"50"`
		MaxBackups int    `yaml:"max_backups" default:"30"`
		MaxAgeDays int    `yaml:"max_age_days" default:"30"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`

	Market struct {
		OpenHour      int           `yaml:"open_hour" default:"9" validate:"gte=0,lte=23"`
		OpenMinute    int           `yaml:"open_minute" default:"15" validate:"gte=0,lte=59"`
		CloseHour     int           `yaml:"close_hour" default:"15" validate:"gte=0,lte=23"`
		CloseMinute   int           `yaml:"close_minute" default:"30" validate:"gte=0,lte=59"`
		Timezone      string        `yaml:"timezone" default:"Asia/Kolkata" validate:"required"`
		CheckInterval time.Duration `yaml:"check_interval" default:"60s" validate:"gt=0"`
	} `yaml:"market"`

	Kite struct {
		BaseURL     string        `yaml:"base_url" default:"https://api.kite.trade"`
		APIKey      string        `yaml:"api_key" validate:"required"`
		AccessToken string        `yaml:"access_token" validate:"required"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
		// Kite allows 3 req/s on quote endpoints; stay under it.
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec" default:"3"`
	} `yaml:"kite"`

	// Strategies maps a registered strategy name to its settings. Unknown
	// names are a startup warning; zero enabled strategies is fatal.
	Strategies map[string]Strategy `yaml:"strategies"`

	Notify struct {
		Email struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"smtp_host"`
			Port     int    `yaml:"smtp_port" default:"587"`
			User     string `yaml:"smtp_user"`
			Password string `yaml:"smtp_password"`
			To       string `yaml:"recipient"`
		} `yaml:"email"`
		WhatsApp struct {
			Enabled    bool   `yaml:"enabled"`
			BaseURL    string `yaml:"base_url" default:"https://api.twilio.com"`
			AccountSID string `yaml:"account_sid"`
			AuthToken  string `yaml:"auth_token"`
			From       string `yaml:"from"`
			To         string `yaml:"to"`
		} `yaml:"whatsapp"`
		Kafka struct {
			Enabled      bool          `yaml:"enabled"`
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"optalert.alerts"`
			Compression  string        `yaml:"compression" default:"gzip"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"kafka"`
		Stream struct {
			Enabled bool `yaml:"enabled" default:"true"`
		} `yaml:"stream"`
	} `yaml:"notify"`

	Report struct {
		Dir           string `yaml:"dir" default:"reports"`
		RetentionDays int    `yaml:"retention_days" default:"30" validate:"gt=0"`
		ClickHouse    struct {
			Enabled      bool          `yaml:"enabled"`
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port" default:"9000"`
			Database     string        `yaml:"database" default:"optalert"`
			User         string        `yaml:"user" default:"default"`
			Password     string        `yaml:"password"`
			DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"clickhouse"`
	} `yaml:"report"`

	Cache struct {
		// Instrument catalog TTL; the catalog only changes overnight.
		CatalogTTL time.Duration `yaml:"catalog_ttl" default:"12h"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Strategy holds one strategy's settings. The parameter fields are shared
// across strategies; each constructor reads the ones it understands and
// falls back to its own defaults for the rest.
type Strategy struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`

	// williams_r
	Period       int              `yaml:"period"`
	// Pointer so an explicit 0 is distinct from unset.
	Threshold    *float64         `yaml:"threshold"`
	Interval     string           `yaml:"interval"`
	LookbackDays int              `yaml:"lookback_days"`
	Instruments  map[string]int64 `yaml:"instruments"`

	// oi_screener / oi_spurt
	Symbols   []string `yaml:"symbols"`
	Strikes   string   `yaml:"strikes"`
	ChangePct float64  `yaml:"change_pct"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Defaults go in first so the file can override them, including
	// setting a defaulted bool back to false.
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	// Secrets may arrive only through the environment; pre-seed them so
	// required-field validation passes.
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if b, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	} else if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("KITE_API_KEY"); v != "" {
		c.Kite.APIKey = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		c.Kite.AccessToken = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Notify.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Notify.Email.Password = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Notify.WhatsApp.AuthToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	open := c.Market.OpenHour*60 + c.Market.OpenMinute
	close := c.Market.CloseHour*60 + c.Market.CloseMinute
	if open >= close {
		return fmt.Errorf("market window: open %02d:%02d must be before close %02d:%02d",
			c.Market.OpenHour, c.Market.OpenMinute, c.Market.CloseHour, c.Market.CloseMinute)
	}

	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market timezone: %w", err)
	}

	if len(c.Strategies) == 0 {
		return fmt.Errorf("strategies section is empty")
	}

	if c.Notify.Kafka.Enabled && len(c.Notify.Kafka.Brokers) == 0 {
		return fmt.Errorf("notify.kafka.brokers required when kafka channel is enabled")
	}
	if c.Report.ClickHouse.Enabled && c.Report.ClickHouse.Host == "" {
		return fmt.Errorf("report.clickhouse.host required when clickhouse archive is enabled")
	}

	return nil
}
