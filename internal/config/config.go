package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider modes.
const (
	ModeAWS     = "aws"
	ModeFixture = "fixture"
)

// Utilization sources.
const (
	SourceSimulated  = "simulated"
	SourceCloudWatch = "cloudwatch"
)

// MinLookback is one CloudWatch datapoint period.
const MinLookback = 5 * time.Minute

// Config holds all Cloud Guardian configuration.
type Config struct {
	Thresholds  ThresholdsConfig  `mapstructure:"thresholds"`
	AWS         AWSConfig         `mapstructure:"aws"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Utilization UtilizationConfig `mapstructure:"utilization"`
	Alerts      AlertsConfig      `mapstructure:"alerts"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ThresholdsConfig defines the alert thresholds for both jobs.
type ThresholdsConfig struct {
	Cost float64 `mapstructure:"cost"` // USD, month to date
	CPU  float64 `mapstructure:"cpu"`  // percent
}

// AWSConfig defines account access.
type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// ProviderConfig selects live AWS or an offline fixture.
type ProviderConfig struct {
	Mode        string `mapstructure:"mode"`
	FixturePath string `mapstructure:"fixture_path"`
}

// UtilizationConfig defines how CPU readings are obtained.
type UtilizationConfig struct {
	Source            string        `mapstructure:"source"`
	Concurrency       int           `mapstructure:"concurrency"`
	Lookback          time.Duration `mapstructure:"lookback"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Console ConsoleConfig `mapstructure:"console"`
	SNS     SNSConfig     `mapstructure:"sns"`
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// ConsoleConfig defines stdout report output.
type ConsoleConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SNSConfig defines SNS topic settings.
type SNSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TopicARN string `mapstructure:"topic_arn"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// JournalConfig defines the alert journal database.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".guardian"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("GUARDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("thresholds.cost", 100.0)
	v.SetDefault("thresholds.cpu", 80.0)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.profile", "")
	v.SetDefault("provider.mode", ModeAWS)
	v.SetDefault("provider.fixture_path", filepath.Join("fixtures", "demo.yaml"))
	v.SetDefault("utilization.source", SourceSimulated)
	v.SetDefault("utilization.concurrency", 8)
	v.SetDefault("utilization.lookback", "10m")
	v.SetDefault("utilization.requests_per_second", 5.0)
	v.SetDefault("alerts.console.enabled", true)
	v.SetDefault("alerts.sns.enabled", false)
	v.SetDefault("alerts.sns.topic_arn", "arn:aws:sns:us-east-1:123456789012:cost-alerts")
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.slack.webhook_url", "")
	v.SetDefault("alerts.slack.channel", "#cloud-alerts")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("alerts.webhook.url", "")
	v.SetDefault("alerts.webhook.secret", "")
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", filepath.Join(home, ".guardian", "alerts.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if err := CheckThreshold("thresholds.cost", c.Thresholds.Cost); err != nil {
		errs = append(errs, err)
	}
	if err := CheckThreshold("thresholds.cpu", c.Thresholds.CPU); err != nil {
		errs = append(errs, err)
	}

	switch c.Provider.Mode {
	case ModeAWS:
		if c.AWS.Region == "" {
			errs = append(errs, errors.New("aws.region is required"))
		}
	case ModeFixture:
		if c.Provider.FixturePath == "" {
			errs = append(errs, errors.New("provider.fixture_path is required in fixture mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider.mode %q", c.Provider.Mode))
	}

	switch c.Utilization.Source {
	case SourceSimulated, SourceCloudWatch:
	default:
		errs = append(errs, fmt.Errorf("unknown utilization.source %q", c.Utilization.Source))
	}
	if c.Utilization.Source == SourceCloudWatch && c.Utilization.Lookback < MinLookback {
		errs = append(errs, fmt.Errorf("utilization.lookback must be at least %s with the cloudwatch source, got %s", MinLookback, c.Utilization.Lookback))
	}
	if c.Utilization.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("utilization.concurrency must be at least 1, got %d", c.Utilization.Concurrency))
	}

	if c.Alerts.SNS.Enabled && c.Alerts.SNS.TopicARN == "" {
		errs = append(errs, errors.New("alerts.sns.topic_arn is required when sns is enabled"))
	}
	if c.Alerts.Slack.Enabled && c.Alerts.Slack.WebhookURL == "" {
		errs = append(errs, errors.New("alerts.slack.webhook_url is required when slack is enabled"))
	}
	if c.Alerts.Webhook.Enabled && c.Alerts.Webhook.URL == "" {
		errs = append(errs, errors.New("alerts.webhook.url is required when webhook is enabled"))
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// CheckThreshold rejects negative, NaN and infinite threshold values.
func CheckThreshold(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s must be a non-negative finite number, got %v", name, v)
	}
	return nil
}
