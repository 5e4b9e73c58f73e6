package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/cloud-guardian/internal/cloud"
	"github.com/ogulcanaydogan/cloud-guardian/internal/config"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/metrics"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/monitor"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/storage"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/usage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Cloud Guardian - cost and CPU threshold monitoring for AWS accounts",
	Long: `Cloud Guardian checks month-to-date AWS spend and the CPU utilization of
running EC2 instances against configured thresholds, and raises a structured
alert report through the console, SNS, Slack or a signed webhook.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute runs the CLI and exits with the status of the command.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return monitor.ExitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return monitor.ExitError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.guardian/config.yaml)")
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// app holds the wired components for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	clients *cloud.Clients
	monitor *monitor.Monitor
	journal *storage.SQLite
}

func (a *app) Close() error {
	if a.journal != nil {
		return a.journal.Close()
	}
	return nil
}

// initClients builds provider clients for the configured mode.
func initClients(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cloud.Clients, error) {
	if cfg.Provider.Mode == config.ModeFixture {
		f, err := cloud.LoadFixture(cfg.Provider.FixturePath, logger)
		if err != nil {
			return nil, err
		}
		return cloud.FixtureClients(f), nil
	}

	awsCfg, err := cloud.LoadAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.Profile)
	if err != nil {
		return nil, err
	}
	return cloud.NewAWSClients(awsCfg), nil
}

// initSource registers every utilization source and returns the configured one.
func initSource(cfg *config.Config, clients *cloud.Clients, logger *slog.Logger) (usage.Source, error) {
	registry := usage.NewRegistry()
	if err := registry.Register(usage.NewSimulatedSource()); err != nil {
		return nil, err
	}
	cw := usage.NewCloudWatchSource(clients.CloudWatch, cfg.Utilization.Lookback, cfg.Utilization.RequestsPerSecond, logger)
	if err := registry.Register(cw); err != nil {
		return nil, err
	}
	return registry.Get(cfg.Utilization.Source)
}

// initJournal opens the alert journal, or returns nil when it is disabled.
func initJournal(cfg *config.Config) (*storage.SQLite, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	j, err := storage.NewSQLite(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("open alert journal: %w", err)
	}
	return j, nil
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config, clients *cloud.Clients, journal *storage.SQLite, stdout io.Writer) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Console.Enabled {
		notifiers = append(notifiers, alerts.NewConsoleNotifier(stdout, cfg.Alerts.SNS.TopicARN))
	}

	if cfg.Alerts.SNS.Enabled {
		notifiers = append(notifiers, alerts.NewSNSNotifier(clients.SNS, cfg.Alerts.SNS.TopicARN))
	}

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	if journal != nil {
		notifiers = append(notifiers, alerts.NewJournalNotifier(journal))
	}

	return notifiers
}

// initApp creates a fully wired monitor.
func initApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	clients, err := initClients(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("provider setup failed", "class", metrics.Classification(err), "error", err)
		return nil, err
	}

	src, err := initSource(cfg, clients, logger)
	if err != nil {
		return nil, err
	}

	journal, err := initJournal(cfg)
	if err != nil {
		return nil, err
	}

	// With no sinks the monitor leaves printing to the command.
	var notifier alerts.Notifier
	if multi := alerts.NewMulti(logger, initNotifiers(cfg, clients, journal, cmd.OutOrStdout())...); multi.Len() > 0 {
		notifier = multi
	}
	m := monitor.New(
		monitor.Config{
			CostThreshold: cfg.Thresholds.Cost,
			CPUThreshold:  cfg.Thresholds.CPU,
			Concurrency:   cfg.Utilization.Concurrency,
		},
		metrics.NewCostFetcher(clients.CostExplorer, logger),
		metrics.NewInventoryFetcher(clients.EC2, logger),
		src,
		notifier,
		logger,
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		clients: clients,
		monitor: m,
		journal: journal,
	}, nil
}
