package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/speedlog/internal/logger"
	"github.com/ccollicutt/speedlog/pkg/config"
	"github.com/ccollicutt/speedlog/pkg/fsutil"
	"github.com/ccollicutt/speedlog/pkg/output"
	"github.com/ccollicutt/speedlog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions are the flags every command that reads the configuration
// accepts.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

func (g *GlobalOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&g.ConfigPath, "config", "c", "", "Configuration file (default $"+config.EnvConfig+", else defaults and environment)")
	cmd.Flags().StringVar(&g.LogLevel, "log-level", "", "Log level override (debug|info|warn|error)")
}

func (g *GlobalOptions) configPath() string {
	if g.ConfigPath != "" {
		return g.ConfigPath
	}
	return os.Getenv(config.EnvConfig)
}

// setup loads the configuration and initializes the logger. The returned
// context carries the command logger.
func setup(cmd *cobra.Command, g *GlobalOptions) (context.Context, *config.Config, *zap.SugaredLogger, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, g.configPath())
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}

	logger.Init(cfg.Logging)
	log := logger.Get(ctx).With("command", cmd.Name())
	return logger.WithContext(ctx, log), cfg, log, nil
}

// resolveDatasets returns the dataset files named by args (paths or glob
// patterns) or, without args, every dataset in the samples directory in
// name order.
func resolveDatasets(cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		paths, err := fsutil.ExpandGlobs(args)
		if err != nil {
			return nil, err
		}
		return paths, nil
	}

	if err := cfg.RequireSamplesDir(); err != nil {
		return nil, err
	}
	files, err := fsutil.List(cfg.SamplesDir, cfg.DatasetExtension)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s datasets in %s", cfg.DatasetExtension, cfg.SamplesDir)
	}
	return paths, nil
}

// ReportOptions are the output flags shared by report-producing commands.
type ReportOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
}

func (r *ReportOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&r.Verbose, "verbose", "v", false, "Show details")
	cmd.Flags().BoolVarP(&r.Quiet, "quiet", "q", false, "Summary only, no details")
}

func (r *ReportOptions) formatter() (output.Formatter, error) {
	return output.New(r.Output, output.FormatOptions{Verbose: r.Verbose, Quiet: r.Quiet})
}

// WebhookOptions add a webhook on the command line.
type WebhookOptions struct {
	URL     string
	Token   string
	Trigger string
}

func (w *WebhookOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.URL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&w.Token, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&w.Trigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, w *WebhookOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if w.URL != "" {
		trigger := config.WebhookTrigger(w.Trigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnIssues
		}
		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     w.URL,
			Token:   w.Token,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}
	return webhooks
}

// sendWebhooks posts a report to all configured webhooks. Failures are
// logged but do not fail the command.
func sendWebhooks(ctx context.Context, cfg *config.Config, w *WebhookOptions, event *webhook.Event, log *zap.SugaredLogger) {
	hooks := collectWebhooks(cfg, w)
	if len(hooks) == 0 {
		return
	}
	webhook.NewClient().Dispatch(ctx, hooks, event, log)
}
