package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/speedlog/pkg/config"
	"github.com/ccollicutt/speedlog/pkg/fsutil"
	"github.com/ccollicutt/speedlog/pkg/parser"
	"github.com/ccollicutt/speedlog/pkg/speedtest"
)

// linesToProbe is how many logfile lines the timestamp check reads.
const linesToProbe = 40

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your setup for common problems:
- Config file syntax and structure
- Dataset directory existence and write access
- Logfile directory contents
- Timestamp parsing against the first logfile
- Measurement servers (reachability with -v)
- Webhook configuration (reachability with -v)

Example:
  speedlog diagnose speedlog.yaml
  speedlog diagnose -v speedlog.yaml  # verbose output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := os.Getenv(config.EnvConfig)
			if len(args) == 1 {
				configPath = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), configPath, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output and test connectivity")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	if configPath != "" {
		result := checkConfigExists(configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
	}

	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	results = append(results, checkSamplesDir(cfg))
	results = append(results, checkLogsDir(cfg, opts)...)
	results = append(results, checkServers(ctx, cfg, opts)...)
	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Run without a config file to use the defaults and environment",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		if strings.Contains(err.Error(), "timezone") {
			result.Suggests = append(result.Suggests, "Use an IANA zone name such as Europe/Berlin")
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Configuration loaded successfully"
	result.Details = []string{
		fmt.Sprintf("Time zone: %s", cfg.Location()),
		fmt.Sprintf("Interval: %s", cfg.Sampler.Interval),
		fmt.Sprintf("Servers: %d", len(cfg.Measurement.Servers)),
	}
	return cfg, result
}

func checkSamplesDir(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Samples Directory",
	}

	if err := cfg.RequireSamplesDir(); err != nil {
		result.Status = "error"
		result.Message = err.Error()
		result.Suggests = []string{
			fmt.Sprintf("Set samples_dir in the config file or %s", config.EnvSamplesDir),
		}
		return result
	}

	probe, err := os.CreateTemp(cfg.SamplesDir, ".speedlog-probe-*")
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Directory is not writable: %v", err)
		result.Suggests = []string{"Check directory permissions"}
		return result
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	files, err := fsutil.List(cfg.SamplesDir, cfg.DatasetExtension)
	if err != nil {
		result.Status = "warning"
		result.Message = err.Error()
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%s is writable, %d dataset(s)", cfg.SamplesDir, len(files))
	for _, f := range files {
		result.Details = append(result.Details, f.Name)
	}
	return result
}

func checkLogsDir(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	result := DiagnosticResult{
		Check: "Logs Directory",
	}

	if err := cfg.RequireLogsDir(); err != nil {
		// Only the import command needs logfiles.
		result.Status = "warning"
		result.Message = err.Error()
		return []DiagnosticResult{result}
	}

	files, err := fsutil.List(cfg.LogsDir, cfg.LogExtension)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return []DiagnosticResult{result}
	}
	if len(files) == 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("No %s logfiles in %s", cfg.LogExtension, cfg.LogsDir)
		return []DiagnosticResult{result}
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d logfile(s) in %s", len(files), cfg.LogsDir)
	for _, f := range files {
		result.Details = append(result.Details, f.Name)
	}

	return []DiagnosticResult{result, checkTimestampFormat(cfg, files[0].Path, opts)}
}

func checkTimestampFormat(cfg *config.Config, logFile string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Timestamp Test: %s", filepath.Base(logFile)),
	}

	content, err := os.ReadFile(logFile) // #nosec G304 -- logfile found in the configured directory
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}

	lines := parser.SplitLines(string(content))
	if len(lines) > linesToProbe {
		lines = lines[:linesToProbe]
	}

	ts := parser.NewTimestampParser(cfg.Location())
	candidates, parsed := 0, 0
	var sampleMatch, sampleFail string
	var first time.Time
	for _, line := range lines {
		if !parser.ContainsWeekday(line) {
			continue
		}
		candidates++
		if t, ok := ts.Parse(line); ok {
			parsed++
			if sampleMatch == "" {
				sampleMatch, first = line, t
			}
		} else if sampleFail == "" {
			sampleFail = line
		}
	}

	switch {
	case candidates == 0:
		result.Status = "error"
		result.Message = "No timestamp lines found"
		result.Suggests = []string{
			"Timestamp lines start with a weekday, e.g. 'Mo 1. Mär 10:15:00 CET 2021'",
		}
	case parsed < candidates:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Parsed %d/%d timestamp lines", parsed, candidates)
		result.Details = []string{
			"Sample line that didn't parse:",
			truncate(sampleFail, 80),
		}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Parsed %d/%d timestamp lines", parsed, candidates)
		if opts.Verbose {
			result.Details = []string{
				"Sample match:",
				truncate(sampleMatch, 80),
				fmt.Sprintf("Localized: %s", first.Format(time.RFC3339)),
			}
		}
	}
	return result
}

func checkServers(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	result := DiagnosticResult{
		Check: "Measurement Servers",
	}

	if len(cfg.Measurement.Servers) == 0 {
		// Only the sample command needs servers.
		result.Status = "warning"
		result.Message = "No speed test servers configured"
		result.Suggests = []string{"Add measurement.servers to sample the connection"}
		return []DiagnosticResult{result}
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d server(s) configured", len(cfg.Measurement.Servers))
	result.Details = append(result.Details, cfg.Measurement.Servers...)
	results := []DiagnosticResult{result}

	if opts.Verbose {
		conn := DiagnosticResult{Check: "Measurement Connectivity"}
		m := speedtest.NewHTTPMeasurer(speedtest.Options{
			Servers: cfg.Measurement.Servers,
			Timeout: 5 * time.Second,
		})
		best, err := m.BestServer(ctx)
		if err != nil {
			conn.Status = "error"
			conn.Message = fmt.Sprintf("No server reachable: %v", err)
			conn.Suggests = []string{
				"Servers must answer GET /latency",
				"Verify network connectivity",
			}
		} else {
			conn.Status = "ok"
			conn.Message = fmt.Sprintf("Lowest latency: %s", best)
		}
		results = append(results, conn)
	}
	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== speedlog Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before importing or sampling.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		// URL and trigger were already validated by config.Load.
		if strings.HasPrefix(wh.Token, "$") {
			result.Status = "warning"
			result.Message = "1 warning(s)"
			result.Details = []string{fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token)}
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}
		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
