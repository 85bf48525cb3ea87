package cfg

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Config adds logtriage-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds             int
	ShutdownBudgetSeconds    int
	APIPort                  int
	APIToken                 string
	DatabaseURL              string
	ClaudeAPIKey             string
	ClaudeModel              string
	GenerateTimeoutSeconds   int
	PreloadResource          bool
	CollectorEndpoint        string
	CollectorLogTypes        string
	CollectorIntervalSeconds int
	CollectorBatchSize       int
	SlackWebhookURL          string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on write endpoints (empty = no auth)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the generation backend")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "model used to generate triage notes")
	fs.IntVar(&c.GenerateTimeoutSeconds, "generate-timeout-seconds", 120, "wall-clock bound on one generation call (1..1800)")
	fs.BoolVar(&c.PreloadResource, "preload-resource", false, "load the generation resource at startup instead of on first use")
	fs.StringVar(&c.CollectorEndpoint, "collector-endpoint", "", "event-source agent base URL to poll (empty = push-only ingestion)")
	fs.StringVar(&c.CollectorLogTypes, "collector-log-types", "System,Security,Application", "comma-separated log types the collector polls")
	fs.IntVar(&c.CollectorIntervalSeconds, "collector-interval-seconds", 300, "seconds between collector polls (5..86400)")
	fs.IntVar(&c.CollectorBatchSize, "collector-batch-size", 500, "records requested per log type per poll (1..10000)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for triage notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Generation backend credentials are required
	if c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}
	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}

	if c.GenerateTimeoutSeconds <= 0 || c.GenerateTimeoutSeconds > 1800 {
		errs = append(errs, fmt.Errorf("invalid GENERATE_TIMEOUT_SECONDS %d (must be 1..1800)", c.GenerateTimeoutSeconds))
	}

	// Collector settings only matter when an endpoint is configured
	if c.CollectorEndpoint != "" {
		if c.CollectorIntervalSeconds < 5 || c.CollectorIntervalSeconds > 86400 {
			errs = append(errs, fmt.Errorf("invalid COLLECTOR_INTERVAL_SECONDS %d (must be 5..86400)", c.CollectorIntervalSeconds))
		}
		if c.CollectorBatchSize <= 0 || c.CollectorBatchSize > 10000 {
			errs = append(errs, fmt.Errorf("invalid COLLECTOR_BATCH_SIZE %d (must be 1..10000)", c.CollectorBatchSize))
		}
		if len(c.LogTypes()) == 0 {
			errs = append(errs, errors.New("COLLECTOR_LOG_TYPES must name at least one log type"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogTypes returns the configured collector log types, trimmed, with empty
// entries dropped.
func (c *Config) LogTypes() []string {
	parts := strings.Split(c.CollectorLogTypes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
