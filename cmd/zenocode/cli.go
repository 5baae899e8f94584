package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/zenocode/zenocode/internal/logging"
	"github.com/zenocode/zenocode/pkg/config"
	"github.com/zenocode/zenocode/pkg/middleware"
	"github.com/zenocode/zenocode/pkg/registry"
	"github.com/zenocode/zenocode/pkg/retry"
	"github.com/zenocode/zenocode/pkg/types"
)

// CLI is the command line of zenocode
type CLI struct {
	Provider string        `short:"p" help:"Provider to use (default from config, else openai)"`
	Model    string        `short:"m" help:"Model to request"`
	Stream   bool          `short:"s" help:"Print fragments as they arrive, exactly as the backend splits them"`
	Config   string        `short:"c" help:"Path to a YAML config file" type:"path" default:"zenocode.yaml"`
	List     bool          `short:"l" help:"List available providers and exit"`
	Retries  int           `help:"Retries for transient failures" default:"2"`
	Timeout  time.Duration `help:"Per-request timeout (e.g. 30s)"`
	Verbose  bool          `short:"v" help:"Log requests to stderr"`
	LogLevel string        `help:"Log level (trace, debug, info, warn, error, off)" env:"ZENOCODE_LOG_LEVEL" default:"warn"`

	Prompt []string `arg:"" optional:"" help:"Prompt to send"`
}

// Run executes one invocation. Replies go to stdout and logs to stderr.
func (c *CLI) Run(ctx context.Context, stdout, stderr io.Writer) error {
	logger := c.logger(stderr)

	reg := registry.New(registry.WithLogger(logger))
	registry.RegisterBuiltins(reg)

	if c.List {
		for _, name := range reg.Available() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	prompt := strings.Join(c.Prompt, " ")
	if strings.TrimSpace(prompt) == "" {
		return errors.New("no prompt given")
	}

	cfg, err := config.LoadWithOptions(config.Options{
		Path:     c.Config,
		EnvFile:  config.DefaultEnvFile,
		Provider: c.Provider,
		Model:    c.Model,
	})
	if err != nil {
		return err
	}
	c.applyOverrides(&cfg)
	logger.Debug().Interface("config", cfg.Redacted()).Msg("configuration loaded")

	provider, err := reg.ResolveConfig(ctx, cfg)
	if err != nil {
		return err
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = c.Retries
	policy.Notify = func(attempt int, err error, delay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying")
	}
	provider = middleware.Chain(provider,
		middleware.Logging(cfg.Provider, logger),
		middleware.CircuitBreaker(cfg.Provider, middleware.BreakerConfig{}, logger),
		middleware.Retry(policy),
	)

	if c.Stream {
		return streamTo(ctx, provider, prompt, stdout)
	}

	reply, err := provider.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, reply)
	return nil
}

func (c *CLI) logger(stderr io.Writer) zerolog.Logger {
	level := logging.ParseLevel(c.LogLevel)
	if c.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	return logging.New(logging.Config{Level: level, Output: stderr, Pretty: true})
}

func (c *CLI) applyOverrides(cfg *types.Config) {
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
}

// streamTo prints fragments as they arrive, byte for byte. A backend that
// streams bare words prints them unseparated. Fragments already printed stay
// printed when the stream fails.
func streamTo(ctx context.Context, provider types.Provider, prompt string, out io.Writer) error {
	src, err := provider.Stream(ctx, prompt)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	for {
		text, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		fmt.Fprint(out, text)
	}
}

// printError writes err in red, adding the registered names when the
// provider was not found.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(w, "%s %v\n", red.Sprint("error:"), err)

	var pe *types.ProviderError
	if errors.As(err, &pe) && pe.Code == types.ErrCodeProviderNotFound {
		dim := color.New(color.FgHiBlack)
		if len(pe.Available) == 0 {
			fmt.Fprintln(w, dim.Sprint("no providers are registered"))
			return
		}
		fmt.Fprintln(w, dim.Sprintf("available providers: %s", strings.Join(pe.Available, ", ")))
	}
}
