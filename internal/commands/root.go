// Package commands implements the sdfront command-line interface.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cheahjs/stable-diffusion-frontend/internal/client"
	"github.com/cheahjs/stable-diffusion-frontend/internal/config"
)

// rootOptions carries the persistent flags and the resolved config to subcommands.
type rootOptions struct {
	configPath string
	baseURL    string
	logLevel   string
	timeout    time.Duration

	cfg config.Config
}

// NewRootCommand builds the sdfront command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "sdfront",
		Short: "Front end for a Stable Diffusion image generation API",
		Long: `sdfront talks to a Stable Diffusion REST backend. It can serve a
gateway for browser front ends or generate and browse images from the
command line.

The backend address comes from --base-url, the config file, or the
SD_API_URL environment variable (default http://localhost:8000).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.baseURL, "base-url", "", "Backend base URL (overrides config and environment)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Backend request timeout, e.g. 90s")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newGalleryCmd(opts),
		newHealthCmd(opts),
		newDownloadCmd(opts),
	)
	return rootCmd
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = o.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := setupLogging(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func (o *rootOptions) newClient() *client.Client {
	return client.New(o.cfg.TrimmedBaseURL(),
		client.WithTimeout(o.cfg.RequestTimeout),
		client.WithLogger(log.Logger),
	)
}

// setupLogging configures the global zerolog logger. Terminals get the
// human-readable console format, everything else gets JSON lines.
func setupLogging(level string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return nil
}
