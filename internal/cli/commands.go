// Package cli implements the touchbridge command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"touchbridge/internal/config"
	"touchbridge/internal/dispatch"
	"touchbridge/internal/feedback"
	"touchbridge/internal/logging"
	"touchbridge/internal/network"
)

// Version is set at build time.
var Version = "0.1.0"

// ErrAlreadyHandled is returned by commands that already reported their failure.
var ErrAlreadyHandled = errors.New("already handled")

var okLabel = color.New(color.FgGreen)
var errorLabel = color.New(color.FgRed)
var feedbackLabel = color.New(color.FgCyan)

// options holds the persistent flags and the resolved configuration.
type options struct {
	configFile string
	remoteURL  string
	token      string
	timeout    time.Duration
	logLevel   string
	logFormat  string

	manager *config.Manager
	cfg     *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "touchbridge [command] [flags]",
		Short: "TouchBridge relays touchpad gestures to a remote HID server",
		Long: `TouchBridge turns touch input from a phone or tablet into touch_start,
touch_move and touch_end actions and forwards them to a remote HID server over HTTP.

Examples:
  # Serve the touchpad page and forward to a server
  touchbridge serve --remote http://192.168.1.20:8088

  # Find servers on the local network
  touchbridge discover

  # Replay a recorded gesture
  touchbridge replay two-finger-tap.yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to configuration file to override default")
	flags.StringVar(&opts.remoteURL, "remote", "", "Remote HID server base URL")
	flags.StringVar(&opts.token, "token", "", "Bearer token for the remote server")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newReplayCmd(opts))
	rootCmd.AddCommand(newResetCmd(opts))
	rootCmd.AddCommand(newScrollCmd(opts))
	rootCmd.AddCommand(newCallCmd(opts))
	rootCmd.AddCommand(newDiscoverCmd(opts))
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ErrAlreadyHandled) {
			errorLabel.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// resolve loads the config file, applies flag overrides and sets up logging.
func (o *options) resolve(cmd *cobra.Command) error {
	if o.configFile != "" {
		o.manager = config.NewManagerAt(o.configFile)
	} else {
		m, err := config.NewManager()
		if err != nil {
			return fmt.Errorf("locate config: %w", err)
		}
		o.manager = m
	}
	o.manager.RegisterChangeCallback(func() {
		o.cfg = o.manager.Get()
		log.Debug().Str("component", "config").Str("path", o.manager.Path()).
			Str("remote", o.cfg.Remote.URL).Msg("configuration applied")
	})
	if err := o.manager.Load(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("remote") {
		o.cfg.Remote.URL = o.remoteURL
	}
	if flags.Changed("token") {
		o.cfg.Remote.Token = o.token
	}
	if flags.Changed("timeout") {
		o.cfg.Remote.Timeout = o.timeout
	}
	if flags.Changed("log-level") {
		o.cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		o.cfg.Log.Format = o.logFormat
	}

	logging.InitWriter(cmd.ErrOrStderr(), o.cfg.Log.Level, o.cfg.Log.Format)
	return nil
}

// client builds the transport for the configured remote.
func (o *options) client() (*network.Client, error) {
	if o.cfg.Remote.URL == "" {
		return nil, fmt.Errorf("no remote server configured; pass --remote, set %s or run discover --save", config.EnvRemoteURL)
	}
	return network.NewClient(network.ClientOptions{
		BaseURL: o.cfg.Remote.URL,
		Token:   o.cfg.Remote.Token,
		Timeout: o.cfg.Remote.Timeout,
	})
}

// dispatcher builds a dispatcher for the configured remote.
func (o *options) dispatcher(sink feedback.Sink) (*dispatch.Dispatcher, error) {
	client, err := o.client()
	if err != nil {
		return nil, err
	}
	return dispatch.New(client, sink), nil
}

// consoleSink prints feedback for one-shot commands.
type consoleSink struct {
	w io.Writer
}

func (s consoleSink) ShowFeedback(c feedback.Category) {
	feedbackLabel.Fprintf(s.w, "feedback: %s\n", c)
}

func (s consoleSink) SetStatus(msg string, connected bool) {
	if connected {
		okLabel.Fprintln(s.w, msg)
		return
	}
	errorLabel.Fprintln(s.w, msg)
}

// newVersionCmd creates and returns a new version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "touchbridge %s\n", Version)
		},
	}
}
