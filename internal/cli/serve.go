package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"touchbridge/internal/api"
	"touchbridge/internal/feedback"
	"touchbridge/internal/frontend"
	"touchbridge/internal/network"
	"touchbridge/internal/osutils"
	"touchbridge/internal/tray"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		port   int
		noTray bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the touchpad page and forward its gestures",
		Long: `Serve the touchpad page on the local network. Touches on the page are tracked
as sessions and forwarded to the remote HID server; its responses are pushed back to the page.

Examples:
  # Serve on the configured port
  touchbridge serve --remote http://192.168.1.20:8088

  # Serve on another port without a tray icon
  touchbridge serve --port 9000 --no-tray`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				opts.cfg.Listen.Port = port
			}
			if err := opts.cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd, opts, opts.cfg.TrayEnabled && !noTray)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port for the touchpad page")
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "Do not show a system tray icon")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options, withTray bool) error {
	cfg := opts.cfg
	client, err := opts.client()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := api.NewHub()
	sinks := []feedback.Sink{feedback.NewLogSink(log.Logger), hub}
	var tr *tray.Tray
	if withTray {
		tr = tray.New(feedback.StatusReady)
		sinks = append(sinks, tr)
	}
	sink := feedback.NewFence(feedback.Tee(sinks...))

	d, err := opts.dispatcher(sink)
	if err != nil {
		return err
	}
	loop := frontend.NewLoop(d, sink, nil)
	server := api.NewServer(loop, hub, api.Options{RemoteURL: client.BaseURL()})

	if cfg.Listen.OpenFirewall {
		if err := osutils.EnsureFirewallRule(cfg.Listen.Port); err != nil {
			log.Warn().Err(err).Msg("could not open firewall port")
		}
	}

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Run(ctx, cfg.Listen.Addr())
		stop()
	}()

	pageURL := fmt.Sprintf("http://localhost:%d/", cfg.Listen.Port)
	if ip, err := network.GetLocalIP(); err == nil {
		pageURL = fmt.Sprintf("http://%s:%d/", ip, cfg.Listen.Port)
	}
	okLabel.Fprintf(cmd.OutOrStdout(), "Touchpad page: %s\n", pageURL)
	fmt.Fprintf(cmd.OutOrStdout(), "Forwarding to: %s\n", client.BaseURL())
	sink.SetStatus(feedback.StatusReady, true)

	if tr != nil {
		tr.AddMenuItem("Reset touchpad", "Drop the remote touchpad state", func() {
			if err := loop.Post(ctx, frontend.Event{Type: frontend.EventReset}); err != nil {
				log.Warn().Err(err).Msg("reset not posted")
			}
		})
		tr.AddMenuItem("Open touchpad page", pageURL, func() {
			if err := osutils.OpenBrowser(pageURL); err != nil {
				log.Warn().Err(err).Msg("could not open browser")
			}
		})
		tr.AddSeparator()
		tr.AddMenuItem("Quit", "", stop)

		go func() {
			<-ctx.Done()
			tr.Stop()
		}()
		tr.Run()
		stop()
	}

	<-ctx.Done()
	err = <-serveErr
	<-loopDone
	return err
}
