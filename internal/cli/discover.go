package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"touchbridge/internal/network"
)

func newDiscoverCmd(opts *options) *cobra.Command {
	var (
		port     int
		save     bool
		asJSON   bool
		deadline time.Duration
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan the local network for remote HID servers",
		Long: `Scan the local /24 network for servers that answer the touchpad status query.

Examples:
  # List servers on the configured port
  touchbridge discover

  # Use the first server found from now on
  touchbridge discover --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = opts.cfg.Remote.DiscoveryPort
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()

			hosts, err := network.ScanLAN(ctx, port)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, _ := json.MarshalIndent(hosts, "", "  ")
				fmt.Fprintln(out, string(data))
			} else if len(hosts) == 0 {
				errorLabel.Fprintf(out, "No servers found on port %d\n", port)
			} else {
				for _, h := range hosts {
					okLabel.Fprintf(out, "%-21s", h.Addr())
					fmt.Fprintf(out, " status=%s\n", h.Status)
				}
			}

			if save && len(hosts) > 0 {
				cfg := *opts.cfg
				cfg.Remote.URL = "http://" + hosts[0].Addr()
				opts.manager.Set(&cfg)
				if err := opts.manager.Save(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %s to %s\n", opts.cfg.Remote.URL, opts.manager.Path())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to probe (default from config)")
	cmd.Flags().BoolVar(&save, "save", false, "Save the first server found as the remote")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output in JSON format")
	cmd.Flags().DurationVar(&deadline, "deadline", 10*time.Second, "Overall scan deadline")
	return cmd
}
