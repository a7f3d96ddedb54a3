package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"touchbridge/internal/protocol"
)

func newResetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Ask the remote server to drop its touchpad state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.dispatcher(consoleSink{cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			return outcome(d.Reset(cmd.Context()))
		},
	}
}

func newScrollCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scroll <dx> <dy>",
		Short: "Send one scroll step to the remote server",
		Long: `Send one scroll step to the remote server's mouse endpoint.

Examples:
  # Scroll down three steps
  touchbridge scroll 0 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dx, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid dx %q", args[0])
			}
			dy, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid dy %q", args[1])
			}

			d, err := opts.dispatcher(consoleSink{cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			return outcome(d.Scroll(cmd.Context(), dx, dy))
		},
	}
}

func newCallCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "call <endpoint> <json>",
		Short: "POST a raw JSON body to /api/<endpoint>",
		Long: `POST a raw JSON body to /api/<endpoint> on the remote server and print the response.

Examples:
  # Query the touchpad state
  touchbridge call touchpad '{"action":"status"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload json.RawMessage
			if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
				return fmt.Errorf("invalid JSON body: %w", err)
			}

			d, err := opts.dispatcher(consoleSink{cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			resp := d.Call(cmd.Context(), args[0], payload)
			if resp != nil && resp.Success() {
				out, _ := json.MarshalIndent(resp, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			return outcome(resp)
		},
	}
}

// outcome maps a response to the command result. Failures were already
// printed by the console sink.
func outcome(resp *protocol.Response) error {
	if !resp.Success() {
		return ErrAlreadyHandled
	}
	return nil
}
