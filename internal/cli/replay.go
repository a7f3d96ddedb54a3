package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"touchbridge/internal/feedback"
	"touchbridge/internal/frontend"
	"touchbridge/internal/replay"
)

func newReplayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a recorded touch script against the remote server",
		Long: `Replay a YAML touch script through the session tracker, honouring the delays
between steps, and print the server's feedback.

Examples:
  # Replay a two finger tap
  touchbridge replay two-finger-tap.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := replay.Load(args[0])
			if err != nil {
				return err
			}

			sink := feedback.NewFence(feedback.Tee(feedback.NewLogSink(log.Logger), consoleSink{cmd.OutOrStdout()}))
			d, err := opts.dispatcher(sink)
			if err != nil {
				return err
			}
			loop := frontend.NewLoop(d, sink, nil)

			ctx, cancel := context.WithCancel(cmd.Context())
			loopDone := make(chan struct{})
			go func() {
				loop.Run(ctx)
				close(loopDone)
			}()

			err = replay.NewRunner(loop, nil).Play(ctx, script)
			if err == nil {
				err = loop.Flush(ctx)
			}

			// stopping the loop waits for the submissions still in flight
			cancel()
			<-loopDone
			return err
		},
	}
}
