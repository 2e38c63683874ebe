package cli

import (
	"context"
	"fmt"
	"time"

	"pa-agent/internal/application/port/input"
	"pa-agent/internal/infrastructure/userinteraction"
	"pa-agent/internal/usecase/tracker"

	"github.com/spf13/cobra"
)

var (
	trackID       string
	trackInterval time.Duration
)

var trackCmd = &cobra.Command{
	Use:   "track [tracking-id]",
	Short: "Watch one PA case until it is approved",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := trackID
		if len(args) == 1 {
			id = args[0]
		}

		ctx, stop := signalContext()
		defer stop()

		started, err := container.Tracker.Start(ctx, input.TrackRequest{
			TrackingID: id,
			Interval:   trackInterval,
		})
		if err != nil {
			return err
		}

		progress := userinteraction.NewConsoleWriter(cmd.OutOrStdout())
		progress.ShowStarted("tracking", started.RequestID,
			fmt.Sprintf("tracking id: %s, every %s", started.TrackingID, started.Interval))

		done := make(chan struct{})
		go func() {
			container.Tracker.Wait()
			close(done)
		}()
		go func() {
			select {
			case <-ctx.Done():
				_ = container.Tracker.Cancel(started.RequestID)
			case <-done:
			}
		}()

		if !follow(progress, started.RequestID, done, tracker.LogApproved) {
			return errRunFailed
		}
		return nil
	},
}

func init() {
	trackCmd.Flags().StringVar(&trackID, "id", "", "tracking id (default HUMANA_ID_FOR_TRACKING)")
	trackCmd.Flags().DurationVar(&trackInterval, "interval", 0, "status check interval (default HUMANA_TRACKER_INTERVAL)")
}

func timeoutContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownGrace)
}
