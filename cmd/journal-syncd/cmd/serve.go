package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	journalsync "github.com/c0deZ3R0/journal-sync"
	"github.com/c0deZ3R0/journal-sync/logging"
)

var statsInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background sync worker",
	Long: `Starts the queue worker and keeps it draining until interrupted.
Statistics are logged periodically; a final health check runs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		svc.StartSyncService()
		logging.Info("sync worker started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-sigCh:
				logging.Info("shutting down")
				svc.StopSyncService()
				return nil
			case <-ticker.C:
				stats, err := svc.GetStatistics(cmd.Context())
				if err != nil {
					return err
				}
				completed, err := svc.RecentRecords(cmd.Context(), journalsync.StatusCompleted, 24*time.Hour)
				if err != nil {
					return err
				}
				fmt.Printf("syncs: total=%d ok=%d failed=%d conflicts_pending=%d queue=%d completed_24h=%d\n",
					stats.TotalSyncs, stats.SuccessfulSyncs, stats.FailedSyncs,
					stats.PendingConflicts, stats.QueueSize, len(completed))
			}
		}
	},
}

func init() {
	serveCmd.Flags().DurationVar(&statsInterval, "stats-interval", time.Minute, "how often to log statistics")
}
