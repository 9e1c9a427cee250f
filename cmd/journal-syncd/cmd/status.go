package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <entity-type> <entity-id>",
	Short: "Show sync bookkeeping for an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		rec, err := svc.GetSyncStatus(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Printf("%s/%s: never synced\n", args[0], args[1])
			return nil
		}

		fmt.Printf("entity:      %s/%s\n", rec.EntityType, rec.EntityID)
		fmt.Printf("status:      %s\n", rec.Status)
		fmt.Printf("direction:   %s\n", rec.Direction)
		fmt.Printf("last hash:   %s\n", rec.LastHash)
		fmt.Printf("last synced: %s\n", formatTime(rec.LastSyncedAt))

		health := svc.HealthCheck(cmd.Context())
		fmt.Printf("service:     %s\n", health.Status)
		for _, issue := range health.Issues {
			fmt.Printf("  - %s\n", issue)
		}
		return nil
	},
}
