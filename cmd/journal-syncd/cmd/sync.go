package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	journalsync "github.com/c0deZ3R0/journal-sync"
)

var syncDirection string

var syncCmd = &cobra.Command{
	Use:   "sync <entity-type> <entity-id>...",
	Short: "Synchronize one or more entities now",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := journalsync.SyncDirection(syncDirection)
		if !direction.Valid() {
			return fmt.Errorf("invalid direction %q (want FROM_EXTERNAL, TO_EXTERNAL, or BIDIRECTIONAL)", syncDirection)
		}

		svc, _, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		entityType := args[0]
		results := svc.BatchSync(cmd.Context(), entityType, args[1:], direction)

		failed := 0
		for _, id := range args[1:] {
			state := "ok"
			if !results[id] {
				state = "failed"
				failed++
			}
			fmt.Printf("%-12s %-24s %s\n", entityType, id, state)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d entities did not complete", failed, len(args[1:]))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncDirection, "direction", string(journalsync.DirectionFromExternal), "sync direction")
}
