package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	journalsync "github.com/c0deZ3R0/journal-sync"
	"github.com/c0deZ3R0/journal-sync/payload"
)

var resolutionFile string

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Inspect and resolve sync conflicts",
}

var conflictsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unresolved conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		conflicts, err := svc.GetPendingConflicts(cmd.Context())
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("No pending conflicts.")
			return nil
		}

		fmt.Printf("%-36s %-12s %-24s %-12s %s\n", "ID", "TYPE", "ENTITY", "STRATEGY", "DETECTED")
		for _, c := range conflicts {
			fmt.Printf("%-36s %-12s %-24s %-12s %s\n",
				c.ID, c.EntityType, c.EntityID, c.ResolutionStrategy,
				c.DetectedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var conflictsResolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id>",
	Short: "Resolve a conflict and push the resolution",
	Long: `Resolves a conflict, then runs a follow-up sync pushing the resolution
to the external platform so the entity's record reaches COMPLETED.

Without --resolution the configured strategy decides (latest_wins picks the
newer payload; manual requires --resolution and fails without it).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		var resolution payload.Payload
		if resolutionFile != "" {
			data, err := os.ReadFile(resolutionFile)
			if err != nil {
				return fmt.Errorf("read resolution payload: %w", err)
			}
			if err := json.Unmarshal(data, &resolution); err != nil {
				return fmt.Errorf("parse resolution payload: %w", err)
			}
		}

		conflict, err := svc.GetConflict(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if conflict == nil {
			return fmt.Errorf("unknown conflict id %s", args[0])
		}

		ok, err := svc.ResolveConflict(cmd.Context(), args[0], resolution)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("conflict %s is already resolved", args[0])
		}

		resolved, err := svc.GetConflict(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		// Follow-up sync: push the resolution so CONFLICT reaches COMPLETED.
		done, err := svc.SyncEntity(cmd.Context(), journalsync.SyncRequest{
			EntityType:   resolved.EntityType,
			EntityID:     resolved.EntityID,
			Direction:    journalsync.DirectionToExternal,
			LocalPayload: resolved.ResolutionPayload,
		})
		if err != nil {
			return err
		}
		if !done {
			return fmt.Errorf("follow-up sync for %s/%s did not complete", resolved.EntityType, resolved.EntityID)
		}

		fmt.Printf("conflict %s resolved and pushed\n", args[0])
		return nil
	},
}

func init() {
	conflictsResolveCmd.Flags().StringVar(&resolutionFile, "resolution", "", "path to a JSON resolution payload")
	conflictsCmd.AddCommand(conflictsListCmd)
	conflictsCmd.AddCommand(conflictsResolveCmd)
}
