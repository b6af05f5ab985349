package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <analysis-id> [analysis-id...]",
	Short: "Delete stored analyses",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().Bool("dry-run", false, "Show what would be deleted without deleting")
}

func runDelete(cmd *cobra.Command, args []string) error {
	dryRun := mustGetBool(cmd, "dry-run")

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	var failed int
	for _, id := range args {
		if dryRun {
			fmt.Printf("Would delete analysis %s\n", id)
			continue
		}
		if err := client.DeleteAnalysis(cmd.Context(), id); err != nil {
			fmt.Printf("Failed: %s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("Deleted analysis %s\n", id)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses could not be deleted", failed, len(args))
	}
	return nil
}
