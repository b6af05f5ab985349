package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloViniegra/how-are-u/internal/analysis"
	"github.com/PabloViniegra/how-are-u/internal/render"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <analysis-id>",
	Short: "Show a stored analysis",
	Long: `Fetch an analysis by its ID and print it.

Use --retries to try again when the API is unreachable or the analysis is
still being stored.

Example:
  how-are-u summary 7
  how-are-u summary --retries 3 7`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().Bool("json", false, "Print the raw analysis as JSON")
	summaryCmd.Flags().Int("retries", 0, "Number of times to retry a failed fetch")
	summaryCmd.Flags().Int("retry-delay", 2, "Seconds to wait between retries")
}

func runSummary(cmd *cobra.Command, args []string) error {
	asJSON := mustGetBool(cmd, "json")
	retries := mustGetInt(cmd, "retries")
	delay := time.Duration(mustGetInt(cmd, "retry-delay")) * time.Second

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	analyzer := analysis.New(client, nil, nil)
	ctx := cmd.Context()

	result, err := analyzer.LoadSummary(ctx, args[0])
	for attempt := 1; err != nil && attempt <= retries; attempt++ {
		slog.Warn("fetching analysis failed, retrying", "id", args[0], "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		result, err = analyzer.Retry(ctx)
	}
	if err != nil {
		if message := analyzer.Global().Error(); message != "" {
			return fmt.Errorf("%s: %w", message, err)
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return render.Analysis(os.Stdout, result, render.Options{})
}
