package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloViniegra/how-are-u/internal/analysis"
	"github.com/PabloViniegra/how-are-u/internal/render"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List previous analyses with statistics",
	Long: `Load every analysis from the API and print the totals, the average and
best scores, the score distribution and the most recent results.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("json", false, "Print the analyses and statistics as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	asJSON := mustGetBool(cmd, "json")

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	analyzer := analysis.New(client, nil, nil)
	analyses, err := analyzer.RefreshAnalyses(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", analysis.MsgListFailed, err)
	}

	history := analyzer.Analyses()
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"analyses": analyses,
			"stats":    history.Stats(),
		})
	}

	return render.Stats(os.Stdout, history.Stats(), history.RecentAnalyses())
}
