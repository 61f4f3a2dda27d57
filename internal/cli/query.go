package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run a hybrid retrieval query",
	Long: `Retrieves the passages most relevant to the question.
Vector similarity and keyword coverage are fused into a single ranking.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "maximum number of passages (default: server setting)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if retrievalSvc == nil {
		return errors.New("retrieval service not configured")
	}

	topK := queryTopK
	if topK <= 0 {
		topK = retrievalSvc.DefaultTopK()
	}

	results, err := retrievalSvc.Retrieve(context.Background(), args[0], topK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, results)
	}
	return outputQueryTable(cmd, results)
}

func outputQueryJSON(cmd *cobra.Command, results []domain.ScoredResult) error {
	if results == nil {
		results = []domain.ScoredResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, results []domain.ScoredResult) error {
	if len(results) == 0 {
		cmd.Println("No passages found.")
		return nil
	}

	cmd.Println("Passages:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (hybrid %.3f = vector %.3f + keyword %.3f)\n",
			i+1, results[i].ID, results[i].HybridScore,
			results[i].VectorScore, results[i].KeywordScore)
		cmd.Printf("      %s\n", snippet(results[i].Text, 120))
		cmd.Println()
	}
	return nil
}

// snippet truncates text to at most n runes for table display.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
