package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askTopK        int
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Generate an answer grounded on retrieved passages",
	Long: `Retrieves relevant passages and asks the chat model to answer the
question using only the retrieved context.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to ground on (default: server setting)")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the passages used as context")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if answerSvc == nil {
		return errors.New("answer service not configured")
	}

	result, err := answerSvc.Answer(context.Background(), args[0], askTopK)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	cmd.Println(result.Answer)

	if askShowSources && len(result.Passages) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range result.Passages {
			cmd.Printf("  [%d] %s (%.3f)\n", i+1, result.Passages[i].ID, result.Passages[i].HybridScore)
		}
	}
	return nil
}
