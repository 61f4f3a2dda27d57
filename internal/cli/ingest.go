package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Chunk and index a document",
	Long: `Reads a UTF-8 text file, splits it into sentence-aligned chunks,
embeds the chunks and writes them to the vector index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source label for the document (default: file name)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestSvc == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	source := ingestSource
	if source == "" {
		source = filepath.Base(path)
	}

	stats, err := ingestSvc.Ingest(context.Background(), domain.Document{
		Source: source,
		Text:   string(data),
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if stats.ChunkCount == 0 {
		cmd.Printf("Nothing to index: %s is empty after normalization.\n", path)
		return nil
	}

	cmd.Printf("Indexed %s as %q:\n", path, source)
	cmd.Printf("  Chunks:        %d\n", stats.ChunkCount)
	cmd.Printf("  Total runes:   %d\n", stats.TotalRunes)
	cmd.Printf("  Avg chunk len: %d\n", stats.AvgChunkLen)
	cmd.Printf("  Tokens used:   %d\n", stats.TotalTokens)
	return nil
}
