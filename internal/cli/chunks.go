package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
)

var (
	chunksMaxSize int
	chunksMinSize int
	chunksOverlap int
)

var chunksCmd = &cobra.Command{
	Use:   "chunks [file]",
	Short: "Preview how a document would be chunked",
	Long: `Normalizes and splits a UTF-8 text file exactly the way ingest would,
without embedding or writing anything. Useful for tuning chunk sizes.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunks,
}

func init() {
	chunksCmd.Flags().IntVar(&chunksMaxSize, "max-size", 0, "max chunk size in runes (default: configured)")
	chunksCmd.Flags().IntVar(&chunksMinSize, "min-size", 0, "min chunk size in runes (default: configured)")
	chunksCmd.Flags().IntVar(&chunksOverlap, "overlap", 0, "chunk overlap in runes (default: configured)")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
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

	chunks, err := ingestSvc.Chunk(string(data), chunker.Config{
		MaxSize: chunksMaxSize,
		MinSize: chunksMinSize,
		Overlap: chunksOverlap,
	})
	if err != nil {
		return fmt.Errorf("chunk failed: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Printf("Nothing to chunk: %s is empty after normalization.\n", path)
		return nil
	}

	cmd.Printf("Chunks: %d\n", len(chunks))
	for _, c := range chunks {
		cmd.Printf("--- [%d] (%d runes)\n%s\n", c.Index, c.CharLen, c.Text)
	}
	return nil
}
