package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index size and component health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the index and all chunks",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestSvc == nil || healthSvc == nil {
		return errors.New("services not configured")
	}

	ctx := context.Background()

	report := healthSvc.Check(ctx)
	cmd.Printf("Status: %s\n", report.Status)
	for name, check := range report.Checks {
		cmd.Printf("  %-10s %s\n", name, check)
	}

	count, err := ingestSvc.Count(ctx)
	if err != nil {
		cmd.Println("Chunks: index not created yet")
		return nil
	}
	cmd.Printf("Chunks: %d\n", count)
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestSvc == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestSvc.Clear(context.Background()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
