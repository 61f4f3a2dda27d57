package cli

import (
	"github.com/spf13/cobra"

	"github.com/peregrine-labs/scriptrag/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("scriptctl version %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
