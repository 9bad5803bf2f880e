package cli

import (
	"github.com/spf13/cobra"

	"github.com/SharanBarfa/ERM-server/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		version.Print(cmd.OutOrStdout(), "reconciler")
	},
}
