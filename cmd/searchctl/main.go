// Command searchctl runs global search and facet queries against a pool
// snapshot, without the API server.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "searchctl",
	Short:         "Query a lead/client pool snapshot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("snapshot", "", "snapshot file; without it the snapshot is read from MinIO (MINIO_* env)")
	rootCmd.PersistentFlags().String("region", "NL", "default region for phone number queries")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(facetsCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
