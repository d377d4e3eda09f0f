package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/client"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), client.UserAgent)
	},
}
