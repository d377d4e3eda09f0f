package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/config"
	"github.com/zfogg/brandcast/internal/cli/logger"
	"github.com/zfogg/brandcast/internal/cli/output"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
	apiURL     string
)

var rootCmd = &cobra.Command{
	Use:   "brandcast",
	Short: "Brandcast CLI - plan and publish social content",
	Long: `Brandcast CLI manages brand profiles, connected social accounts and
the content calendar from the terminal. Entries can be drafted by hand or
generated from a brand profile, then scheduled or published to Facebook,
Instagram, Twitter and LinkedIn.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		logger.Init(verbose)

		if cmd.Flags().Changed("output") {
			if !output.ValidateOutputFormat(outputFmt) {
				return fmt.Errorf("unknown output format %q (use text, json or table)", outputFmt)
			}
			config.Set("output.format", outputFmt)
		}
		if apiURL != "" {
			config.Set("api.base_url", apiURL)
		}
		return nil
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.PrintError("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug output to the log file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/brandcast/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json, table")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Override api.base_url for this run")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(brandsCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(versionCmd)
}
