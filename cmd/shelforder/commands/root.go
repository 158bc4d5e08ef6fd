package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/shelforder/pkg/config"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shelforder",
	Short: "Category display-order engine",
	Long: `shelforder computes the display order of catalog groupings.

Items are scored by stock location, fulfillment speed and price, sorted,
then interleaved so no brand dominates consecutive positions.

Usage:
  go run ./cmd/shelforder [command]

Examples:
  go run ./cmd/shelforder api
  go run ./cmd/shelforder sort shoes --dry-run
  go run ./cmd/shelforder sort --all
  go run ./cmd/shelforder undo shoes
  go run ./cmd/shelforder show shoes`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := config.LoadEnvFile(configFile); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("env") {
			os.Setenv("ENV", env)
		}
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
			os.Setenv("LOG_FORMAT", "console")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to console")
}
