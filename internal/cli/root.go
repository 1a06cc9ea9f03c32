// Package cli provides the operator command-line interface for photodex.
// Every command talks to the worker purely through the shared orders
// directory: sentinel files in, status document out.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grayfield/photodex/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	ordersRoot string

	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "photodex",
	Short: "Order photo index operations",
	Long: `Photodex indexes photographs of manufactured orders, keyed by
ecommerce order number. Each order lives in its own directory under the
orders root alongside its metadata document.

This CLI drives the background worker through the shared filesystem:
it drops trigger files, inspects order metadata and follows run progress
via the status document.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(os.Getenv("PHOTODEX_CONFIG"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if ordersRoot != "" {
			cfg.OrdersRoot = ordersRoot
		}
		if _, err := os.Stat(cfg.OrdersRoot); err != nil {
			return fmt.Errorf("orders root %s: %w", cfg.OrdersRoot, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&ordersRoot, "root", "", "orders root directory (overrides config)")

	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the photodex version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("photodex %s\n", Version)
	},
}
