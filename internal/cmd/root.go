package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Sticker storefront: catalog, pricing, checkout and artwork approval",
	Long: `storefront runs the sticker shop backend.

The serve command starts the HTTP API, the gRPC health endpoint, the outbox
publisher and the notification consumer in one process. The remaining
commands are operator tooling that share the same configuration.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml, ./deploy/, /etc/storefront/)")
}
