package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shop-api",
	Short: "Storefront HTTP API",
	Long: `shop-api serves the storefront API: catalog, likes, favorites and cart,
reviews and orders.

Commands:
  serve    - run the HTTP server and the order event worker
  migrate  - apply pending database migrations`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
