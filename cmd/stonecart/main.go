// Command stonecart is the single binary for the shop backend:
//
//	stonecart serve            # start the HTTP server
//	stonecart migrate          # run pending migrations
//	stonecart migrate:rollback # rollback the last batch
//	stonecart migrate:status   # show migration status
//	stonecart seed             # insert reference data and the demo catalog
//	stonecart route:list       # list API routes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import migrations and seeders so their init() funcs run and
	// register themselves.
	_ "github.com/alenadem/stonecart/database/migrations"
	_ "github.com/alenadem/stonecart/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stonecart",
	Short: "stonecart — gemstone shop backend",
	Long:  "stonecart is the inventory, cart and checkout backend behind the gemstone shop chat bot.",
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}
