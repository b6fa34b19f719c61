package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alenadem/stonecart/app/controllers"
	"github.com/alenadem/stonecart/app/routes"
	"github.com/alenadem/stonecart/internal/server"
	"github.com/alenadem/stonecart/pkg/router"
)

// stonecart serve — start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

// stonecart route:list — print all registered routes.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Mount with empty controllers; handlers are never invoked here.
		r := router.New()
		routes.RegisterAPI(r, routes.Controllers{
			Catalog:  &controllers.CatalogController{},
			Cart:     &controllers.CartController{},
			Checkout: &controllers.CheckoutController{},
			Payment:  &controllers.PaymentController{},
			Admin:    &controllers.AdminController{},
		})

		infos := r.Routes()
		if len(infos) == 0 {
			fmt.Println("No named routes registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
