package routes

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prosektorweb/inbox-api/domains/inbox/be/entity"
)

// Command prints the inbox HTTP surface, one route per line.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the inbox API routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			for _, sp := range entity.Catalog() {
				fmt.Fprintf(out, "GET    /api/v1/inbox/%s\n", sp.Name)
				fmt.Fprintf(out, "GET    /api/v1/inbox/%s/export\n", sp.Name)
				fmt.Fprintf(out, "POST   /api/v1/inbox/%s/{id}/read\n", sp.Name)
			}

			fmt.Fprintln(out, "POST   /api/v1/inbox/uploads/validate")
			fmt.Fprintln(out, "GET    /api/v1/admin/inbox/summary")
			fmt.Fprintln(out, "GET    /healthz")
			fmt.Fprintln(out, "GET    /readyz")

			return nil
		},
	}
}
