package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/tools/migrate"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/tools/seed"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/tools/webhookcheck"
)

func main() {
	root := &cobra.Command{
		Use:   "agrictl",
		Short: "Operational tooling for the marketplace backend",
	}
	root.AddCommand(migrate.NewRootCommand())
	root.AddCommand(seed.NewRootCommand())
	root.AddCommand(webhookcheck.NewRootCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
