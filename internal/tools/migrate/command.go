package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/config"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/database"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/tools/common"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/tools/ui"
)

type options struct {
	envFile string
	ci      bool
	timeout time.Duration
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the marketplace database schema",
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading configuration")
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a machine-readable JSON result instead of the TUI")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum time for the operation")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending schema changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate up", "up", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db.WithContext(ctx)); err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("%d models in sync", len(database.Models()))}, nil
			})
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate status", "status", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				return tableStatus(db.WithContext(ctx)), nil
			})
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "List tables a migration would create",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate plan", "plan", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				missing := missingTables(db.WithContext(ctx))
				if len(missing) == 0 {
					return []string{"nothing to do"}, nil
				}
				return missing, nil
			})
			return err
		},
	})

	return root
}

func run(opts *options, title, _ string, action func(ctx context.Context) ([]string, error)) ([]string, error) {
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	wrapped := func(ctx context.Context) ([]string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return action(ctx)
	}

	if opts.ci {
		details, err := wrapped(context.Background())
		common.PrintCIResult(err == nil, title, details, err)
		return details, err
	}
	err := ui.Run(title, wrapped)
	return nil, err
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func tableStatus(db *gorm.DB) []string {
	migrator := db.Migrator()
	var out []string
	for _, model := range database.Models() {
		state := "present"
		if !migrator.HasTable(model) {
			state = "missing"
		}
		out = append(out, fmt.Sprintf("%T: %s", model, state))
	}
	return out
}

func missingTables(db *gorm.DB) []string {
	migrator := db.Migrator()
	var out []string
	for _, model := range database.Models() {
		if !migrator.HasTable(model) {
			out = append(out, fmt.Sprintf("create %T", model))
		}
	}
	return out
}
