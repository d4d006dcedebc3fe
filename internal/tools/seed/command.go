package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/config"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/database"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/domain"
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
		Use:   "seed",
		Short: "Manage demo delivery zone data",
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading configuration")
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a machine-readable JSON result instead of the TUI")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum time for the operation")

	root.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Insert the demo delivery zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "seed apply", "apply", func(ctx context.Context) ([]string, error) {
				db, err := openDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				report, err := database.SeedSync(db.WithContext(ctx))
				if err != nil {
					return nil, err
				}
				if report.Noop {
					return []string{"all zones already present"}, nil
				}
				return []string{fmt.Sprintf("created %d zones", report.CreatedZones)}, nil
			})
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "dry-run",
		Short: "List the zones apply would create",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "seed dry-run", "dry-run", func(ctx context.Context) ([]string, error) {
				db, err := openDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				missing, err := database.SeedPlan(db.WithContext(ctx))
				if err != nil {
					return nil, err
				}
				if len(missing) == 0 {
					return []string{"nothing to do"}, nil
				}
				return missing, nil
			})
			return err
		},
	})

	var farmerID string
	zones := &cobra.Command{
		Use:   "zones",
		Short: "List configured delivery zones for a farmer",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "seed zones", "zones", func(ctx context.Context) ([]string, error) {
				id := strings.TrimSpace(farmerID)
				if id == "" {
					return nil, fmt.Errorf("--farmer is required")
				}
				db, err := openDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				var zones []domain.DeliveryZone
				if err := db.WithContext(ctx).Where("profile_id = ?", id).Order("base_fee asc").Find(&zones).Error; err != nil {
					return nil, err
				}
				if len(zones) == 0 {
					return []string{"no zones configured"}, nil
				}
				out := make([]string, 0, len(zones))
				for _, z := range zones {
					state := "active"
					if !z.IsActive {
						state = "inactive"
					}
					out = append(out, fmt.Sprintf("%s: %.2f EUR, %s", z.Name, z.BaseFee, state))
				}
				return out, nil
			})
			return err
		},
	}
	zones.Flags().StringVar(&farmerID, "farmer", "", "farmer profile id")
	root.AddCommand(zones)

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

func openDB(envFile string) (*gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Open(cfg)
}
