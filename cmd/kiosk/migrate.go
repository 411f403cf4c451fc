package main

import (
	"context"
	"fmt"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/appcontext"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/config"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/db"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var seed bool
	var seedFile string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update the database schema.

Examples:
  kiosk migrate
  kiosk migrate --seed
  kiosk migrate --seed --seed-file catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), seed, seedFile)
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "insert demo catalog when the catalog is empty")
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "yaml catalog seed file (default built-in demo catalog)")
	return cmd
}

func runMigrate(ctx context.Context, seed bool, seedFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cf, logger, err := loadConfig()
	if err != nil {
		return err
	}

	dao, err := appcontext.OpenDB(cf)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dao.Close()

	if err := dao.InitMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Str("db_driver", cf.DbDriver).Msg("schema migrated")

	if !seed {
		return nil
	}

	seeds := db.DefaultCatalogSeed()
	if seedFile != "" {
		seedConfig, err := config.LoadCatalogSeedConfig(seedFile)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
		seeds = toSeedCategories(seedConfig)
	}

	seeded, err := dao.SeedCatalog(ctx, seeds)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if seeded {
		logger.Info().Int("categories", len(seeds)).Msg("catalog seeded")
	} else {
		logger.Info().Msg("catalog is not empty, seed skipped")
	}
	return nil
}

func toSeedCategories(seedConfig *config.CatalogSeedConfig) []db.SeedCategory {
	seeds := make([]db.SeedCategory, 0, len(seedConfig.Categories))
	for _, c := range seedConfig.Categories {
		products := make([]model.Product, 0, len(c.Products))
		for _, p := range c.Products {
			products = append(products, model.Product{
				Name:        p.Name,
				Price:       p.Price,
				Description: p.Description,
			})
		}
		seeds = append(seeds, db.SeedCategory{Name: c.Name, Products: products})
	}
	return seeds
}
