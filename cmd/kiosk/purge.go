package main

import (
	"context"
	"fmt"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/appcontext"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/producer"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/service"
	"github.com/spf13/cobra"
)

func purgeSimulatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-simulated",
		Short: "Delete SIMULATED receipts, REAL receipts are never touched",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runPurgeSimulated(ctx)
		},
	}
}

func runPurgeSimulated(ctx context.Context) error {
	cf, logger, err := loadConfig()
	if err != nil {
		return err
	}

	dao, err := appcontext.OpenDB(cf)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dao.Close()

	receipts := service.NewReceiptService(dao, dao, producer.NoopPublisher{}, logger)
	deleted, err := receipts.PurgeSimulated(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d simulated receipts\n", deleted)
	return nil
}
