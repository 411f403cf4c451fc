package db

import (
	"context"
	"testing"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *UnifiedDBImpl {
	conn, err := GetSqliteConn(":memory:")
	require.NoError(t, err)

	unified := NewUnifiedDB(conn)
	require.NoError(t, unified.InitMigrate())
	t.Cleanup(func() {
		unified.Close()
	})
	return unified
}

func createTestOrder(t *testing.T, repo *LedgerRepo, number string) *model.Order {
	order := &model.Order{
		OrderNumber: number,
		Status:      model.OrderStatusPending,
		TotalAmount: 500,
		OrderItems: []model.OrderItem{
			{ProductID: 1, Quantity: 2, PriceAtTime: 250},
		},
	}
	require.NoError(t, repo.CreateOrder(context.Background(), order))
	return order
}

func createTestPayment(t *testing.T, repo *LedgerRepo, order *model.Order, tranID string) *model.Payment {
	payment, err := repo.RecordPaymentRequested(context.Background(), &model.Payment{
		OrderID:       order.ID,
		TransactionID: tranID,
		Amount:        order.TotalAmount,
		Currency:      "USD",
		PayloadHash:   "hash",
	})
	require.NoError(t, err)
	return payment
}
