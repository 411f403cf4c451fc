package service

import (
	"context"
	"sync"
	"testing"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// seed 後的商品: 1 Iced Cappuccino 250, 6 Croissant 150
const (
	testCappuccinoID = uint(1)
	testCroissantID  = uint(6)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.PaymentEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) count(eventType model.PaymentEventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type testEnv struct {
	db        *db.UnifiedDBImpl
	publisher *recordingPublisher
	logger    *zerolog.Logger
	ledger    *LedgerService
	receipts  *ReceiptService
}

func newTestEnv(t *testing.T) *testEnv {
	conn, err := db.GetSqliteConn(":memory:")
	require.NoError(t, err)
	unified := db.NewUnifiedDB(conn)
	require.NoError(t, unified.InitMigrate())
	_, err = unified.SeedCatalog(context.Background(), db.DefaultCatalogSeed())
	require.NoError(t, err)
	t.Cleanup(func() {
		unified.Close()
	})

	logger := zerolog.Nop()
	publisher := &recordingPublisher{}
	return &testEnv{
		db:        unified,
		publisher: publisher,
		logger:    &logger,
		ledger:    NewLedgerService(unified, publisher, &logger),
		receipts:  NewReceiptService(unified, unified, publisher, &logger),
	}
}

// 2 x 250 = 500
func (e *testEnv) createPendingOrder(t *testing.T) (*model.Order, *model.Payment) {
	ctx := context.Background()
	order, err := e.ledger.CreateOrder(ctx, []model.OrderLine{
		{ProductID: testCappuccinoID, Quantity: 2, UnitPrice: 250},
	})
	require.NoError(t, err)

	payment, err := e.ledger.RecordPaymentRequested(ctx, order, TransactionIDFor(order.OrderNumber), order.TotalAmount, "USD", "hash")
	require.NoError(t, err)
	return order, payment
}

func (e *testEnv) receiptCount(t *testing.T) int64 {
	var count int64
	require.NoError(t, e.db.GetDB().Model(&model.Receipt{}).Count(&count).Error)
	return count
}
