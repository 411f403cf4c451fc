package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/gateway/payway"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/db"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/service/mock_service"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func settledStatus() *payway.TransactionStatus {
	return &payway.TransactionStatus{
		Status: payway.Status{Code: payway.StatusCodeSettled, Message: "Success!"},
		Data:   []byte(`{"apv":"778899"}`),
	}
}

type staticGate struct {
	allow bool
	err   error
}

func (g staticGate) Acquire(ctx context.Context, orderNumber string) (bool, error) {
	return g.allow, g.err
}

func (g staticGate) Release(ctx context.Context, orderNumber string) error {
	return g.err
}

type recordingGate struct {
	mu       sync.Mutex
	released []string
}

func (g *recordingGate) Acquire(ctx context.Context, orderNumber string) (bool, error) {
	return true, nil
}

func (g *recordingGate) Release(ctx context.Context, orderNumber string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = append(g.released, orderNumber)
	return nil
}

// 第一次建立收據失敗，模擬轉換提交後 process 掛掉
type failOnceReceipts struct {
	db.IReceiptRepository
	failed atomic.Bool
}

func (r *failOnceReceipts) CreateReceipt(ctx context.Context, receipt *model.Receipt) (bool, error) {
	if r.failed.CompareAndSwap(false, true) {
		return false, errors.New("connection reset")
	}
	return r.IReceiptRepository.CreateReceipt(ctx, receipt)
}

func TestReconcile(t *testing.T) {
	testCases := []struct {
		name         string
		gate         PollGate
		setUpGateway func(gateway *mock_service.MockPaymentGateway, tranID string)
		wantStatus   model.OrderStatus
		wantPayment  string
		wantReceipts int64
	}{
		{
			name: "settled",
			setUpGateway: func(gateway *mock_service.MockPaymentGateway, tranID string) {
				gateway.EXPECT().CheckTransactionStatus(gomock.Any(), tranID).Return(settledStatus(), nil).Times(1)
			},
			wantStatus:   model.OrderStatusPaid,
			wantPayment:  string(model.PaymentStatusCompleted),
			wantReceipts: 1,
		},
		{
			name: "still pending",
			setUpGateway: func(gateway *mock_service.MockPaymentGateway, tranID string) {
				gateway.EXPECT().CheckTransactionStatus(gomock.Any(), tranID).Return(&payway.TransactionStatus{
					Status: payway.Status{Code: "2", Message: "Pending"},
				}, nil).Times(1)
			},
			wantStatus:   model.OrderStatusPending,
			wantPayment:  string(model.PaymentStatusPending),
			wantReceipts: 0,
		},
		{
			name: "gateway 5xx stays pending",
			setUpGateway: func(gateway *mock_service.MockPaymentGateway, tranID string) {
				gateway.EXPECT().CheckTransactionStatus(gomock.Any(), tranID).Return(nil, &payway.GatewayError{
					Operation:  payway.OpCheckTransaction,
					StatusCode: 503,
					Body:       "unavailable",
				}).Times(1)
			},
			wantStatus:   model.OrderStatusPending,
			wantPayment:  string(model.PaymentStatusPending),
			wantReceipts: 0,
		},
		{
			name: "gateway 4xx stays pending",
			setUpGateway: func(gateway *mock_service.MockPaymentGateway, tranID string) {
				gateway.EXPECT().CheckTransactionStatus(gomock.Any(), tranID).Return(nil, &payway.GatewayError{
					Operation:  payway.OpCheckTransaction,
					StatusCode: 403,
					Body:       "wrong hash",
				}).Times(1)
			},
			wantStatus:   model.OrderStatusPending,
			wantPayment:  string(model.PaymentStatusPending),
			wantReceipts: 0,
		},
		{
			name: "poll gate closed skips gateway",
			gate: staticGate{allow: false},
			setUpGateway: func(gateway *mock_service.MockPaymentGateway, tranID string) {
				gateway.EXPECT().CheckTransactionStatus(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus:   model.OrderStatusPending,
			wantPayment:  string(model.PaymentStatusPending),
			wantReceipts: 0,
		},
		{
			name: "poll gate error fails open",
			gate: staticGate{err: errors.New("redis down")},
			setUpGateway: func(gateway *mock_service.MockPaymentGateway, tranID string) {
				gateway.EXPECT().CheckTransactionStatus(gomock.Any(), tranID).Return(settledStatus(), nil).Times(1)
			},
			wantStatus:   model.OrderStatusPaid,
			wantPayment:  string(model.PaymentStatusCompleted),
			wantReceipts: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			env := newTestEnv(t)
			order, payment := env.createPendingOrder(t)

			gateway := mock_service.NewMockPaymentGateway(ctrl)
			tc.setUpGateway(gateway, payment.TransactionID)

			svc := NewReconcileService(env.ledger, env.receipts, gateway, env.logger, WithPollGate(tc.gate))
			view, err := svc.Reconcile(context.Background(), order.ID)
			require.NoError(t, err)
			require.Equal(t, order.ID, view.OrderID)
			require.Equal(t, order.OrderNumber, view.OrderNumber)
			require.Equal(t, tc.wantStatus, view.Status)
			require.Equal(t, tc.wantPayment, view.PaymentStatus)
			require.Equal(t, tc.wantReceipts, env.receiptCount(t))
		})
	}
}

func TestReconcileRecordsGatewayRef(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, payment := env.createPendingOrder(t)

	gateway := mock_service.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().CheckTransactionStatus(gomock.Any(), payment.TransactionID).Return(settledStatus(), nil)

	svc := NewReconcileService(env.ledger, env.receipts, gateway, env.logger)
	_, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)

	paid, err := env.ledger.ActivePayment(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, paid.GatewayRef)
	require.Equal(t, "778899", *paid.GatewayRef)
}

func TestReconcileWithoutPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, err := env.ledger.CreateOrder(context.Background(), []model.OrderLine{
		{ProductID: testCappuccinoID, Quantity: 1, UnitPrice: 250},
	})
	require.NoError(t, err)

	gateway := mock_service.NewMockPaymentGateway(ctrl)
	svc := NewReconcileService(env.ledger, env.receipts, gateway, env.logger)

	view, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPending, view.Status)
	require.Equal(t, PaymentStatusNone, view.PaymentStatus)
}

func TestReconcileSettledOrderIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, payment := env.createPendingOrder(t)

	gateway := mock_service.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().CheckTransactionStatus(gomock.Any(), payment.TransactionID).Return(settledStatus(), nil).Times(1)

	svc := NewReconcileService(env.ledger, env.receipts, gateway, env.logger)
	for i := 0; i < 3; i++ {
		view, err := svc.Reconcile(context.Background(), order.ID)
		require.NoError(t, err)
		require.Equal(t, model.OrderStatusPaid, view.Status)
	}
	require.Equal(t, int64(1), env.receiptCount(t))
}

func TestReconcileRetriesReceiptAfterCommittedTransition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, payment := env.createPendingOrder(t)

	gateway := mock_service.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().CheckTransactionStatus(gomock.Any(), payment.TransactionID).Return(settledStatus(), nil).Times(1)

	receipts := NewReceiptService(&failOnceReceipts{IReceiptRepository: env.db}, env.db, env.publisher, env.logger)
	svc := NewReconcileService(env.ledger, receipts, gateway, env.logger)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, order.ID)
	require.Error(t, err)

	stored, err := env.ledger.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPaid, stored.Status)
	require.Equal(t, int64(0), env.receiptCount(t))

	// 下一次輪詢不再查 gateway，直接補建收據
	view, err := svc.Reconcile(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPaid, view.Status)
	require.Equal(t, int64(1), env.receiptCount(t))
	require.Equal(t, 1, env.publisher.count(model.PaymentEventReceiptMaterialized))

	_, err = svc.Reconcile(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), env.receiptCount(t))
}

func TestReconcileReleasesPollGateAfterSettle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, payment := env.createPendingOrder(t)

	gateway := mock_service.NewMockPaymentGateway(ctrl)
	gomock.InOrder(
		gateway.EXPECT().CheckTransactionStatus(gomock.Any(), payment.TransactionID).Return(&payway.TransactionStatus{
			Status: payway.Status{Code: "2", Message: "pending"},
		}, nil),
		gateway.EXPECT().CheckTransactionStatus(gomock.Any(), payment.TransactionID).Return(settledStatus(), nil),
	)

	gate := &recordingGate{}
	svc := NewReconcileService(env.ledger, env.receipts, gateway, env.logger, WithPollGate(gate))
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, gate.released)

	_, err = svc.Reconcile(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, []string{order.OrderNumber}, gate.released)
}

func TestReconcileOrderNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	svc := NewReconcileService(env.ledger, env.receipts, mock_service.NewMockPaymentGateway(ctrl), env.logger)
	_, err := svc.Reconcile(context.Background(), 12345)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

// 每個 worker 使用獨立的 service，模擬多個 process 同時輪詢
func TestConcurrentReconcileMaterializesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, payment := env.createPendingOrder(t)

	gateway := mock_service.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().CheckTransactionStatus(gomock.Any(), payment.TransactionID).Return(settledStatus(), nil).AnyTimes()

	const workers = 8
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		svc := NewReconcileService(env.ledger, env.receipts, gateway, env.logger)
		g.Go(func() error {
			view, err := svc.Reconcile(context.Background(), order.ID)
			if err != nil {
				return err
			}
			if view.Status != model.OrderStatusPaid {
				return errors.New("order should be paid")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int64(1), env.receiptCount(t))
	require.Equal(t, 1, env.publisher.count(model.PaymentEventCompleted))
	require.Equal(t, 1, env.publisher.count(model.PaymentEventReceiptMaterialized))
}

func TestConcurrentReconcileSharesGatewayCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, payment := env.createPendingOrder(t)

	release := make(chan struct{})
	gateway := mock_service.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().CheckTransactionStatus(gomock.Any(), payment.TransactionID).DoAndReturn(
		func(ctx context.Context, tranID string) (*payway.TransactionStatus, error) {
			<-release
			return settledStatus(), nil
		}).MinTimes(1)

	svc := NewReconcileService(env.ledger, env.receipts, gateway, env.logger)
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := svc.Reconcile(context.Background(), order.ID)
			return err
		})
	}
	close(release)
	require.NoError(t, g.Wait())
	require.Equal(t, int64(1), env.receiptCount(t))
}

func TestMarkPaidManually(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, _ := env.createPendingOrder(t)
	gateway := mock_service.NewMockPaymentGateway(ctrl)

	prod := NewReconcileService(env.ledger, env.receipts, gateway, env.logger)
	_, err := prod.MarkPaidManually(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrManualPayDisabled)

	dev := NewReconcileService(env.ledger, env.receipts, gateway, env.logger, WithDevMode(true))
	view, err := dev.MarkPaidManually(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPaid, view.Status)
	require.Equal(t, string(model.PaymentStatusCompleted), view.PaymentStatus)
	require.Equal(t, int64(1), env.receiptCount(t))

	// 重複呼叫不會多建收據
	_, err = dev.MarkPaidManually(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), env.receiptCount(t))

	_, err = dev.MarkPaidManually(context.Background(), 999)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReceiptForOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := newTestEnv(t)
	order, _ := env.createPendingOrder(t)
	svc := NewReconcileService(env.ledger, env.receipts, mock_service.NewMockPaymentGateway(ctrl), env.logger, WithDevMode(true))
	ctx := context.Background()

	_, err := svc.ReceiptForOrder(ctx, order.ID)
	require.ErrorIs(t, err, ErrReceiptNotFound)

	_, err = svc.MarkPaidManually(ctx, order.ID)
	require.NoError(t, err)

	receipt, err := svc.ReceiptForOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, receipt.ReceiptID)
	require.Equal(t, 2, receipt.TotalItems)
	require.Equal(t, "5.00", receipt.TotalAmount.StringFixed(2))

	_, err = svc.ReceiptForOrder(ctx, 999)
	require.ErrorIs(t, err, ErrOrderNotFound)
}
