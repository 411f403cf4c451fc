package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/gateway/payway"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// OrderStatusView 輪詢端看到的訂單狀態
type OrderStatusView struct {
	OrderID       uint              `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	Status        model.OrderStatus `json:"status"`
	PaymentStatus string            `json:"payment_status"`
}

/*
ReconcileService 由外部輪詢觸發，核心內沒有排程
PENDING --(gateway 00)--> PAID
PENDING --(其他狀態碼 / 錯誤 / timeout)--> PENDING
PENDING --(手動付款, 僅開發模式)--> PAID
*/
type ReconcileService struct {
	ledger   *LedgerService
	receipts *ReceiptService
	gateway  PaymentGateway
	gate     PollGate
	devMode  bool
	logger   *zerolog.Logger
	group    singleflight.Group
}

type ReconcileOption func(*ReconcileService)

// WithPollGate gate 為 nil 時每次都查詢 gateway
func WithPollGate(gate PollGate) ReconcileOption {
	return func(s *ReconcileService) {
		s.gate = gate
	}
}

func WithDevMode(devMode bool) ReconcileOption {
	return func(s *ReconcileService) {
		s.devMode = devMode
	}
}

func NewReconcileService(ledger *LedgerService, receipts *ReceiptService, gateway PaymentGateway, logger *zerolog.Logger, options ...ReconcileOption) *ReconcileService {
	if ledger == nil || receipts == nil || gateway == nil {
		panic("reconcile service dependency is nil")
	}
	s := &ReconcileService{
		ledger:   ledger,
		receipts: receipts,
		gateway:  gateway,
		logger:   logger,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

/*
Reconcile 同一個 process 內同一張訂單的併發呼叫合併成一次
跨 process 的競爭由 ledger 的 CAS 與收據唯一性處理
錯誤:
  - ErrOrderNotFound: 訂單不存在
*/
func (s *ReconcileService) Reconcile(ctx context.Context, orderID uint) (OrderStatusView, error) {
	// 共用結果的呼叫者不應該因為第一個呼叫者取消而失敗
	ctx = context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(strconv.FormatUint(uint64(orderID), 10), func() (any, error) {
		return s.reconcile(ctx, orderID)
	})
	if err != nil {
		return OrderStatusView{}, err
	}
	return v.(OrderStatusView), nil
}

// ReconcileByNumber 以訂單編號查詢，其餘同 Reconcile
func (s *ReconcileService) ReconcileByNumber(ctx context.Context, orderNumber string) (OrderStatusView, error) {
	order, err := s.ledger.OrderByNumber(ctx, orderNumber)
	if err != nil {
		return OrderStatusView{}, err
	}
	return s.Reconcile(ctx, order.ID)
}

// ReconcileByTransaction 以 gateway 的 transaction id 查詢
// 舊的 transaction id 也會對應到同一張訂單
func (s *ReconcileService) ReconcileByTransaction(ctx context.Context, tranID string) (OrderStatusView, error) {
	order, err := s.ledger.OrderByTransactionID(ctx, tranID)
	if err != nil {
		return OrderStatusView{}, err
	}
	return s.Reconcile(ctx, order.ID)
}

func (s *ReconcileService) reconcile(ctx context.Context, orderID uint) (OrderStatusView, error) {
	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return OrderStatusView{}, err
	}
	if order.Status.IsSettled() {
		// 轉換已提交但收據可能沒建成，每次輪詢都補一次
		if _, err := s.receipts.Materialize(ctx, order); err != nil {
			return OrderStatusView{}, err
		}
		return s.view(ctx, order)
	}
	if order.Status != model.OrderStatusPending {
		return s.view(ctx, order)
	}

	payment, err := s.ledger.ActivePayment(ctx, order.ID)
	if errors.Is(err, ErrNoPayment) {
		return s.view(ctx, order)
	}
	if err != nil {
		return OrderStatusView{}, err
	}
	if payment.Status != model.PaymentStatusPending {
		return s.view(ctx, order)
	}

	if !s.acquirePoll(ctx, order.OrderNumber) {
		return s.view(ctx, order)
	}

	status, err := s.gateway.CheckTransactionStatus(ctx, payment.TransactionID)
	if err != nil {
		// 查詢失敗不能讓訂單失敗，款項可能還在 gateway 處理中
		s.logger.Warn().
			Err(err).
			Bool("retryable", payway.IsRetryable(err)).
			Str("order_number", order.OrderNumber).
			Str("tran_id", payment.TransactionID).
			Msg("check transaction failed, order stays pending")
		return s.view(ctx, order)
	}
	if !status.Settled() {
		s.logger.Debug().
			Str("order_number", order.OrderNumber).
			Str("status", status.Status.Code).
			Msg("payment still pending")
		return s.view(ctx, order)
	}

	if _, err := s.ledger.TransitionToCompleted(ctx, order, payment, status.GatewayRef()); err != nil {
		return OrderStatusView{}, err
	}
	s.releasePoll(ctx, order.OrderNumber)

	return s.materializeAndView(ctx, order.ID)
}

// MarkPaidManually 開發模式的手動付款
// 錯誤:
//   - ErrManualPayDisabled: 非開發模式
//   - ErrOrderNotFound: 訂單不存在
func (s *ReconcileService) MarkPaidManually(ctx context.Context, orderID uint) (OrderStatusView, error) {
	if !s.devMode {
		return OrderStatusView{}, ErrManualPayDisabled
	}

	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return OrderStatusView{}, err
	}
	if _, err := s.ledger.MarkCompletedManually(ctx, order); err != nil {
		return OrderStatusView{}, err
	}
	return s.materializeAndView(ctx, order.ID)
}

// ReceiptForOrder 收據編號等於訂單編號
// 錯誤:
//   - ErrOrderNotFound: 訂單不存在
//   - ErrReceiptNotFound: 尚未付款或尚未產生收據
func (s *ReconcileService) ReceiptForOrder(ctx context.Context, orderID uint) (*model.Receipt, error) {
	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.receipts.GetReceipt(ctx, order.OrderNumber)
}

// 不論本次是否搶到轉換都嘗試建立收據，收據本身是冪等的
func (s *ReconcileService) materializeAndView(ctx context.Context, orderID uint) (OrderStatusView, error) {
	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return OrderStatusView{}, err
	}
	if order.Status.IsSettled() {
		if _, err := s.receipts.Materialize(ctx, order); err != nil {
			return OrderStatusView{}, err
		}
	}
	return s.view(ctx, order)
}

// redis 不可用時放行，節流不是正確性的一部分
func (s *ReconcileService) acquirePoll(ctx context.Context, orderNumber string) bool {
	if s.gate == nil {
		return true
	}
	ok, err := s.gate.Acquire(ctx, orderNumber)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_number", orderNumber).Msg("poll gate unavailable")
		return true
	}
	return ok
}

func (s *ReconcileService) releasePoll(ctx context.Context, orderNumber string) {
	if s.gate == nil {
		return
	}
	if err := s.gate.Release(ctx, orderNumber); err != nil {
		s.logger.Warn().Err(err).Str("order_number", orderNumber).Msg("release poll gate failed")
	}
}

func (s *ReconcileService) view(ctx context.Context, order *model.Order) (OrderStatusView, error) {
	v := OrderStatusView{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: PaymentStatusNone,
	}
	payment, err := s.ledger.ActivePayment(ctx, order.ID)
	if errors.Is(err, ErrNoPayment) {
		return v, nil
	}
	if err != nil {
		return OrderStatusView{}, err
	}
	v.PaymentStatus = string(payment.Status)
	return v, nil
}
