package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/producer"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	orderNumberPrefix      = "ORD-"
	transactionIDPrefix    = "TRX-"
	createOrderMaxAttempts = 3
	PaymentStatusNone      = "NONE"
)

// TransactionIDFor 交易編號只由訂單編號決定，不含隨機成分，查詢狀態時可以重新推導
func TransactionIDFor(orderNumber string) string {
	return transactionIDPrefix + orderNumber
}

func NewOrderNumber() string {
	id := uuid.New()
	return orderNumberPrefix + strings.ToUpper(hex.EncodeToString(id[:4]))
}

/*
LedgerService 訂單與付款狀態的唯一入口
外部只能透過這裡的 atomic 操作修改狀態
*/
type LedgerService struct {
	repo           db.ILedgerRepository
	publisher      producer.Publisher
	logger         *zerolog.Logger
	newOrderNumber func() string
}

func NewLedgerService(repo db.ILedgerRepository, publisher producer.Publisher, logger *zerolog.Logger) *LedgerService {
	if repo == nil {
		panic("ledger service dependency repo is nil")
	}
	return &LedgerService{
		repo:           repo,
		publisher:      publisher,
		logger:         logger,
		newOrderNumber: NewOrderNumber,
	}
}

/*
CreateOrder 輸入已由目錄驗證過
總金額只在這裡計算一次，訂單與明細在同一個 transaction 建立
訂單編號碰撞時換一個編號重試
*/
func (s *LedgerService) CreateOrder(ctx context.Context, lines []model.OrderLine) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}

	var total int64
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > model.MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity of product %d must be between 1 and %d", ErrInvalidInput, line.ProductID, model.MaxLineQuantity)
		}
		if line.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: price of product %d is negative", ErrInvalidInput, line.ProductID)
		}
		item := model.OrderItem{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			PriceAtTime: line.UnitPrice,
		}
		lineTotal, ok := item.CheckedLineTotal()
		if ok {
			total, ok = model.AddCents(total, lineTotal)
		}
		if !ok {
			return nil, fmt.Errorf("%w: order total overflows", ErrInvalidInput)
		}
		items = append(items, item)
	}

	var err error
	for attempt := 0; attempt < createOrderMaxAttempts; attempt++ {
		order := &model.Order{
			OrderNumber: s.newOrderNumber(),
			Status:      model.OrderStatusPending,
			TotalAmount: total,
			OrderItems:  append([]model.OrderItem(nil), items...),
		}
		err = s.repo.CreateOrder(ctx, order)
		if err == nil {
			s.logger.Info().
				Str("order_number", order.OrderNumber).
				Int64("total_amount", order.TotalAmount).
				Msg("order created")
			return order, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create order: %w", err)
		}
	}
	return nil, fmt.Errorf("create order: %w", err)
}

func (s *LedgerService) GetOrder(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// OrderByNumber 顧客手上只有訂單編號時使用
func (s *LedgerService) OrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := s.repo.GetOrderByNumber(ctx, orderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// OrderByTransactionID transaction id 不存在時回傳 ErrOrderNotFound
func (s *LedgerService) OrderByTransactionID(ctx context.Context, tranID string) (*model.Order, error) {
	payment, err := s.repo.GetPaymentByTransactionID(ctx, tranID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: transaction %s", ErrOrderNotFound, tranID)
	}
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, payment.OrderID)
}

// ActivePayment 最新的一筆 payment
// 錯誤:
//   - ErrNoPayment: 訂單尚未建立任何 payment
func (s *LedgerService) ActivePayment(ctx context.Context, orderID uint) (*model.Payment, error) {
	payment, err := s.repo.GetActivePayment(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPayment
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// RecordPaymentRequested QR 建立後記錄 PENDING payment，payloadHash 作為稽核
func (s *LedgerService) RecordPaymentRequested(ctx context.Context, order *model.Order, tranID string, amountCents int64, currency, payloadHash string) (*model.Payment, error) {
	payment, err := s.repo.RecordPaymentRequested(ctx, &model.Payment{
		OrderID:       order.ID,
		TransactionID: tranID,
		Amount:        amountCents,
		Currency:      currency,
		PayloadHash:   payloadHash,
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	publishEvent(ctx, s.publisher, s.logger, model.PaymentEvent{
		Type:          model.PaymentEventRequested,
		OrderNumber:   order.OrderNumber,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
	})
	return payment, nil
}

// TransitionToCompleted compare-and-swap，false 代表已經被其他請求處理
func (s *LedgerService) TransitionToCompleted(ctx context.Context, order *model.Order, payment *model.Payment, gatewayRef *string) (bool, error) {
	ok, err := s.repo.TransitionToCompleted(ctx, order.ID, payment.ID, gatewayRef)
	if err != nil {
		return false, fmt.Errorf("transition order %s: %w", order.OrderNumber, err)
	}
	if !ok {
		return false, nil
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("tran_id", payment.TransactionID).
		Msg("payment completed")

	publishEvent(ctx, s.publisher, s.logger, model.PaymentEvent{
		Type:          model.PaymentEventCompleted,
		OrderNumber:   order.OrderNumber,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
	})
	return true, nil
}

// MarkCompletedManually 開發模式手動付款，與 TransitionToCompleted 相同的 CAS 保證
func (s *LedgerService) MarkCompletedManually(ctx context.Context, order *model.Order) (bool, error) {
	ok, err := s.repo.MarkCompletedManually(ctx, order.ID)
	if err != nil {
		return false, fmt.Errorf("mark order %s paid: %w", order.OrderNumber, err)
	}
	if !ok {
		return false, nil
	}

	s.logger.Warn().
		Str("order_number", order.OrderNumber).
		Msg("order marked paid manually")

	publishEvent(ctx, s.publisher, s.logger, model.PaymentEvent{
		Type:        model.PaymentEventCompleted,
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		Source:      "manual",
	})
	return true, nil
}
