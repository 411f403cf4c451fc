package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/producer"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReceiptService struct {
	receipts  db.IReceiptRepository
	catalog   db.ICatalogRepository
	publisher producer.Publisher
	logger    *zerolog.Logger
}

func NewReceiptService(receipts db.IReceiptRepository, catalog db.ICatalogRepository, publisher producer.Publisher, logger *zerolog.Logger) *ReceiptService {
	if receipts == nil {
		panic("receipt service dependency receipts is nil")
	}
	if catalog == nil {
		panic("receipt service dependency catalog is nil")
	}
	return &ReceiptService{
		receipts:  receipts,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// 分 -> 元，只在這個方向轉換一次
func centsToMajor(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

/*
Materialize 將已付款訂單快照成收據
收據編號等於訂單編號，重複呼叫是 no-op
冪等由 receipt_id 唯一性保證，事先查詢只是省掉組資料
回傳 true 表示本次建立
錯誤:
  - ErrOrderNotPaid: 訂單不在已付款狀態
*/
func (s *ReceiptService) Materialize(ctx context.Context, order *model.Order) (bool, error) {
	if !order.Status.IsSettled() {
		return false, ErrOrderNotPaid
	}

	exists, err := s.receipts.ExistsReceipt(ctx, order.OrderNumber)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	receipt, err := s.buildReceipt(ctx, order)
	if err != nil {
		return false, err
	}

	created, err := s.receipts.CreateReceipt(ctx, receipt)
	if err != nil {
		return false, fmt.Errorf("create receipt %s: %w", order.OrderNumber, err)
	}
	if !created {
		return false, nil
	}

	s.logger.Info().
		Str("receipt_id", receipt.ReceiptID).
		Int("total_items", receipt.TotalItems).
		Str("total_amount", receipt.TotalAmount.StringFixed(2)).
		Msg("receipt materialized")

	publishEvent(ctx, s.publisher, s.logger, model.PaymentEvent{
		Type:        model.PaymentEventReceiptMaterialized,
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		Source:      string(receipt.Source),
	})
	return true, nil
}

// 商品名稱與分類取當下目錄的快照，之後目錄修改不影響收據
func (s *ReceiptService) buildReceipt(ctx context.Context, order *model.Order) (*model.Receipt, error) {
	ids := make([]uint, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}

	totalItems := 0
	items := make([]model.ReceiptItem, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		if item.Quantity < 0 || totalItems > math.MaxInt-item.Quantity {
			return nil, fmt.Errorf("%w: item count of order %s overflows", ErrInvalidInput, order.OrderNumber)
		}
		totalItems += item.Quantity

		var productID *uint
		product, ok := products[item.ProductID]
		if ok {
			id := item.ProductID
			productID = &id
		} else {
			product = db.UnknownProduct(item.ProductID)
		}

		items = append(items, model.ReceiptItem{
			ProductID:           productID,
			ProductNameSnapshot: product.Name,
			CategorySnapshot:    product.CategoryName,
			Qty:                 item.Quantity,
			UnitPrice:           centsToMajor(item.PriceAtTime),
			LineTotal:           centsToMajor(item.LineTotal()),
		})
	}

	return &model.Receipt{
		ReceiptID:   order.OrderNumber,
		TotalItems:  totalItems,
		TotalAmount: centsToMajor(order.TotalAmount),
		Source:      model.ReceiptSourceReal,
		Items:       items,
	}, nil
}

func (s *ReceiptService) GetReceipt(ctx context.Context, receiptID string) (*model.Receipt, error) {
	receipt, err := s.receipts.GetReceiptByID(ctx, receiptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// PurgeSimulated 管理用，只刪除模擬資料，REAL 收據不會被動到
func (s *ReceiptService) PurgeSimulated(ctx context.Context) (int64, error) {
	deleted, err := s.receipts.DeleteReceiptsBySource(ctx, model.ReceiptSourceSimulated)
	if err != nil {
		return 0, fmt.Errorf("purge simulated receipts: %w", err)
	}
	s.logger.Info().Int64("deleted", deleted).Msg("simulated receipts purged")
	return deleted, nil
}
