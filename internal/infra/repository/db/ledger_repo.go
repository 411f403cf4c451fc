package db

import (
	"context"
	"errors"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"gorm.io/gorm"
)

var (
	ErrTransactionIDTaken = errors.New("transaction id belongs to another order")
	// 只在 transaction 內部使用，代表 compare-and-swap 失敗需要 rollback
	errLostRace = errors.New("lost race")
)

/*
訂單與付款狀態只能透過這裡的 atomic 操作修改
狀態轉換一律使用 conditional update (WHERE status = ?) 當作 compare-and-swap
*/
type LedgerRepo struct {
	db *DbDao
}

func NewLedgerRepo(db *DbDao) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// CreateOrder 訂單與明細在同一個 transaction 內建立
func (s *LedgerRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Payments").Create(order).Error
	})
}

func (s *LedgerRepo) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *LedgerRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetActivePayment 最新建立的 payment
func (s *LedgerRepo) GetActivePayment(ctx context.Context, orderID uint) (*model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *LedgerRepo) GetPaymentByTransactionID(ctx context.Context, tranID string) (*model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).First(&payment, "transaction_id = ?", tranID).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

/*
RecordPaymentRequested 建立 PENDING payment
同一個 transaction id 重送時直接回傳既有資料
同訂單其他仍在 PENDING 的 payment 會被標記為 FAILED，確保同時只有一筆 active PENDING
*/
func (s *LedgerRepo) RecordPaymentRequested(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	var result *model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Payment
		err := tx.Where("transaction_id = ?", payment.TransactionID).Take(&existing).Error
		if err == nil {
			if existing.OrderID != payment.OrderID {
				return ErrTransactionIDTaken
			}
			result = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Model(&model.Payment{}).
			Where("order_id = ? AND status = ?", payment.OrderID, model.PaymentStatusPending).
			Update("status", model.PaymentStatusFailed).Error; err != nil {
			return err
		}

		payment.Status = model.PaymentStatusPending
		if err := tx.Create(payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTransactionIDTaken
			}
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

/*
TransitionToCompleted
order PENDING -> PAID 與 payment PENDING -> COMPLETED 在同一個 transaction
任一條件不成立代表已經被其他請求處理過，回傳 false 不視為錯誤
*/
func (s *LedgerRepo) TransitionToCompleted(ctx context.Context, orderID, paymentID uint, gatewayRef *string) (bool, error) {
	return s.casCompleted(ctx, orderID, func(tx *gorm.DB) error {
		updates := map[string]any{"status": model.PaymentStatusCompleted}
		if gatewayRef != nil {
			updates["gateway_ref"] = *gatewayRef
		}
		res := tx.Model(&model.Payment{}).
			Where("id = ? AND order_id = ? AND status = ?", paymentID, orderID, model.PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostRace
		}
		return nil
	})
}

// MarkCompletedManually 開發模式手動付款，沒有 payment 時只轉換訂單
func (s *LedgerRepo) MarkCompletedManually(ctx context.Context, orderID uint) (bool, error) {
	return s.casCompleted(ctx, orderID, func(tx *gorm.DB) error {
		var payment model.Payment
		err := tx.Where("order_id = ?", orderID).Order("id DESC").Take(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if payment.Status != model.PaymentStatusPending {
			return nil
		}
		return tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
			Update("status", model.PaymentStatusCompleted).Error
	})
}

// 訂單那一列是唯一的序列化點，先搶訂單再處理 payment
func (s *LedgerRepo) casCompleted(ctx context.Context, orderID uint, fn func(tx *gorm.DB) error) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
			Update("status", model.OrderStatusPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostRace
		}
		return fn(tx)
	})
	if errors.Is(err, errLostRace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
