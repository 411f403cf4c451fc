package dto

import (
	"time"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/service"
	"github.com/shopspring/decimal"
)

type CartItemDTO struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// TotalAmount 由前端計算，有帶時 server 會驗證
type CheckoutRequest struct {
	Items       []CartItemDTO `json:"items"`
	TotalAmount *int64        `json:"total_amount"`
}

func (r CheckoutRequest) ToServiceItems() []service.CheckoutItem {
	items := make([]service.CheckoutItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, service.CheckoutItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return items
}

type CheckoutResponse struct {
	OrderID       uint           `json:"order_id"`
	OrderNumber   string         `json:"order_number"`
	TransactionID string         `json:"transaction_id"`
	TotalAmount   int64          `json:"total_amount"`
	QRData        service.QRData `json:"qr_data"`
}

func NewCheckoutResponse(result *service.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		OrderID:       result.OrderID,
		OrderNumber:   result.OrderNumber,
		TransactionID: result.TransactionID,
		TotalAmount:   result.TotalAmount,
		QRData:        result.QRData,
	}
}

type OrderStatusResponse struct {
	OrderID       uint   `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func NewOrderStatusResponse(view service.OrderStatusView) OrderStatusResponse {
	return OrderStatusResponse{
		OrderID:       view.OrderID,
		OrderNumber:   view.OrderNumber,
		Status:        string(view.Status),
		PaymentStatus: view.PaymentStatus,
	}
}

type ReceiptItemDTO struct {
	ProductID   *uint  `json:"product_id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Qty         int    `json:"qty"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// 收據金額一律兩位小數
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ReceiptResponse 給外部 PDF 產生器讀取
type ReceiptResponse struct {
	ReceiptID   string           `json:"receipt_id"`
	TotalItems  int              `json:"total_items"`
	TotalAmount string           `json:"total_amount"`
	Source      string           `json:"source"`
	CreatedAt   time.Time        `json:"created_at"`
	Items       []ReceiptItemDTO `json:"items"`
}

func NewReceiptResponse(receipt *model.Receipt) ReceiptResponse {
	items := make([]ReceiptItemDTO, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, ReceiptItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductNameSnapshot,
			Category:    item.CategorySnapshot,
			Qty:         item.Qty,
			UnitPrice:   money(item.UnitPrice),
			LineTotal:   money(item.LineTotal),
		})
	}
	return ReceiptResponse{
		ReceiptID:   receipt.ReceiptID,
		TotalItems:  receipt.TotalItems,
		TotalAmount: money(receipt.TotalAmount),
		Source:      string(receipt.Source),
		CreatedAt:   receipt.CreatedAt,
		Items:       items,
	}
}
