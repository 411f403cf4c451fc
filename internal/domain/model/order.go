package model

import (
	"math"
	"slices"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"   // 待付款
	OrderStatusPaid      OrderStatus = "PAID"      // 已付款
	OrderStatusPreparing OrderStatus = "PREPARING" // 製作中
	OrderStatusServed    OrderStatus = "SERVED"    // 已出餐
	OrderStatusCancelled OrderStatus = "CANCELLED" // 已取消
)

// 已經付款過的狀態，收據只能從這些狀態產生
func (s OrderStatus) IsSettled() bool {
	return slices.Contains([]OrderStatus{OrderStatusPaid, OrderStatusPreparing, OrderStatusServed}, s)
}

// TotalAmount 只在建立時計算一次，之後不會重算
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount int64       `gorm:"not null" json:"total_amount"` // 單位: 分
	OrderItems  []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	Payments    []Payment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	BaseModel
}

type OrderItem struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	OrderID     uint  `gorm:"not null;index" json:"order_id"`
	ProductID   uint  `gorm:"not null;index" json:"product_id"`
	Quantity    int   `gorm:"not null" json:"quantity"`
	PriceAtTime int64 `gorm:"not null" json:"price_at_time"` // 建立訂單當下的單價快照
	BaseModel
}

// 單筆明細的數量上限
const MaxLineQuantity = 1000

// LineTotal 衍生值，不落地
func (i OrderItem) LineTotal() int64 {
	return int64(i.Quantity) * i.PriceAtTime
}

// CheckedLineTotal 負數或 int64 溢位時 ok 為 false
func (i OrderItem) CheckedLineTotal() (int64, bool) {
	if i.Quantity < 0 || i.PriceAtTime < 0 {
		return 0, false
	}
	if i.PriceAtTime != 0 && int64(i.Quantity) > math.MaxInt64/i.PriceAtTime {
		return 0, false
	}
	return int64(i.Quantity) * i.PriceAtTime, true
}

// AddCents 只接受非負金額，溢位時 ok 為 false
func AddCents(total, amount int64) (int64, bool) {
	if total < 0 || amount < 0 || total > math.MaxInt64-amount {
		return 0, false
	}
	return total + amount, true
}

// OrderLine 建立訂單的輸入，已由目錄驗證過
type OrderLine struct {
	ProductID uint
	Quantity  int
	UnitPrice int64
}
