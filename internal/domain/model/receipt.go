package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReceiptSource string

const (
	ReceiptSourceReal      ReceiptSource = "REAL"
	ReceiptSourceSimulated ReceiptSource = "SIMULATED"
)

// ReceiptID 等於訂單編號，primary key 就是冪等保護
// 金額單位為元(major unit)
type Receipt struct {
	ReceiptID   string          `gorm:"primaryKey;type:varchar(32)" json:"receipt_id"`
	TotalItems  int             `gorm:"not null" json:"total_items"`
	TotalAmount decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_amount"`
	Source      ReceiptSource   `gorm:"type:varchar(16);not null;index" json:"source"`
	Items       []ReceiptItem   `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"created_at"`
}

// ProductID 為弱參照，商品刪除後仍保留名稱與分類快照
type ReceiptItem struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	ReceiptID           string          `gorm:"type:varchar(32);not null;index" json:"receipt_id"`
	ProductID           *uint           `gorm:"index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(200);not null" json:"product_name_snapshot"`
	CategorySnapshot    string          `gorm:"type:varchar(100);not null" json:"category_snapshot"`
	Qty                 int             `gorm:"not null" json:"qty"`
	UnitPrice           decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"unit_price"`
	LineTotal           decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"line_total"`
}
