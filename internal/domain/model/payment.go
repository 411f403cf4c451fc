package model

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// 一筆訂單可以有多筆 payment，最新建立的那筆是 active payment
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderID       uint          `gorm:"not null;index" json:"order_id"`
	TransactionID string        `gorm:"type:varchar(100);not null;uniqueIndex" json:"transaction_id"`
	Amount        int64         `gorm:"not null" json:"amount"` // 單位: 分
	Currency      string        `gorm:"type:varchar(3);not null" json:"currency"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PayloadHash   string        `gorm:"type:varchar(255)" json:"payload_hash"`
	GatewayRef    *string       `gorm:"type:varchar(255)" json:"gateway_ref,omitempty"`
	BaseModel
}
