package model

import "time"

type PaymentEventType string

const (
	PaymentEventRequested           PaymentEventType = "payment.requested"
	PaymentEventCompleted           PaymentEventType = "payment.completed"
	PaymentEventReceiptMaterialized PaymentEventType = "receipt.materialized"
)

// 送往 kafka 的付款生命週期事件，以訂單編號當 key
type PaymentEvent struct {
	Type          PaymentEventType `json:"type"`
	OrderNumber   string           `json:"order_number"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Amount        int64            `json:"amount"`
	Currency      string           `json:"currency,omitempty"`
	Source        string           `json:"source,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}
