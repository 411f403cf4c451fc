package service

import (
	"context"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/gateway/payway"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/qrcode"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_service/payment_gateway.go -package=mock_service . PaymentGateway
type PaymentGateway interface {
	CreateQRPayment(ctx context.Context, amount decimal.Decimal, currency, paymentOption, tranID string) (*payway.QRPayment, error)
	CheckTransactionStatus(ctx context.Context, tranID string) (*payway.TransactionStatus, error)
}

// MockQRGenerator 開發環境 gateway 失敗時的替代
type MockQRGenerator interface {
	Generate(amount decimal.Decimal, currency, tranID string) (*qrcode.MockKHQR, error)
}

// PollGate 跨 instance 限制查詢 gateway 的頻率
type PollGate interface {
	Acquire(ctx context.Context, orderNumber string) (bool, error)
	// Release 訂單結清後清掉節流 key
	Release(ctx context.Context, orderNumber string) error
}

var (
	_ PaymentGateway  = (*payway.Client)(nil)
	_ MockQRGenerator = (*qrcode.MockGenerator)(nil)
)
