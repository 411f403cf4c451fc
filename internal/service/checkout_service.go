package service

import (
	"context"
	"fmt"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/gateway/payway"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CheckoutConfig struct {
	Currency      string
	PaymentOption string
	// 只有開發模式 gateway 失敗時才改用假 QR
	DevMode bool
}

type CheckoutItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type QRData struct {
	QRString       string `json:"qr_string,omitempty"`
	QRImage        string `json:"qr_image,omitempty"`
	AbapayDeeplink string `json:"abapay_deeplink,omitempty"`
	Hash           string `json:"hash"`
	Mock           bool   `json:"mock"`
}

type CheckoutResult struct {
	OrderID       uint   `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	TotalAmount   int64  `json:"total_amount"`
	QRData        QRData `json:"qr_data"`
}

type CheckoutService struct {
	catalog db.ICatalogRepository
	ledger  *LedgerService
	gateway PaymentGateway
	mockQR  MockQRGenerator
	cfg     CheckoutConfig
	logger  *zerolog.Logger
}

func NewCheckoutService(catalog db.ICatalogRepository, ledger *LedgerService, gateway PaymentGateway, mockQR MockQRGenerator, cfg CheckoutConfig, logger *zerolog.Logger) *CheckoutService {
	if catalog == nil || ledger == nil || gateway == nil {
		panic("checkout service dependency is nil")
	}
	if cfg.Currency == "" {
		cfg.Currency = payway.CurrencyUSD
	}
	if cfg.PaymentOption == "" {
		cfg.PaymentOption = payway.PaymentOptionAbapayKHQR
	}
	return &CheckoutService{
		catalog: catalog,
		ledger:  ledger,
		gateway: gateway,
		mockQR:  mockQR,
		cfg:     cfg,
		logger:  logger,
	}
}

/*
Checkout
 1. 向目錄取得單價，server 端計算總金額
 2. clientTotal 不為 nil 時必須與 server 總金額一致
 3. 建立訂單，向 gateway 要 QR
 4. 記錄 PENDING payment

錯誤:
  - ErrInvalidInput, *payway.ValidationError: 輸入錯誤，不會呼叫 gateway
  - ErrProductNotFound: 商品不存在或已下架
  - *payway.GatewayError: gateway 失敗 (非開發模式)
*/
func (s *CheckoutService) Checkout(ctx context.Context, items []CheckoutItem, clientTotal *int64) (*CheckoutResult, error) {
	lines, total, err := s.resolveLines(ctx, items)
	if err != nil {
		return nil, err
	}
	if clientTotal != nil && *clientTotal != total {
		return nil, fmt.Errorf("%w: total mismatch, client %d server %d", ErrInvalidInput, *clientTotal, total)
	}

	amount := centsToMajor(total)
	if err := payway.ValidateAmount(amount, s.cfg.Currency, s.cfg.PaymentOption); err != nil {
		return nil, err
	}

	order, err := s.ledger.CreateOrder(ctx, lines)
	if err != nil {
		return nil, err
	}
	tranID := TransactionIDFor(order.OrderNumber)

	qr, err := s.requestQR(ctx, amount, tranID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.RecordPaymentRequested(ctx, order, tranID, total, s.cfg.Currency, qr.Hash); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TransactionID: tranID,
		TotalAmount:   order.TotalAmount,
		QRData:        *qr,
	}, nil
}

func (s *CheckoutService) resolveLines(ctx context.Context, items []CheckoutItem) ([]model.OrderLine, int64, error) {
	if len(items) == 0 {
		return nil, 0, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > model.MaxLineQuantity {
			return nil, 0, fmt.Errorf("%w: quantity of product %d must be between 1 and %d", ErrInvalidInput, item.ProductID, model.MaxLineQuantity)
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.ActiveProducts(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("lookup products: %w", err)
	}

	var total int64
	lines := make([]model.OrderLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
		}
		lines = append(lines, model.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.UnitPrice,
		})
		lineTotal, ok := model.OrderItem{Quantity: item.Quantity, PriceAtTime: product.UnitPrice}.CheckedLineTotal()
		if ok {
			total, ok = model.AddCents(total, lineTotal)
		}
		if !ok {
			return nil, 0, fmt.Errorf("%w: order total overflows", ErrInvalidInput)
		}
	}
	return lines, total, nil
}

// payloadHash 使用送出請求的簽章；假 QR 使用 mock_ 前綴的 hash
func (s *CheckoutService) requestQR(ctx context.Context, amount decimal.Decimal, tranID string) (*QRData, error) {
	res, err := s.gateway.CreateQRPayment(ctx, amount, s.cfg.Currency, s.cfg.PaymentOption, tranID)
	if err == nil {
		return &QRData{
			QRString:       res.Response.QRString,
			QRImage:        res.Response.QRImage,
			AbapayDeeplink: res.Response.AbapayDeeplink,
			Hash:           res.RequestHash,
		}, nil
	}

	if !s.cfg.DevMode || s.mockQR == nil || !payway.IsGatewayError(err) {
		return nil, err
	}

	s.logger.Warn().
		Err(err).
		Str("tran_id", tranID).
		Msg("gateway unavailable, using mock qr for development")

	mock, mockErr := s.mockQR.Generate(amount, s.cfg.Currency, tranID)
	if mockErr != nil {
		return nil, fmt.Errorf("generate mock qr: %w", mockErr)
	}
	return &QRData{
		QRString: mock.QRString,
		QRImage:  mock.QRImage,
		Hash:     mock.Hash,
		Mock:     true,
	}, nil
}
