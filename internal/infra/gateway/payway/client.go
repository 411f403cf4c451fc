package payway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL         = "https://checkout-sandbox.payway.com.kh/api/payment-gateway/v1"
	DefaultTimeout         = 30 * time.Second
	DefaultLifetime        = 30
	DefaultQRImageTemplate = "template4_color"

	PathGenerateQR       = "/payments/generate-qr"
	PathCheckTransaction = "/payments/check-transaction-2"

	OpGenerateQR       = "generate-qr"
	OpCheckTransaction = "check-transaction"

	walkInFirstName = "Walk-in"
	walkInLastName  = "Customer"
	orderItemName   = "Order Payment"

	maxResponseBytes = 1 << 20
)

var (
	minAmountUSD = decimal.RequireFromString("0.01")
	minAmountKHR = decimal.NewFromInt(100)
)

type Config struct {
	BaseURL         string
	MerchantID      string
	APIKey          string
	CallbackURL     string
	Timeout         time.Duration
	Lifetime        int
	QRImageTemplate string
}

func (c *Config) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Lifetime <= 0 {
		c.Lifetime = DefaultLifetime
	}
	if c.QRImageTemplate == "" {
		c.QRImageTemplate = DefaultQRImageTemplate
	}
}

// Client 只負責兩個對外操作，不做自動重試，錯誤交給呼叫端決定
type Client struct {
	cfg        Config
	signer     *Signer
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func NewClient(cfg Config, options ...Option) *Client {
	cfg.setDefaults()
	c := &Client{
		cfg:    cfg,
		signer: NewSigner(cfg.APIKey),
		now:    time.Now,
	}
	for _, option := range options {
		option(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return c
}

func (c *Client) reqTime() string {
	return c.now().UTC().Format(ReqTimeLayout)
}

/*
FormatAmount 簽章與請求內容必須使用同一個字串
USD: 固定兩位小數
KHR: 四捨五入為整數(銀行家捨入)，沒有小數點
*/
func FormatAmount(amount decimal.Decimal, currency string) string {
	if strings.ToUpper(currency) == CurrencyUSD {
		return amount.StringFixed(2)
	}
	return amount.RoundBank(0).StringFixed(0)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// ValidateQRPayment 送出請求前的檢查，失敗回傳 *ValidationError
func ValidateQRPayment(amount decimal.Decimal, currency, paymentOption, tranID string) error {
	if tranID == "" {
		return newValidationError("tran_id", "must not be empty")
	}
	return ValidateAmount(amount, currency, paymentOption)
}

// ValidateAmount 幣別、付款方式與最低金額，不需要交易編號
func ValidateAmount(amount decimal.Decimal, currency, paymentOption string) error {
	currency = strings.ToUpper(currency)
	paymentOption = strings.ToLower(paymentOption)

	if paymentOption == "" {
		return newValidationError("payment_option", "must not be empty")
	}
	if currency != CurrencyUSD && currency != CurrencyKHR {
		return newValidationError("currency", fmt.Sprintf("unsupported currency %q", currency))
	}
	if (paymentOption == PaymentOptionWechat || paymentOption == PaymentOptionAlipay) && currency != CurrencyUSD {
		return newValidationError("currency", "wechat/alipay requires USD currency")
	}
	if currency == CurrencyKHR && amount.LessThan(minAmountKHR) {
		return newValidationError("amount", "minimum amount for KHR is 100")
	}
	if currency == CurrencyUSD && amount.LessThan(minAmountUSD) {
		return newValidationError("amount", "minimum amount for USD is 0.01")
	}
	return nil
}

// BuildQRRequest 驗證並組出已簽章的 QR 請求
func (c *Client) BuildQRRequest(amount decimal.Decimal, currency, paymentOption, tranID string) (*QRRequest, error) {
	if err := ValidateQRPayment(amount, currency, paymentOption, tranID); err != nil {
		return nil, err
	}
	currency = strings.ToUpper(currency)
	paymentOption = strings.ToLower(paymentOption)
	amountStr := FormatAmount(amount, currency)

	items, err := json.Marshal([]Item{
		{Name: orderItemName, Quantity: 1, Price: json.Number(amountStr)},
	})
	if err != nil {
		return nil, err
	}

	req := &QRRequest{
		ReqTime:         c.reqTime(),
		MerchantID:      c.cfg.MerchantID,
		TranID:          tranID,
		Amount:          amountStr,
		Items:           b64(string(items)),
		FirstName:       walkInFirstName,
		LastName:        walkInLastName,
		PurchaseType:    PurchaseTypePurchase,
		PaymentOption:   paymentOption,
		CallbackURL:     b64(c.cfg.CallbackURL),
		Currency:        currency,
		Lifetime:        c.cfg.Lifetime,
		QRImageTemplate: c.cfg.QRImageTemplate,
	}
	req.Hash = c.signer.SignQRRequest(req)
	return req, nil
}

// CreateQRPayment 建立 QR 付款請求
func (c *Client) CreateQRPayment(ctx context.Context, amount decimal.Decimal, currency, paymentOption, tranID string) (*QRPayment, error) {
	req, err := c.BuildQRRequest(amount, currency, paymentOption, tranID)
	if err != nil {
		return nil, err
	}

	var res QRResponse
	if err := c.post(ctx, OpGenerateQR, PathGenerateQR, req, &res); err != nil {
		return nil, err
	}

	return &QRPayment{
		TranID:      req.TranID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RequestHash: req.Hash,
		Response:    res,
	}, nil
}

// BuildCheckTransactionRequest tranID 必須與建立 QR 時完全相同
func (c *Client) BuildCheckTransactionRequest(tranID string) *CheckTransactionRequest {
	req := &CheckTransactionRequest{
		ReqTime:    c.reqTime(),
		MerchantID: c.cfg.MerchantID,
		TranID:     tranID,
	}
	req.Hash = c.signer.SignCheckTransaction(req)
	return req
}

// CheckTransactionStatus 查詢交易狀態
func (c *Client) CheckTransactionStatus(ctx context.Context, tranID string) (*TransactionStatus, error) {
	if tranID == "" {
		return nil, newValidationError("tran_id", "must not be empty")
	}

	var res TransactionStatus
	if err := c.post(ctx, OpCheckTransaction, PathCheckTransaction, c.BuildCheckTransactionRequest(tranID), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// 單次 POST，timeout 由 config 控制
func (c *Client) post(ctx context.Context, op, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &GatewayError{Operation: op, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &GatewayError{Operation: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}
