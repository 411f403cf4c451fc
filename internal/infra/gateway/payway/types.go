package payway

import (
	"encoding/json"
	"strconv"
)

const (
	// gateway 表示已結清的狀態碼，其他任何值都視為仍在處理中
	StatusCodeSettled = "00"

	ReqTimeLayout = "20060102150405"

	CurrencyUSD = "USD"
	CurrencyKHR = "KHR"

	PaymentOptionWechat     = "wechat"
	PaymentOptionAlipay     = "alipay"
	PaymentOptionAbapayKHQR = "abapay_khqr"

	PurchaseTypePurchase = "purchase"
)

// QRRequest 欄位宣告順序即為簽章順序
type QRRequest struct {
	ReqTime         string  `json:"req_time"`
	MerchantID      string  `json:"merchant_id"`
	TranID          string  `json:"tran_id"`
	Amount          string  `json:"amount"`
	Items           string  `json:"items"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	PurchaseType    string  `json:"purchase_type"`
	PaymentOption   string  `json:"payment_option"`
	CallbackURL     string  `json:"callback_url"`
	ReturnDeeplink  *string `json:"return_deeplink"`
	Currency        string  `json:"currency"`
	CustomFields    *string `json:"custom_fields"`
	ReturnParams    *string `json:"return_params"`
	Payout          *string `json:"payout"`
	Lifetime        int     `json:"lifetime"`
	QRImageTemplate string  `json:"qr_image_template"`
	Hash            string  `json:"hash"`
}

func (r *QRRequest) canonicalFields() []string {
	return []string{
		r.ReqTime,
		r.MerchantID,
		r.TranID,
		r.Amount,
		r.Items,
		r.FirstName,
		r.LastName,
		optional(r.Email),
		optional(r.Phone),
		r.PurchaseType,
		r.PaymentOption,
		r.CallbackURL,
		optional(r.ReturnDeeplink),
		r.Currency,
		optional(r.CustomFields),
		optional(r.ReturnParams),
		optional(r.Payout),
		strconv.Itoa(r.Lifetime),
		r.QRImageTemplate,
	}
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type CheckTransactionRequest struct {
	ReqTime    string `json:"req_time"`
	MerchantID string `json:"merchant_id"`
	TranID     string `json:"tran_id"`
	Hash       string `json:"hash"`
}

// Item 以 json 陣列再 base64 放進簽章與請求
// Price 保留與 amount 完全相同的字串
type Item struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
}

type Status struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// QRResponse gateway 回傳的 QR 資料
type QRResponse struct {
	Status         Status `json:"status"`
	Amount         any    `json:"amount,omitempty"`
	Currency       string `json:"currency,omitempty"`
	QRString       string `json:"qrString,omitempty"`
	QRImage        string `json:"qrImage,omitempty"`
	AbapayDeeplink string `json:"abapay_deeplink,omitempty"`
	AppStore       string `json:"app_store,omitempty"`
	PlayStore      string `json:"play_store,omitempty"`
	Hash           string `json:"hash,omitempty"`
}

// QRPayment 建立 QR 的結果，RequestHash 是送出請求的簽章，作為稽核用
type QRPayment struct {
	TranID      string
	Amount      string
	Currency    string
	RequestHash string
	Response    QRResponse
}

// Data 的內容格式由 gateway 決定，只在需要時寬鬆解析
type TransactionStatus struct {
	Status Status          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Settled 只有固定狀態碼代表結清，缺少狀態碼一律視為仍在處理
func (t *TransactionStatus) Settled() bool {
	return t != nil && t.Status.Code == StatusCodeSettled
}

// GatewayRef gateway 指派的交易參考 (data.apv)，沒有時回傳 nil
func (t *TransactionStatus) GatewayRef() *string {
	if t == nil || len(t.Data) == 0 {
		return nil
	}
	var data struct {
		APV any `json:"apv"`
	}
	if err := json.Unmarshal(t.Data, &data); err != nil || data.APV == nil {
		return nil
	}
	var ref string
	switch v := data.APV.(type) {
	case string:
		ref = v
	case float64:
		ref = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return nil
	}
	if ref == "" {
		return nil
	}
	return &ref
}
