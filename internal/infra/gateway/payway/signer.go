package payway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"strings"
)

/*
Signer 依照 gateway 規定的欄位順序串接後做 HMAC-SHA512，再 base64
欄位順序是對外契約，不能調整
缺少的欄位以空字串參與串接
*/
type Signer struct {
	key []byte
}

func NewSigner(apiKey string) *Signer {
	return &Signer{key: []byte(apiKey)}
}

// Canonical 依序串接欄位
func Canonical(fields ...string) string {
	var builder strings.Builder
	for _, f := range fields {
		builder.WriteString(f)
	}
	return builder.String()
}

func (s *Signer) Sign(fields ...string) string {
	mac := hmac.New(sha512.New, s.key)
	mac.Write([]byte(Canonical(fields...)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignQRRequest 產生 QR 請求的 19 個欄位簽章
func (s *Signer) SignQRRequest(r *QRRequest) string {
	return s.Sign(r.canonicalFields()...)
}

func (s *Signer) SignCheckTransaction(r *CheckTransactionRequest) string {
	return s.Sign(r.ReqTime, r.MerchantID, r.TranID)
}
