package payway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func expectedHash(key, message string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:     baseURL,
		MerchantID:  "m1",
		APIKey:      "secret",
		CallbackURL: "https://kiosk.example/callback",
	}, WithClock(fixedClock))
}

func TestSignConcatenatesInOrder(t *testing.T) {
	s := NewSigner("k")
	require.Equal(t, expectedHash("k", "abc"), s.Sign("a", "b", "c"))
	require.NotEqual(t, s.Sign("a", "b", "c"), s.Sign("c", "b", "a"))
}

func TestSignIsDeterministic(t *testing.T) {
	s := NewSigner("k")
	require.Equal(t, s.Sign("20250101000000", "m1", "TRX-1"), s.Sign("20250101000000", "m1", "TRX-1"))
	require.NotEqual(t, s.Sign("x"), NewSigner("other").Sign("x"))
}

func TestNilOptionalFieldSignsAsEmpty(t *testing.T) {
	s := NewSigner("k")
	empty := ""
	withNil := &QRRequest{TranID: "TRX-1", Lifetime: 30}
	withEmpty := &QRRequest{TranID: "TRX-1", Lifetime: 30, Email: &empty, Phone: &empty, Payout: &empty}
	require.Equal(t, s.SignQRRequest(withNil), s.SignQRRequest(withEmpty))
}

func TestSignQRRequestFieldOrder(t *testing.T) {
	c := newTestClient("")
	req, err := c.BuildQRRequest(decimal.NewFromInt(5), "usd", "ABAPAY_KHQR", "TRX-ORD-1")
	require.NoError(t, err)

	require.Equal(t, "20250102030405", req.ReqTime)
	require.Equal(t, "5.00", req.Amount)
	require.Equal(t, CurrencyUSD, req.Currency)
	require.Equal(t, PaymentOptionAbapayKHQR, req.PaymentOption)

	message := "20250102030405" + "m1" + "TRX-ORD-1" + "5.00" + req.Items +
		"Walk-in" + "Customer" + "" + "" + "purchase" + "abapay_khqr" +
		req.CallbackURL + "" + "USD" + "" + "" + "" + "30" + "template4_color"
	require.Equal(t, expectedHash("secret", message), req.Hash)
}

// 固定 key、merchant 與時間下的已知簽章，items 編碼或欄位順序改變都會失敗
func TestSignGoldenVectors(t *testing.T) {
	require.Equal(t,
		"u57HcB996KNi13W5v8thpHS/i/adXb7gaJpLKEvFmlT/0c/cBRUXWa/Zf/0aJVs4Sc53XqS+eZpl5qGayX4q3g==",
		NewSigner("k").Sign("a", "b", "c"))

	c := newTestClient("")
	req, err := c.BuildQRRequest(decimal.NewFromInt(5), "usd", "ABAPAY_KHQR", "TRX-ORD-1")
	require.NoError(t, err)
	require.Equal(t, "W3sibmFtZSI6Ik9yZGVyIFBheW1lbnQiLCJxdWFudGl0eSI6MSwicHJpY2UiOjUuMDB9XQ==", req.Items)
	require.Equal(t, "aHR0cHM6Ly9raW9zay5leGFtcGxlL2NhbGxiYWNr", req.CallbackURL)
	require.Equal(t,
		"NYgY2XFjrogxCa9laIg+wQrTJ/zu4Y9t77ZmdbvEyDIdyhY38bDKpccXWHmY34dsolNj3Z0TY7DEcwsLZeklXA==",
		req.Hash)

	check := c.BuildCheckTransactionRequest("TRX-ORD-1")
	require.Equal(t,
		"2t5zsxuI13JcU7IlF3x1gvz9tM7g7/XLP3VdxGFp822bN0WImsNhqUx1CXerPspKdY9fzKPqZ4dzobXhFUtGxw==",
		check.Hash)
}

func TestSignCheckTransaction(t *testing.T) {
	c := newTestClient("")
	req := c.BuildCheckTransactionRequest("TRX-ORD-1")
	require.Equal(t, expectedHash("secret", "20250102030405"+"m1"+"TRX-ORD-1"), req.Hash)
}
