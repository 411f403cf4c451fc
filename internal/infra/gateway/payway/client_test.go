package payway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"5", CurrencyUSD, "5.00"},
		{"0.5", CurrencyUSD, "0.50"},
		{"12.345", CurrencyUSD, "12.35"},
		{"12345.6", CurrencyKHR, "12346"},
		{"4000", CurrencyKHR, "4000"},
		{"100.5", CurrencyKHR, "100"},
		{"101.5", CurrencyKHR, "102"},
	}
	for _, tc := range cases {
		t.Run(tc.amount+tc.currency, func(t *testing.T) {
			require.Equal(t, tc.want, FormatAmount(decimal.RequireFromString(tc.amount), tc.currency))
		})
	}
}

func TestValidateQRPayment(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		option   string
		field    string
	}{
		{"wechat requires usd", "5000", CurrencyKHR, PaymentOptionWechat, "currency"},
		{"alipay requires usd", "5000", CurrencyKHR, PaymentOptionAlipay, "currency"},
		{"khr minimum", "99", CurrencyKHR, PaymentOptionAbapayKHQR, "amount"},
		{"usd minimum", "0.001", CurrencyUSD, PaymentOptionAbapayKHQR, "amount"},
		{"unsupported currency", "5", "EUR", PaymentOptionAbapayKHQR, "currency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQRPayment(decimal.RequireFromString(tc.amount), tc.currency, tc.option, "TRX-1")
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, tc.field, vErr.Field)
		})
	}

	require.NoError(t, ValidateQRPayment(decimal.NewFromInt(100), "khr", PaymentOptionAbapayKHQR, "TRX-1"))
	require.NoError(t, ValidateQRPayment(decimal.RequireFromString("0.01"), CurrencyUSD, PaymentOptionWechat, "TRX-1"))
	require.True(t, IsValidationError(ValidateQRPayment(decimal.NewFromInt(5), CurrencyUSD, PaymentOptionAbapayKHQR, "")))
}

func TestCreateQRPaymentValidationDoesNotCallGateway(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CreateQRPayment(context.Background(), decimal.NewFromInt(5000), CurrencyKHR, PaymentOptionWechat, "TRX-1")
	require.True(t, IsValidationError(err))
	require.False(t, IsRetryable(err))
	require.Equal(t, int32(0), calls.Load())
}

func TestCreateQRPaymentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, PathGenerateQR, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req QRRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "TRX-ORD-1", req.TranID)
		require.Equal(t, "5.00", req.Amount)
		require.NotEmpty(t, req.Hash)

		items, err := base64.StdEncoding.DecodeString(req.Items)
		require.NoError(t, err)
		require.JSONEq(t, `[{"name":"Order Payment","quantity":1,"price":5.00}]`, string(items))

		callback, err := base64.StdEncoding.DecodeString(req.CallbackURL)
		require.NoError(t, err)
		require.Equal(t, "https://kiosk.example/callback", string(callback))

		_, _ = w.Write([]byte(`{"status":{"code":"0","message":"Success."},"amount":5,"currency":"USD","qrString":"000201","qrImage":"data:image/png;base64,AAA","abapay_deeplink":"abamobilebank://x"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	res, err := c.CreateQRPayment(context.Background(), decimal.NewFromInt(5), CurrencyUSD, PaymentOptionAbapayKHQR, "TRX-ORD-1")
	require.NoError(t, err)
	require.Equal(t, "TRX-ORD-1", res.TranID)
	require.Equal(t, "5.00", res.Amount)
	require.NotEmpty(t, res.RequestHash)
	require.Equal(t, "000201", res.Response.QRString)
	require.Equal(t, "abamobilebank://x", res.Response.AbapayDeeplink)
}

func TestGatewayErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"server error", http.StatusServiceUnavailable, `{"status":{"code":"500"}}`, true},
		{"bad request", http.StatusBadRequest, `{"status":{"code":"1","message":"Wrong hash"}}`, false},
		{"forbidden", http.StatusForbidden, `{}`, false},
		{"malformed body", http.StatusOK, `not-json`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			_, err := c.CheckTransactionStatus(context.Background(), "TRX-1")
			require.Error(t, err)

			var gwErr *GatewayError
			require.ErrorAs(t, err, &gwErr)
			require.Equal(t, tc.status, gwErr.StatusCode)
			require.Equal(t, OpCheckTransaction, gwErr.Operation)
			require.Equal(t, tc.retryable, IsRetryable(err))
		})
	}
}

func TestTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, MerchantID: "m1", APIKey: "secret", Timeout: 50 * time.Millisecond})
	_, err := c.CheckTransactionStatus(context.Background(), "TRX-1")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, 0, gwErr.StatusCode)
	require.True(t, gwErr.Retryable())
}

func TestConnectionRefusedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(url)
	_, err := c.CheckTransactionStatus(context.Background(), "TRX-1")
	require.True(t, IsGatewayError(err))
	require.True(t, IsRetryable(err))
}

func TestCheckTransactionStatus(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		settled bool
		ref     *string
	}{
		{"settled", `{"data":{"payment_status_code":0,"apv":"123456"},"status":{"code":"00","message":"Success!"}}`, true, strPtr("123456")},
		{"numeric apv", `{"data":{"apv":987654},"status":{"code":"00"}}`, true, strPtr("987654")},
		{"pending", `{"data":{"payment_status":"PENDING"},"status":{"code":"2","message":"Pending"}}`, false, nil},
		{"missing status", `{}`, false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, PathCheckTransaction, r.URL.Path)
				var req CheckTransactionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.Equal(t, "TRX-1", req.TranID)
				require.Equal(t, "m1", req.MerchantID)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			res, err := c.CheckTransactionStatus(context.Background(), "TRX-1")
			require.NoError(t, err)
			require.Equal(t, tc.settled, res.Settled())
			require.Equal(t, tc.ref, res.GatewayRef())
		})
	}
}

func strPtr(s string) *string {
	return &s
}
