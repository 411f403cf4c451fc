package payway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ValidationError 在送出任何網路請求前就被拒絕的輸入
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// GatewayError 代表 gateway 操作失敗
// StatusCode 為 0 表示沒有收到回應 (timeout 或連線錯誤)
type GatewayError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("payway %s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("payway %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("payway %s failed: %v", e.Operation, e.Err)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Retryable 5xx 與 timeout、連線錯誤可以由呼叫端重試
// 4xx 代表簽章或請求格式錯誤，重試不會改變結果
func (e *GatewayError) Retryable() bool {
	if e.StatusCode >= http.StatusInternalServerError {
		return true
	}
	if e.StatusCode != 0 {
		return false
	}
	return isTransportError(e.Err)
}

func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsRetryable
// true 表示可重試, false 表示不可重試
func IsRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Retryable()
	}
	return false
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
