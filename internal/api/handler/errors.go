package handler

import (
	"errors"
	"net/http"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/response"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/constants"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/gateway/payway"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/service"
)

type GatewayErrorData struct {
	Retryable  bool `json:"retryable"`
	StatusCode int  `json:"status_code,omitempty"`
}

type ValidationErrorData struct {
	Field string `json:"field"`
}

// writeError service 錯誤轉換成 http status
func (h *PaymentHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *payway.ValidationError
	var gwErr *payway.GatewayError

	switch {
	case errors.As(err, &vErr):
		response.ErrorJSON(w, http.StatusBadRequest, vErr.Error(), ValidationErrorData{Field: vErr.Field})
	case errors.Is(err, service.ErrInvalidInput):
		response.ErrorJSON(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrReceiptNotFound):
		response.ErrorJSON(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrManualPayDisabled):
		response.ErrorJSON(w, http.StatusForbidden, err.Error(), nil)
	case errors.As(err, &gwErr):
		// body 只留在 log，不回給前端
		h.logger.Error().Err(err).
			Str("request_id", requestID(r)).
			Int("gateway_status", gwErr.StatusCode).
			Str("gateway_body", gwErr.Body).
			Msg("payment gateway failed")
		response.ErrorJSON(w, http.StatusBadGateway, "payment gateway unavailable", GatewayErrorData{
			Retryable:  gwErr.Retryable(),
			StatusCode: gwErr.StatusCode,
		})
	default:
		h.logger.Error().Err(err).
			Str("request_id", requestID(r)).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Msg("internal error")
		response.ErrorJSON(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

func requestID(r *http.Request) string {
	if v, ok := r.Context().Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return "unknown"
}
