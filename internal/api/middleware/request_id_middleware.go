package middleware

import (
	"context"
	"net/http"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/constants"
	"github.com/google/uuid"
)

func RequestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//從header內檢查是否有request id
		requestId := r.Header.Get(constants.RequestIDHeader)
		if requestId == "" {
			requestId = uuid.New().String()
		}
		w.Header().Set(constants.RequestIDHeader, requestId)

		ctx := context.WithValue(r.Context(), constants.RequestIDKey, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(r *http.Request) string {
	requestId := "unknown"
	if v, ok := r.Context().Value(constants.RequestIDKey).(string); ok {
		requestId = v
	}
	return requestId
}
