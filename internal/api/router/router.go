package router

import (
	"net/http"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api"
	m "github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/middleware"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/constants"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// checkoutLimiter 為 nil 時 checkout 不限流
func SetupRouter(server *api.Server, checkoutLimiter m.ILimiter, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// API 路由
	r.Route(constants.APIPrefix, func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			checkout := r.With()
			if checkoutLimiter != nil {
				checkout = r.With(m.NewRateLimitMiddleware(checkoutLimiter))
			}
			checkout.Post("/checkout", server.PaymentHandler.Checkout)

			r.Get("/orders/number/{orderNumber}/status", server.PaymentHandler.OrderStatusByNumber)
			r.Get("/transactions/{tranID}/status", server.PaymentHandler.TransactionStatus)

			r.Route("/orders/{orderID}", func(r chi.Router) {
				r.Get("/status", server.PaymentHandler.OrderStatus)
				r.Post("/mock-pay", server.PaymentHandler.MockPay)
				r.Get("/receipt", server.PaymentHandler.Receipt)
			})
		})
	})

	if logger != nil {
		chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
			return nil
		})
	}
	return r
}
