package api

import "github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/handler"

type Server struct {
	PaymentHandler *handler.PaymentHandler
}

func NewServer(
	paymentHandler *handler.PaymentHandler,
) *Server {
	return &Server{
		PaymentHandler: paymentHandler,
	}
}
