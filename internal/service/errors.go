package service

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrReceiptNotFound   = errors.New("receipt not found")
	ErrNoPayment         = errors.New("order has no payment")
	ErrOrderNotPaid      = errors.New("order is not paid")
	ErrManualPayDisabled = errors.New("manual payment is only available in development mode")
)
