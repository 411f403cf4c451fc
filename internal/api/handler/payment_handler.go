package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/dto"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/response"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxRequestBody = 64 << 10

type ICheckoutService interface {
	Checkout(ctx context.Context, items []service.CheckoutItem, clientTotal *int64) (*service.CheckoutResult, error)
}

type IReconcileService interface {
	Reconcile(ctx context.Context, orderID uint) (service.OrderStatusView, error)
	ReconcileByNumber(ctx context.Context, orderNumber string) (service.OrderStatusView, error)
	ReconcileByTransaction(ctx context.Context, tranID string) (service.OrderStatusView, error)
	MarkPaidManually(ctx context.Context, orderID uint) (service.OrderStatusView, error)
	ReceiptForOrder(ctx context.Context, orderID uint) (*model.Receipt, error)
}

type PaymentHandler struct {
	checkoutService  ICheckoutService
	reconcileService IReconcileService
	logger           *zerolog.Logger
}

func NewPaymentHandler(checkoutService ICheckoutService, reconcileService IReconcileService, logger *zerolog.Logger) *PaymentHandler {
	if checkoutService == nil {
		panic("checkoutService cannot be nil")
	}
	if reconcileService == nil {
		panic("reconcileService cannot be nil")
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &PaymentHandler{
		checkoutService:  checkoutService,
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// Checkout 建立訂單並取得付款 QR
// POST /payments/checkout
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		response.ErrorJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	result, err := h.checkoutService.Checkout(r.Context(), req.ToServiceItems(), req.TotalAmount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.SuccessJSON(w, dto.NewCheckoutResponse(result))
}

// OrderStatus 前端輪詢用，PENDING 時會向 gateway 查詢一次
// GET /payments/orders/{orderID}/status
func (h *PaymentHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	view, err := h.reconcileService.Reconcile(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.SuccessJSON(w, dto.NewOrderStatusResponse(view))
}

// OrderStatusByNumber
// GET /payments/orders/number/{orderNumber}/status
func (h *PaymentHandler) OrderStatusByNumber(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		response.ErrorJSON(w, http.StatusBadRequest, "invalid order number", nil)
		return
	}

	view, err := h.reconcileService.ReconcileByNumber(r.Context(), orderNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.SuccessJSON(w, dto.NewOrderStatusResponse(view))
}

// TransactionStatus 以 gateway transaction id 查詢訂單狀態
// GET /payments/transactions/{tranID}/status
func (h *PaymentHandler) TransactionStatus(w http.ResponseWriter, r *http.Request) {
	tranID := chi.URLParam(r, "tranID")
	if tranID == "" {
		response.ErrorJSON(w, http.StatusBadRequest, "invalid transaction id", nil)
		return
	}

	view, err := h.reconcileService.ReconcileByTransaction(r.Context(), tranID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.SuccessJSON(w, dto.NewOrderStatusResponse(view))
}

// MockPay 只在開發模式開放
// POST /payments/orders/{orderID}/mock-pay
func (h *PaymentHandler) MockPay(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	view, err := h.reconcileService.MarkPaidManually(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.SuccessJSON(w, dto.NewOrderStatusResponse(view))
}

// Receipt
// GET /payments/orders/{orderID}/receipt
func (h *PaymentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	receipt, err := h.reconcileService.ReceiptForOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.SuccessJSON(w, dto.NewReceiptResponse(receipt))
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorJSON(w, http.StatusBadRequest, "invalid order id", nil)
		return 0, false
	}
	return uint(id), true
}
