package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"payments/internal/domain"
	"payments/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest is the HTTP request body for creating a payment.
type CreatePaymentRequest struct {
	OwnerExternalID string `json:"owner_external_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	CardID          string `json:"card_id"`
	BankAccountID   string `json:"bank_account_id"`
	IdempotencyKey  string `json:"idempotency_key"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID              string    `json:"id"`
	OwnerExternalID string    `json:"owner_external_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	CardID          string    `json:"card_id,omitempty"`
	BankAccountID   string    `json:"bank_account_id,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		OwnerExternalID: p.OwnerExternalID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		CardID:          p.CardID,
		BankAccountID:   p.BankAccountID,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// CreatePayment handles POST /v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), service.CreatePaymentRequest{
		OwnerExternalID: req.OwnerExternalID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		CardID:          req.CardID,
		BankAccountID:   req.BankAccountID,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// GetPayment handles GET /v1/payments/:paymentId
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// ListPayments handles GET /v1/admin/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	payments, err := h.paymentService.ListPayments(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, toPaymentResponse(p))
	}

	respondJSON(c, http.StatusOK, responses)
}
