package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"payments/internal/domain"
	"payments/internal/service"
)

// BankAccountHandler handles HTTP requests for bank accounts.
type BankAccountHandler struct {
	accountService *service.BankAccountService
}

// NewBankAccountHandler creates a new BankAccountHandler.
func NewBankAccountHandler(accountService *service.BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{accountService: accountService}
}

// CreateBankAccountRequest is the HTTP request body for registering a bank
// account.
type CreateBankAccountRequest struct {
	OwnerExternalID string `json:"owner_external_id"`
	KeyID           string `json:"key_id"`
	EncryptedData   string `json:"encrypted_data"`
}

// BankAccountResponse is the HTTP response for bank account operations. It
// includes the current status so clients can immediately decide whether to
// poll.
type BankAccountResponse struct {
	ID              string    `json:"id"`
	OwnerExternalID string    `json:"owner_external_id"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WireInstructionsResponse carries the processor-generated funding details.
type WireInstructionsResponse struct {
	TrackingRef     string `json:"tracking_ref"`
	BeneficiaryName string `json:"beneficiary_name"`
	BeneficiaryBank string `json:"beneficiary_bank"`
	BankAddress     string `json:"bank_address"`
	AccountNumber   string `json:"account_number"`
	RoutingNumber   string `json:"routing_number"`
	SwiftCode       string `json:"swift_code"`
}

func toBankAccountResponse(a *domain.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:              a.ID,
		OwnerExternalID: a.OwnerExternalID,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// CreateBankAccount handles POST /v1/payments/bank-accounts
func (h *BankAccountHandler) CreateBankAccount(c *gin.Context) {
	var req CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, err := h.accountService.CreateBankAccount(c.Request.Context(), service.CreateBankAccountRequest{
		OwnerExternalID: req.OwnerExternalID,
		KeyID:           req.KeyID,
		EncryptedData:   req.EncryptedData,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBankAccountResponse(account))
}

// GetBankAccountStatus handles GET /v1/payments/bank-accounts/:bankAccountId/status
func (h *BankAccountHandler) GetBankAccountStatus(c *gin.Context) {
	status, err := h.accountService.GetBankAccountStatus(c.Request.Context(), c.Param("bankAccountId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, StatusResponse{Status: string(status)})
}

// GetWireInstructions handles GET /v1/payments/bank-accounts/:bankAccountId/instructions
func (h *BankAccountHandler) GetWireInstructions(c *gin.Context) {
	instructions, err := h.accountService.GetWireInstructions(c.Request.Context(), c.Param("bankAccountId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WireInstructionsResponse{
		TrackingRef:     instructions.TrackingRef,
		BeneficiaryName: instructions.BeneficiaryName,
		BeneficiaryBank: instructions.BeneficiaryBank,
		BankAddress:     instructions.BankAddress,
		AccountNumber:   instructions.AccountNumber,
		RoutingNumber:   instructions.RoutingNumber,
		SwiftCode:       instructions.SwiftCode,
	})
}
