package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"payments/internal/service"
)

// ReferenceHandler serves currency configuration and the encryption public
// key.
type ReferenceHandler struct {
	referenceService *service.ReferenceService
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(referenceService *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

// CurrencyResponse is the HTTP response for the currency endpoint.
type CurrencyResponse struct {
	Code     string `json:"code"`
	Base     int    `json:"base"`
	Exponent int    `json:"exponent"`
}

// PublicKeyResponse is the HTTP response for the public key endpoint.
type PublicKeyResponse struct {
	KeyID     string `json:"key_id"`
	PublicKey string `json:"public_key"`
}

// GetCurrency handles GET /v1/payments/currency
func (h *ReferenceHandler) GetCurrency(c *gin.Context) {
	currency := h.referenceService.GetCurrency(c.Request.Context())

	respondJSON(c, http.StatusOK, CurrencyResponse{
		Code:     currency.Code,
		Base:     currency.Base,
		Exponent: currency.Exponent,
	})
}

// GetPublicKey handles GET /v1/payments/encryption-public-key
func (h *ReferenceHandler) GetPublicKey(c *gin.Context) {
	key, err := h.referenceService.GetPublicKey(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PublicKeyResponse{
		KeyID:     key.KeyID,
		PublicKey: key.PublicKey,
	})
}
