package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"payments/internal/domain"
	"payments/internal/service"
)

// CardHandler handles HTTP requests for cards.
type CardHandler struct {
	cardService *service.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService *service.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// BillingDetailsPayload mirrors domain.BillingDetails on the wire.
type BillingDetailsPayload struct {
	Name       string `json:"name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	District   string `json:"district"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

func (b BillingDetailsPayload) toDomain() domain.BillingDetails {
	return domain.BillingDetails{
		Name:       b.Name,
		Address1:   b.Address1,
		Address2:   b.Address2,
		City:       b.City,
		District:   b.District,
		Country:    b.Country,
		PostalCode: b.PostalCode,
	}
}

func toBillingPayload(b domain.BillingDetails) BillingDetailsPayload {
	return BillingDetailsPayload{
		Name:       b.Name,
		Address1:   b.Address1,
		Address2:   b.Address2,
		City:       b.City,
		District:   b.District,
		Country:    b.Country,
		PostalCode: b.PostalCode,
	}
}

// CreateCardRequest is the HTTP request body for registering a card. The
// card data is encrypted client-side with the published public key.
type CreateCardRequest struct {
	OwnerExternalID string                `json:"owner_external_id"`
	KeyID           string                `json:"key_id"`
	EncryptedData   string                `json:"encrypted_data"`
	Billing         BillingDetailsPayload `json:"billing"`
	Default         bool                  `json:"default"`
}

// UpdateCardRequest is the HTTP request body for a partial card update.
type UpdateCardRequest struct {
	Billing *BillingDetailsPayload `json:"billing"`
	Default *bool                  `json:"default"`
}

// CardResponse is the HTTP response for card operations.
type CardResponse struct {
	ID              string                `json:"id"`
	OwnerExternalID string                `json:"owner_external_id"`
	Status          string                `json:"status"`
	Default         bool                  `json:"default"`
	Billing         BillingDetailsPayload `json:"billing"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func toCardResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:              card.ID,
		OwnerExternalID: card.OwnerExternalID,
		Status:          string(card.Status),
		Default:         card.Default,
		Billing:         toBillingPayload(card.Billing),
		CreatedAt:       card.CreatedAt,
		UpdatedAt:       card.UpdatedAt,
	}
}

// StatusResponse carries a bare instrument status.
type StatusResponse struct {
	Status string `json:"status"`
}

// CreateCard handles POST /v1/payments/cards
func (h *CardHandler) CreateCard(c *gin.Context) {
	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	card, err := h.cardService.CreateCard(c.Request.Context(), service.CreateCardRequest{
		OwnerExternalID: req.OwnerExternalID,
		KeyID:           req.KeyID,
		EncryptedData:   req.EncryptedData,
		Billing:         req.Billing.toDomain(),
		Default:         req.Default,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toCardResponse(card))
}

// UpdateCard handles PATCH /v1/payments/cards/:cardId
func (h *CardHandler) UpdateCard(c *gin.Context) {
	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	update := service.UpdateCardRequest{Default: req.Default}
	if req.Billing != nil {
		billing := req.Billing.toDomain()
		update.Billing = &billing
	}

	if err := h.cardService.UpdateCard(c.Request.Context(), c.Param("cardId"), update); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetCards handles GET /v1/payments/cards?owner_external_id=
func (h *CardHandler) GetCards(c *gin.Context) {
	cards, err := h.cardService.GetCards(c.Request.Context(), c.Query("owner_external_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, toCardResponse(card))
	}

	respondJSON(c, http.StatusOK, responses)
}

// GetCardStatus handles GET /v1/payments/cards/:cardId/status
func (h *CardHandler) GetCardStatus(c *gin.Context) {
	status, err := h.cardService.GetCardStatus(c.Request.Context(), c.Param("cardId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, StatusResponse{Status: string(status)})
}

// RemoveCard handles DELETE /v1/payments/cards/:cardId
func (h *CardHandler) RemoveCard(c *gin.Context) {
	if err := h.cardService.RemoveCard(c.Request.Context(), c.Param("cardId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
