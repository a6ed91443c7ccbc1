package handler

import (
	"net/http"

	"github.com/gdugdh24/ethospair-backend/internal/usecase/bonding"
	"github.com/gin-gonic/gin"
)

type BondingHandler struct {
	bondingUseCase *bonding.BondingUseCase
}

func NewBondingHandler(bondingUseCase *bonding.BondingUseCase) *BondingHandler {
	return &BondingHandler{
		bondingUseCase: bondingUseCase,
	}
}

// SendRequestBody names the profile to pair with
type SendRequestBody struct {
	ToAddress string `json:"to_address" binding:"required"`
}

// BlockBody names the profile to block
type BlockBody struct {
	Address string `json:"address" binding:"required"`
}

// BlockedResponse lists blocked addresses
type BlockedResponse struct {
	Blocked []string `json:"blocked"`
}

// SendRequest handles POST /bonds/requests
// @Summary Send pair request
// @Description Idempotent while a request to the same address is pending
// @Tags bonds
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body SendRequestBody true "Recipient"
// @Success 201 {object} domain.PairRequest
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /bonds/requests [post]
func (h *BondingHandler) SendRequest(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req SendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	request, err := h.bondingUseCase.SendRequest(c.Request.Context(), s, req.ToAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// AcceptRequest handles POST /bonds/requests/:id/accept
// @Summary Accept pair request
// @Tags bonds
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.Bond
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /bonds/requests/{id}/accept [post]
func (h *BondingHandler) AcceptRequest(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	bond, err := h.bondingUseCase.AcceptRequest(c.Request.Context(), s, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bond)
}

// DeclineRequest handles POST /bonds/requests/:id/decline
// @Summary Decline pair request
// @Tags bonds
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.PairRequest
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /bonds/requests/{id}/decline [post]
func (h *BondingHandler) DeclineRequest(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	request, err := h.bondingUseCase.DeclineRequest(c.Request.Context(), s, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Overview handles GET /bonds
// @Summary Bonding overview
// @Description Received and sent pending requests plus active bonds
// @Tags bonds
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.Overview
// @Failure 401 {object} ErrorResponse
// @Router /bonds [get]
func (h *BondingHandler) Overview(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	overview, err := h.bondingUseCase.Refresh(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Unbond handles DELETE /bonds/:id
// @Summary Unbond
// @Tags bonds
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bond ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bonds/{id} [delete]
func (h *BondingHandler) Unbond(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	if err := h.bondingUseCase.Unbond(c.Request.Context(), s, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "unbonded"})
}

// Block handles POST /blocks
// @Summary Block user
// @Tags blocks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body BlockBody true "Address to block"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /blocks [post]
func (h *BondingHandler) Block(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req BlockBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.bondingUseCase.BlockUser(c.Request.Context(), s, req.Address); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "blocked"})
}

// Unblock handles DELETE /blocks/:address
// @Summary Unblock user
// @Tags blocks
// @Security BearerAuth
// @Produce json
// @Param address path string true "Blocked address"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /blocks/{address} [delete]
func (h *BondingHandler) Unblock(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	if err := h.bondingUseCase.UnblockUser(c.Request.Context(), s, c.Param("address")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "unblocked"})
}

// ListBlocked handles GET /blocks
// @Summary Blocked users
// @Tags blocks
// @Security BearerAuth
// @Produce json
// @Success 200 {object} BlockedResponse
// @Router /blocks [get]
func (h *BondingHandler) ListBlocked(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	blocked, err := h.bondingUseCase.ListBlocked(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BlockedResponse{Blocked: blocked})
}
