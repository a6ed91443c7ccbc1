package handler

import (
	"net/http"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gdugdh24/ethospair-backend/internal/usecase/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUseCase *auth.AuthUseCase
}

func NewAuthHandler(authUseCase *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

// MeResponse is the signed-in address in both renderings
type MeResponse struct {
	Address         string `json:"address"`
	ChecksumAddress string `json:"checksum_address"`
}

// Login handles wallet sign-in
// @Summary Wallet login
// @Description Issue a session token for a wallet address
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Wallet address"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.authUseCase.Login(c.Request.Context(), req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me returns current session info
// @Summary Get current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		Address:         s.Address,
		ChecksumAddress: domain.ChecksumAddress(s.Address),
	})
}
