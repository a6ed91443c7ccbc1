package handler

import (
	"net/http"

	"github.com/gdugdh24/ethospair-backend/internal/usecase/profile"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUseCase *profile.ProfileUseCase
}

func NewProfileHandler(profileUseCase *profile.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
	}
}

// GetMyProfile handles GET /profile/me
// @Summary Get my profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.Profile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profile/me [get]
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	p, err := h.profileUseCase.GetMyProfile(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateMyProfile handles PUT /profile/me
// @Summary Update my profile
// @Description Partial self-edit; omitted fields are left unchanged
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profile.UpdateProfileRequest true "Profile update data"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profile/me [put]
func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req profile.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updated, err := h.profileUseCase.UpdateProfile(c.Request.Context(), s, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// CompleteOnboarding handles POST /profile/complete-onboarding
// @Summary Complete onboarding
// @Description Create the profile for the signed-in address
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profile.OnboardingRequest true "Discovery attributes"
// @Success 201 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /profile/complete-onboarding [post]
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req profile.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	created, err := h.profileUseCase.CompleteOnboarding(c.Request.Context(), s, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// SyncReputation handles POST /profile/me/sync-reputation
// @Summary Refresh my reputation
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.Profile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profile/me/sync-reputation [post]
func (h *ProfileHandler) SyncReputation(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	p, err := h.profileUseCase.SyncReputation(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeleteMyProfile handles DELETE /profile/me
// @Summary Delete my account
// @Description Removes the profile with its bonds, messages, requests and blocks
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profile/me [delete]
func (h *ProfileHandler) DeleteMyProfile(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	if err := h.profileUseCase.DeleteAccount(c.Request.Context(), s); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "account deleted"})
}

// GetProfile handles GET /profile/:address
// @Summary Get user profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Param address path string true "Wallet address"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profile/{address} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	if _, ok := session(c); !ok {
		return
	}

	p, err := h.profileUseCase.GetProfile(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
