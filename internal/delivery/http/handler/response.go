package handler

import (
	"errors"
	"net/http"

	"github.com/gdugdh24/ethospair-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents success response
type SuccessResponse struct {
	Message string `json:"message"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidAddress, http.StatusBadRequest},
	{domain.ErrInvalidPreference, http.StatusBadRequest},
	{domain.ErrInvalidContinent, http.StatusBadRequest},
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrEmptyMessage, http.StatusBadRequest},
	{domain.ErrCannotRequestSelf, http.StatusBadRequest},
	{domain.ErrCannotBlockSelf, http.StatusBadRequest},

	{domain.ErrInvalidToken, http.StatusUnauthorized},
	{domain.ErrUnauthorized, http.StatusUnauthorized},

	{domain.ErrNotRequestRecipient, http.StatusForbidden},
	{domain.ErrNotBondMember, http.StatusForbidden},
	{domain.ErrUserBlocked, http.StatusForbidden},

	{domain.ErrProfileNotFound, http.StatusNotFound},
	{domain.ErrRequestNotFound, http.StatusNotFound},
	{domain.ErrBondNotFound, http.StatusNotFound},
	{domain.ErrMessageNotFound, http.StatusNotFound},

	{domain.ErrProfileAlreadyExists, http.StatusConflict},
	{domain.ErrRequestAlreadyPending, http.StatusConflict},
	{domain.ErrRequestNotPending, http.StatusConflict},
	{domain.ErrAlreadyBonded, http.StatusConflict},
}

// statusFor maps a domain error to its HTTP status. Anything unknown is a 500.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = domain.ErrOperationFailed.Error()
	}
	c.JSON(status, ErrorResponse{Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// session returns the caller set by the auth middleware.
func session(c *gin.Context) (domain.Session, bool) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return s, ok
}
