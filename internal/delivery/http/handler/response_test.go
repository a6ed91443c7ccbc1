package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAddress, http.StatusBadRequest},
		{domain.ErrCannotRequestSelf, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrNotBondMember, http.StatusForbidden},
		{domain.ErrUserBlocked, http.StatusForbidden},
		{domain.ErrBondNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrRequestNotFound), http.StatusNotFound},
		{domain.ErrRequestNotPending, http.StatusConflict},
		{domain.ErrOperationFailed, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestParseCursor(t *testing.T) {
	zero, err := parseCursor("")
	assert.NoError(t, err)
	assert.True(t, zero.IsZero())

	ts, err := parseCursor("2026-05-01T09:00:00.5Z")
	assert.NoError(t, err)
	assert.Equal(t, 500000000, ts.Nanosecond())

	_, err = parseCursor("yesterday")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList("  "))
	assert.Equal(t, []string{"a", "B"}, splitList("a, B ,,b"))
}
