package errors_test

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *errors.AppError
		code   string
		status int
	}{
		{"validation", errors.ValidationError("bad"), errors.ErrCodeValidation, http.StatusBadRequest},
		{"bad request", errors.BadRequestError("bad"), errors.ErrCodeBadRequest, http.StatusBadRequest},
		{"not found", errors.NotFoundError("missing"), errors.ErrCodeNotFound, http.StatusNotFound},
		{"unauthorized", errors.UnauthorizedError("who"), errors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", errors.ForbiddenError("no"), errors.ErrCodeForbidden, http.StatusForbidden},
		{"duplicate", errors.DuplicateEntryError("dup"), errors.ErrCodeDuplicateEntry, http.StatusConflict},
		{"third party", errors.ThirdPartyError("gw"), errors.ErrCodeThirdPartyError, http.StatusInternalServerError},
		{"payment failed", errors.PaymentFailedError("declined"), errors.ErrCodePaymentFailed, http.StatusBadRequest},
		{"too many", errors.TooManyRequestsError("slow"), errors.ErrCodeTooManyRequests, http.StatusTooManyRequests},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.StatusCode)
			assert.Equal(t, tc.err.Message, tc.err.Error())
		})
	}
}

func TestWrappingAndLookup(t *testing.T) {
	cause := stdErrors.New("connection reset")
	appErr := errors.DatabaseError("Failed to load order").WithError(cause).WithDetail("orders")

	wrapped := fmt.Errorf("outer: %w", appErr)

	got, ok := errors.IsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "orders", got.Detail)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, errors.HasCode(wrapped, errors.ErrCodeDatabaseError))
	assert.False(t, errors.HasCode(cause, errors.ErrCodeDatabaseError))
	assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(cause))
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(errors.NotFoundError("x")))
}
