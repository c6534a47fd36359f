package service_test

import (
	"errors"
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func requireAppError(t *testing.T, err error, code, message string) {
	t.Helper()

	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr), "expected an AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(hash)
}
