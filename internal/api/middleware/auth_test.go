package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwtKey = []byte("test-secret-key-123456789012345")

func createTestToken(userID uuid.UUID, email string, role models.Role, duration time.Duration, key []byte, method jwt.SigningMethod) (string, error) {
	claims := &models.Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(method, claims)

	return token.SignedString(key)
}

func withTestLogger(req *http.Request) *http.Request {
	baseLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return req.WithContext(context.WithValue(req.Context(), middleware.LoggerKey, baseLogger))
}

func TestAuthMiddleware(t *testing.T) {
	// Arrange
	authMiddleware := middleware.NewAuthMiddleware(testJwtKey)
	userID := uuid.New()
	userEmail := "test@example.com"

	mockNextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		require.True(t, ok, "User claims should be in context")
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, userEmail, claims.Email)
		assert.Equal(t, models.RoleUser, claims.Role)

		require.NotNil(t, middleware.LoggerFromContext(r.Context()))

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"success": true}`))
		require.NoError(t, err)
	})

	tokenFor := func(duration time.Duration, key []byte, method jwt.SigningMethod) string {
		token, err := createTestToken(userID, userEmail, models.RoleUser, duration, key, method)
		require.NoError(t, err)

		return "Bearer " + token
	}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success - Valid Token",
			authHeader:     tokenFor(time.Hour, testJwtKey, jwt.SigningMethodHS256),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success": true}`,
		},
		{
			name:           "Fail - Missing Authorization Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Authorization header is required"}}`,
		},
		{
			name:           "Fail - Invalid Authorization Header Format (No Bearer)",
			authHeader:     "InvalidTokenFormat",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid authorization format"}}`,
		},
		{
			name:           "Fail - Only Bearer",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
		{
			name:           "Fail - Malformed Token",
			authHeader:     "Bearer not.a.valid.token",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
		{
			name:           "Fail - Wrong Signing Key",
			authHeader:     tokenFor(time.Hour, []byte("different-secret-key-0987654321"), jwt.SigningMethodHS256),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
		{
			name:           "Fail - Unexpected Signing Method",
			authHeader:     tokenFor(time.Hour, testJwtKey, jwt.SigningMethodHS512),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
		{
			name:           "Fail - Expired Token",
			authHeader:     tokenFor(-time.Hour, testJwtKey, jwt.SigningMethodHS256),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			req = withTestLogger(req)

			rr := httptest.NewRecorder()

			// Act
			authMiddleware.Authenticate(mockNextHandler).ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tc.expectedStatus, rr.Code, "Unexpected status code")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "Unexpected response body")
		})
	}
}

func TestRequireRole(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(testJwtKey)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	chain := authMiddleware.Authenticate(middleware.RequireRole(models.RoleAdmin)(next))

	tests := []struct {
		name           string
		role           models.Role
		expectedStatus int
		expectCall     bool
	}{
		{"Admin allowed", models.RoleAdmin, http.StatusNoContent, true},
		{"User forbidden", models.RoleUser, http.StatusForbidden, false},
		{"Empty role forbidden", "", http.StatusForbidden, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called = false
			token, err := createTestToken(uuid.New(), "someone@example.com", tc.role, time.Hour, testJwtKey, jwt.SigningMethodHS256)
			require.NoError(t, err)

			req := withTestLogger(httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil))
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()

			chain.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectCall, called)
		})
	}

	t.Run("No claims in context", func(t *testing.T) {
		called = false
		rr := httptest.NewRecorder()
		req := withTestLogger(httptest.NewRequest(http.MethodGet, "/", nil))

		middleware.RequireRole(models.RoleAdmin)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})
}

func TestNewAuthMiddleware(t *testing.T) {
	assert.NotNil(t, middleware.NewAuthMiddleware([]byte("some-key")))
}
