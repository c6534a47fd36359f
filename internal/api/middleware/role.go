package middleware

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

// RequireRole rejects requests whose authenticated user lacks role. It must run
// after Authenticate.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := LoggerFromContext(r.Context())

			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				logger.Warn("Role check without authenticated user")
				response.Error(w, errors.UnauthorizedError("Authentication required"))
				return
			}

			if claims.Role != role {
				logger.Warn("Insufficient role",
					slog.String("required", string(role)),
					slog.String("actual", string(claims.Role)),
				)
				response.Error(w, errors.ForbiddenError("You do not have permission to access this resource"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
