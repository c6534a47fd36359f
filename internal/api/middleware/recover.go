package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			LoggerFromContext(r.Context()).Error("Recovered from panic",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			response.Error(w, errors.InternalError("An unexpected error occurred"))
		}()

		next.ServeHTTP(w, r)
	})
}
