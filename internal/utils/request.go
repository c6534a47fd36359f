package utils

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := DecodeJSONBody(r, dest); err != nil {
		slog.Warn("Invalid request", slog.String("error", err.Error()))
		response.Error(w, appErrors.BadRequestError("Invalid request body").WithDetail(err.Error()))
		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		slog.Warn("Validation failed", slog.String("error", err.Error()))

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
			return false
		}

		response.Error(w, appErrors.ValidationError("Invalid input data"))
		return false
	}

	return true
}

// ParseID reads a UUID path value.
func ParseID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return uuid.Nil, appErrors.BadRequestError("Missing " + name)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, appErrors.BadRequestError("Invalid " + name + " format").WithError(err)
	}

	return id, nil
}

// ParsePagination reads ?page and ?pageSize, falling back to defaults for
// missing or out-of-range values.
func ParsePagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}
