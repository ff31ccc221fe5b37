// Package api exposes the checkout subsystem as a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/middleware"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// respondError translates a domain error into a JSON error response and logs
// it with the request-scoped logger.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if fields := domain.GetValidationFields(err); fields != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"code":    domain.EINVALID,
				"message": "Validation failed",
				"fields":  fields,
			},
		})
		return
	}

	code := domain.ErrorCode(err)
	status := middleware.ErrorStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	respondJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": domain.ErrorMessage(err),
		},
	})
}

// decodeAndValidate decodes the JSON body into dst and runs struct validation.
// Validation failures come back as a domain ValidationError keyed by field.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("api.decode", "invalid JSON body")
	}

	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return domain.Internal(err, "api.validate", "validation setup error")
		}

		ve := &domain.ValidationError{Op: "api.validate", Fields: map[string]string{}}
		for _, fe := range err.(validator.ValidationErrors) {
			ve.Fields[fe.Field()] = validationMessage(fe)
		}
		return ve
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "e164":
		return "must be a valid phone number"
	default:
		return "is invalid"
	}
}

// pathID parses a UUID path parameter; an empty or malformed value is a 400.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Invalid("api.path", "invalid "+name)
	}
	return id, nil
}

// userID pulls the authenticated user from the request context. The auth
// middleware guarantees it is set on every route registered behind it.
func userID(r *http.Request) uuid.UUID {
	return middleware.GetUserID(r.Context())
}
