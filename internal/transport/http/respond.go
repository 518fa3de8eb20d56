package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"devexchange-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Data       any      `json:"data,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondOK(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// respondError maps domain error kinds to status codes. Anything unknown is a
// 500 whose cause stays in the log.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, envelope{Message: verr.Message, Duplicates: verr.Duplicates})
	case errors.Is(err, domain.ErrValidation):
		respondJSON(w, http.StatusBadRequest, envelope{Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, envelope{Message: err.Error()})
	case errors.Is(err, domain.ErrLoginRequired):
		respondJSON(w, http.StatusUnauthorized, envelope{Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		respondJSON(w, http.StatusUnauthorized, envelope{Message: "invalid credentials"})
	case errors.Is(err, domain.ErrForbidden):
		respondJSON(w, http.StatusForbidden, envelope{Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		respondJSON(w, http.StatusConflict, envelope{Message: err.Error()})
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		respondJSON(w, http.StatusInternalServerError, envelope{Message: "internal error"})
	}
}

// decodeJSON reads a JSON body into dst and runs struct validation.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("invalid JSON body")
	}
	return h.validateStruct(dst)
}

func (h *Handler) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid("invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return domain.Invalid(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds %s", field, fe.Param())
	case "url", "http_url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(name + " must be a positive integer")
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, domain.Invalid(name + " must be a positive integer")
	}
	return id, true, nil
}
