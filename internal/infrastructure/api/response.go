package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"genie-storefront-assistant/internal/domain"

	"github.com/rs/zerolog/hlog"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses. Messages of
// unexpected errors are never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	event := hlog.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Error()
	}
	event.Err(err).Int("status", status).Msg("Request failed")

	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

func classify(err error) (int, string) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
		external   *domain.ExternalAPIError
		provision  *domain.ProvisionError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Error()
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &external):
		return http.StatusInternalServerError, external.PublicMessage()
	case errors.As(err, &provision):
		return http.StatusInternalServerError, "widget provisioning failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return &domain.ValidationError{Field: "body", Message: "request body is required"}
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}
