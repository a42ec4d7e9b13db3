package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"medbook/internal/i18n"
	"medbook/internal/models"
)

var (
	errSessionNotFound = errors.New("booking session not found")
	errBadRequest      = errors.New("bad request")
	errBodyTooLarge    = errors.New("request body too large")
)

type errorResponse struct {
	Error string   `json:"error"`
	Code  i18n.Key `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err to a status code and a localized message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, key := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: s.translator(r).T(key), Code: key})
}

func classify(err error) (int, i18n.Key) {
	switch {
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound, i18n.ErrSessionNotFound
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, i18n.ErrBodyTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, i18n.ErrBadRequest
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, i18n.ErrValidation
	case errors.Is(err, models.ErrDepartmentNotFound):
		return http.StatusNotFound, i18n.ErrDepartmentNotFound
	case errors.Is(err, models.ErrDoctorNotFound):
		return http.StatusNotFound, i18n.ErrDoctorNotFound
	case errors.Is(err, models.ErrAppointmentNotFound):
		return http.StatusNotFound, i18n.ErrAppointmentNotFound
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, i18n.ErrNotFound
	case errors.Is(err, models.ErrPersistence):
		return http.StatusInternalServerError, i18n.ErrPersistence
	}
	return http.StatusInternalServerError, i18n.ErrInternal
}

type idRequest struct {
	ID string `json:"id"`
}

type rescheduleRequest struct {
	SlotID string `json:"slot_id"`
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.Join(errBodyTooLarge, err)
		}
		return errors.Join(errBadRequest, err)
	}
	return nil
}
