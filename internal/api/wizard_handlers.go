package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbook/internal/booking"
	"medbook/internal/i18n"
)

type wizardResponse struct {
	SessionID string            `json:"sessionId"`
	Selection booking.Selection `json:"selection"`
	StepTitle string            `json:"stepTitle"`
}

type submitResponse struct {
	Message     string              `json:"message"`
	Appointment appointmentResponse `json:"appointment"`
	Selection   booking.Selection   `json:"selection"`
}

func (s *Server) wizardView(r *http.Request, sid string, w *booking.Wizard) wizardResponse {
	sel := w.Selection()
	return wizardResponse{
		SessionID: sid,
		Selection: sel,
		StepTitle: s.translator(r).T(i18n.StepKey(int(sel.Step))),
	}
}

func (s *Server) wizard(r *http.Request) (string, *booking.Wizard, error) {
	sid := chi.URLParam(r, "sid")
	wz, ok := s.sessions.Get(sid)
	if !ok {
		return sid, nil, errSessionNotFound
	}
	return sid, wz, nil
}

// POST /api/v1/wizard
func (s *Server) handleWizardCreate(w http.ResponseWriter, r *http.Request) {
	sid, wz := s.sessions.Create()
	writeJSON(w, http.StatusCreated, s.wizardView(r, sid, wz))
}

// GET /api/v1/wizard/{sid}
func (s *Server) handleWizardGet(w http.ResponseWriter, r *http.Request) {
	sid, wz, err := s.wizard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wizardView(r, sid, wz))
}

// wizardAction runs fn against the session and responds with the new state.
func (s *Server) wizardAction(fn func(r *http.Request, wz *booking.Wizard) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, wz, err := s.wizard(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := fn(r, wz); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.wizardView(r, sid, wz))
	}
}

// POST /api/v1/wizard/{sid}/department {"id": ...}
func (s *Server) handleWizardDepartment(w http.ResponseWriter, r *http.Request) {
	s.wizardAction(func(r *http.Request, wz *booking.Wizard) error {
		var req idRequest
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.booking.SelectDepartment(wz, req.ID)
	})(w, r)
}

// POST /api/v1/wizard/{sid}/doctor {"id": ...}
func (s *Server) handleWizardDoctor(w http.ResponseWriter, r *http.Request) {
	s.wizardAction(func(r *http.Request, wz *booking.Wizard) error {
		var req idRequest
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.booking.SelectDoctor(wz, req.ID)
	})(w, r)
}

// POST /api/v1/wizard/{sid}/slot {"id": ...}
func (s *Server) handleWizardSlot(w http.ResponseWriter, r *http.Request) {
	s.wizardAction(func(r *http.Request, wz *booking.Wizard) error {
		var req idRequest
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.booking.SelectTimeSlot(r.Context(), wz, req.ID)
	})(w, r)
}

// POST /api/v1/wizard/{sid}/advance
func (s *Server) handleWizardAdvance(w http.ResponseWriter, r *http.Request) {
	s.wizardAction(func(_ *http.Request, wz *booking.Wizard) error {
		return wz.Advance()
	})(w, r)
}

// POST /api/v1/wizard/{sid}/retreat
func (s *Server) handleWizardRetreat(w http.ResponseWriter, r *http.Request) {
	s.wizardAction(func(_ *http.Request, wz *booking.Wizard) error {
		wz.Retreat()
		return nil
	})(w, r)
}

// POST /api/v1/wizard/{sid}/submit
func (s *Server) handleWizardSubmit(w http.ResponseWriter, r *http.Request) {
	_, wz, err := s.wizard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.booking.Submit(r.Context(), wz)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tr := s.translator(r)
	writeJSON(w, http.StatusCreated, submitResponse{
		Message:     tr.T(i18n.BookingConfirmed),
		Appointment: toAppointmentResponse(a, s.booking.Now(), tr),
		Selection:   wz.Selection(),
	})
}
