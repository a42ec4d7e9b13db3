package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medbook/internal/appointments"
	"medbook/internal/export"
	"medbook/internal/i18n"
	"medbook/internal/models"
	"medbook/internal/slots"
)

type appointmentResponse struct {
	models.Appointment
	EffectiveStatus models.Status `json:"effectiveStatus"`
	StatusLabel     string        `json:"statusLabel"`
	TimeLabel       string        `json:"timeLabel"`
	QRPayload       string        `json:"qrPayload"`
}

type appointmentsResponse struct {
	Upcoming []appointmentResponse `json:"upcoming"`
	Past     []appointmentResponse `json:"past"`
}

type mutationResponse struct {
	Message     string              `json:"message"`
	Appointment appointmentResponse `json:"appointment"`
}

func toAppointmentResponse(a models.Appointment, now time.Time, tr i18n.Translator) appointmentResponse {
	status := a.EffectiveStatus(now)
	return appointmentResponse{
		Appointment:     a,
		EffectiveStatus: status,
		StatusLabel:     tr.T(i18n.StatusKey(status)),
		TimeLabel:       slots.Label(models.TimeSlot{StartTime: a.StartTime, EndTime: a.EndTime}),
		QRPayload:       a.QRPayload(),
	}
}

func toAppointmentResponses(list []models.Appointment, now time.Time, tr i18n.Translator) []appointmentResponse {
	out := make([]appointmentResponse, len(list))
	for i, a := range list {
		out[i] = toAppointmentResponse(a, now, tr)
	}
	return out
}

// GET /api/v1/appointments
func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.booking.Now()
	tr := s.translator(r)
	upcoming, past := appointments.Split(list, now)
	writeJSON(w, http.StatusOK, appointmentsResponse{
		Upcoming: toAppointmentResponses(upcoming, now, tr),
		Past:     toAppointmentResponses(past, now, tr),
	})
}

// GET /api/v1/appointments/export
func (s *Server) handleAppointmentsExport(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.booking.Now()
	xw := export.NewExcelizeWriter()
	defer xw.Close()
	if err := export.WriteAppointments(xw, list, now, s.translator(r)); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.GenerateFilename(now)))
	if err := xw.Save(w); err != nil {
		s.logger.Error().Err(err).Msg("failed to write export")
	}
}

// GET /api/v1/appointments/{id}
func (s *Server) handleAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(a, s.booking.Now(), s.translator(r)))
}

// POST /api/v1/appointments/{id}/cancel
func (s *Server) handleAppointmentCancel(w http.ResponseWriter, r *http.Request) {
	a, err := s.booking.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tr := s.translator(r)
	writeJSON(w, http.StatusOK, mutationResponse{
		Message:     tr.T(i18n.AppointmentCancel),
		Appointment: toAppointmentResponse(a, s.booking.Now(), tr),
	})
}

// GET /api/v1/appointments/{id}/reschedule-options
func (s *Server) handleRescheduleOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts, err := s.booking.RescheduleOptions(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityResponse(a.DoctorID, opts.DefaultDay, opts.Days, opts.Slots))
}

// POST /api/v1/appointments/{id}/reschedule {"slot_id": ...}
func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.booking.Reschedule(r.Context(), chi.URLParam(r, "id"), req.SlotID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tr := s.translator(r)
	writeJSON(w, http.StatusOK, mutationResponse{
		Message:     tr.T(i18n.AppointmentMoved),
		Appointment: toAppointmentResponse(a, s.booking.Now(), tr),
	})
}
