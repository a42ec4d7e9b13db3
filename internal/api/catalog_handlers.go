package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medbook/internal/models"
	"medbook/internal/slots"
)

type dayResponse struct {
	Date  string           `json:"date"`
	Slots []slots.SlotInfo `json:"slots"`
}

type availabilityResponse struct {
	DoctorID   string        `json:"doctorId"`
	DefaultDay string        `json:"defaultDay"`
	Days       []dayResponse `json:"days"`
}

// GET /api/v1/departments
func (s *Server) handleDepartments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"departments": s.catalog.ListDepartments()})
}

// GET /api/v1/departments/{id}/doctors
func (s *Server) handleDepartmentDoctors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.catalog.Department(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": s.catalog.DoctorsByDepartment(id)})
}

// GET /api/v1/doctors/{id}/slots?date=YYYY-MM-DD
func (s *Server) handleDoctorSlots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	now := s.booking.Now()
	date := now
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation(slots.DayLayout, v, now.Location())
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", errBadRequest, v))
			return
		}
		date = parsed
	}

	list, err := s.booking.DaySlots(r.Context(), id, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: date.Format(slots.DayLayout), Slots: slots.ToSlotInfo(list)})
}

// GET /api/v1/doctors/{id}/availability
func (s *Server) handleDoctorAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	avail, err := s.booking.Availability(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityResponse(id, avail.DefaultDay, avail.Days, avail.Slots))
}

func toAvailabilityResponse(doctorID, defaultDay string, days []string, groups map[string][]models.TimeSlot) availabilityResponse {
	resp := availabilityResponse{DoctorID: doctorID, DefaultDay: defaultDay, Days: make([]dayResponse, 0, len(days))}
	for _, d := range days {
		resp.Days = append(resp.Days, dayResponse{Date: d, Slots: slots.ToSlotInfo(groups[d])})
	}
	return resp
}
