package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"medbook/internal/appointments"
	"medbook/internal/catalog"
	"medbook/internal/metrics"
	"medbook/internal/models"
	"medbook/internal/slots"
)

// Availability is a window of slots grouped by day.
type Availability struct {
	Days       []string                     `json:"days"`
	Slots      map[string][]models.TimeSlot `json:"slots"`
	DefaultDay string                       `json:"defaultDay"`
}

// Service validates wizard selections against the catalog and current
// availability and books them in the appointment store.
type Service struct {
	catalog        *catalog.Catalog
	generator      *slots.Generator
	store          *appointments.Store
	windowDays     int
	rescheduleDays int
	loc            *time.Location
	now            func() time.Time
	logger         zerolog.Logger

	// serializes availability check and write
	bookMu sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithWindowDays sets how many days ahead can be booked.
func WithWindowDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithRescheduleDays sets how many days ahead an appointment can be moved.
func WithRescheduleDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.rescheduleDays = days
		}
	}
}

// WithLocation sets the zone slots are generated in.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithServiceClock overrides time.Now.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger.With().Str("component", "booking").Logger() }
}

// NewService creates the booking service.
func NewService(cat *catalog.Catalog, gen *slots.Generator, store *appointments.Store, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:        cat,
		generator:      gen,
		store:          store,
		windowDays:     7,
		rescheduleDays: 30,
		loc:            time.Local,
		now:            time.Now,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the service zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) today() time.Time {
	now := s.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

// SelectDepartment checks the department exists and selects it.
func (s *Service) SelectDepartment(w *Wizard, id string) error {
	if _, err := s.catalog.Department(id); err != nil {
		return asValidation(err)
	}
	return w.SelectDepartment(id)
}

// SelectDoctor checks the doctor exists in the selected department and selects it.
func (s *Service) SelectDoctor(w *Wizard, id string) error {
	sel := w.Selection()
	if sel.DepartmentID == "" {
		return w.SelectDoctor(id)
	}
	if _, err := s.doctorIn(sel.DepartmentID, id); err != nil {
		return err
	}
	return w.SelectDoctor(id)
}

// SelectTimeSlot checks the slot is bookable for the selected doctor and selects it.
func (s *Service) SelectTimeSlot(ctx context.Context, w *Wizard, id string) error {
	sel := w.Selection()
	if sel.DoctorID == "" {
		return w.SelectTimeSlot(id)
	}
	if _, err := s.resolveInWindow(ctx, id, sel.DoctorID, s.windowDays); err != nil {
		return err
	}
	return w.SelectTimeSlot(id)
}

// Submit books the wizard's selection.
func (s *Service) Submit(ctx context.Context, w *Wizard) (models.Appointment, error) {
	a, err := w.Submit(ctx, s)
	if err != nil {
		metrics.IncWizardSubmit(resultLabel(err))
		return models.Appointment{}, err
	}
	metrics.IncWizardSubmit("ok")
	return a, nil
}

// Book validates a complete selection and creates the appointment.
func (s *Service) Book(ctx context.Context, sel Selection) (models.Appointment, error) {
	if !sel.Complete() {
		return models.Appointment{}, fmt.Errorf("%w: department, doctor and time slot are required", models.ErrValidation)
	}

	dept, err := s.catalog.Department(sel.DepartmentID)
	if err != nil {
		return models.Appointment{}, asValidation(err)
	}
	doc, err := s.doctorIn(sel.DepartmentID, sel.DoctorID)
	if err != nil {
		return models.Appointment{}, err
	}

	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	slot, err := s.resolveInWindow(ctx, sel.TimeSlotID, doc.ID, s.windowDays)
	if err != nil {
		return models.Appointment{}, err
	}

	a, err := s.store.Create(ctx, dept, doc, slot)
	if err != nil {
		return models.Appointment{}, err
	}
	s.logger.Info().Str("appointment_id", a.ID).Str("slot_id", a.TimeSlotID).Msg("booking submitted")
	return a, nil
}

// DaySlots returns all slots of a doctor on date, booked ones marked unavailable.
func (s *Service) DaySlots(ctx context.Context, doctorID string, date time.Time) ([]models.TimeSlot, error) {
	if _, err := s.catalog.Doctor(doctorID); err != nil {
		return nil, err
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	return s.generator.Window(ctx, doctorID, day, 1, s.Now())
}

// Availability returns the booking window of a doctor grouped by day.
func (s *Service) Availability(ctx context.Context, doctorID string) (Availability, error) {
	if _, err := s.catalog.Doctor(doctorID); err != nil {
		return Availability{}, err
	}
	all, err := s.generator.Window(ctx, doctorID, s.today(), s.windowDays, s.Now())
	if err != nil {
		return Availability{}, err
	}
	return s.group(all), nil
}

// RescheduleOptions returns the slots an upcoming appointment can move to,
// excluding its current slot.
func (s *Service) RescheduleOptions(ctx context.Context, appointmentID string) (Availability, error) {
	a, err := s.upcoming(ctx, appointmentID)
	if err != nil {
		return Availability{}, err
	}
	now := s.Now()
	all, err := s.generator.Window(ctx, a.DoctorID, s.today(), s.rescheduleDays, now)
	if err != nil {
		return Availability{}, err
	}
	return s.group(slots.FilterBookable(all, now, s.generator.Hours(), a.TimeSlotID)), nil
}

// Reschedule moves an upcoming appointment to another bookable slot of the same doctor.
func (s *Service) Reschedule(ctx context.Context, appointmentID, slotID string) (models.Appointment, error) {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	a, err := s.upcoming(ctx, appointmentID)
	if err != nil {
		return models.Appointment{}, err
	}
	if slotID == a.TimeSlotID {
		return models.Appointment{}, fmt.Errorf("%w: appointment is already in slot %q", models.ErrValidation, slotID)
	}
	slot, err := s.resolveInWindow(ctx, slotID, a.DoctorID, s.rescheduleDays)
	if err != nil {
		return models.Appointment{}, err
	}
	return s.store.Reschedule(ctx, a.ID, slot.StartTime, slot.EndTime)
}

// Cancel cancels an appointment.
func (s *Service) Cancel(ctx context.Context, appointmentID string) (models.Appointment, error) {
	return s.store.Cancel(ctx, appointmentID)
}

func (s *Service) upcoming(ctx context.Context, id string) (models.Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if !a.IsUpcoming(s.Now()) {
		return models.Appointment{}, fmt.Errorf("%w: appointment %q is %s", models.ErrValidation, id, a.EffectiveStatus(s.Now()))
	}
	return a, nil
}

func (s *Service) doctorIn(departmentID, doctorID string) (models.Doctor, error) {
	doc, err := s.catalog.Doctor(doctorID)
	if err != nil {
		return models.Doctor{}, asValidation(err)
	}
	if doc.DepartmentID != departmentID {
		return models.Doctor{}, fmt.Errorf("%w: doctor %q is not in department %q", models.ErrValidation, doctorID, departmentID)
	}
	return doc, nil
}

func (s *Service) resolveInWindow(ctx context.Context, slotID, doctorID string, days int) (models.TimeSlot, error) {
	slot, err := s.generator.Resolve(ctx, slotID, doctorID, s.Now())
	if err != nil {
		return models.TimeSlot{}, err
	}
	if !slot.StartTime.Before(s.today().AddDate(0, 0, days)) {
		return models.TimeSlot{}, fmt.Errorf("%w: slot %q is more than %d days ahead", models.ErrValidation, slotID, days)
	}
	return slot, nil
}

func (s *Service) group(list []models.TimeSlot) Availability {
	groups := slots.GroupByDay(list)
	return Availability{
		Days:       slots.Days(groups),
		Slots:      groups,
		DefaultDay: slots.DefaultDay(list, s.Now()),
	}
}

// asValidation reports unknown catalog ids in a selection as validation errors.
func asValidation(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrPersistence):
		return "persistence_error"
	}
	return "error"
}
