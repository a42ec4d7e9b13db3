// Package appointments persists appointment records as a single serialized
// collection behind a pluggable Backend.
package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medbook/internal/events"
	"medbook/internal/metrics"
	"medbook/internal/models"
	"medbook/internal/slots"
)

// DefaultKey is the well-known key the collection is stored under.
const DefaultKey = "medbook.appointments"

// Backend loads and saves the serialized collection. Load returns nil data when
// nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Store is the appointment repository. Every mutation reads the whole
// collection, changes it and writes it back under one lock.
type Store struct {
	mu      sync.Mutex
	backend Backend
	bus     *events.EventBus
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithEvents publishes mutations on bus.
func WithEvents(bus *events.EventBus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger.With().Str("component", "appointments").Logger() }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides uuid-based ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates a store over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  zerolog.Nop(),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all records, most recently created first. Corrupt stored data
// reads as an empty collection; only a failing backend returns an error.
func (s *Store) List(ctx context.Context) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, id string) (models.Appointment, error) {
	list, err := s.List(ctx)
	if err != nil {
		return models.Appointment{}, err
	}
	if i := indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return models.Appointment{}, fmt.Errorf("%w: %q", models.ErrAppointmentNotFound, id)
}

// Create stores a new scheduled appointment for slot with snapshots of the
// department and doctor.
func (s *Store) Create(ctx context.Context, department models.Department, doctor models.Doctor, slot models.TimeSlot) (models.Appointment, error) {
	switch {
	case department.ID == "":
		return models.Appointment{}, fmt.Errorf("%w: department is required", models.ErrValidation)
	case doctor.ID == "":
		return models.Appointment{}, fmt.Errorf("%w: doctor is required", models.ErrValidation)
	case slot.ID == "" || slot.StartTime.IsZero():
		return models.Appointment{}, fmt.Errorf("%w: time slot is required", models.ErrValidation)
	case !slot.StartTime.Before(slot.EndTime):
		return models.Appointment{}, fmt.Errorf("%w: time slot must end after it starts", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return models.Appointment{}, err
	}

	id := s.newID()
	for indexOf(list, id) >= 0 {
		id = s.newID()
	}

	a := models.Appointment{
		ID:           id,
		DepartmentID: department.ID,
		DoctorID:     doctor.ID,
		TimeSlotID:   slot.ID,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		Status:       models.StatusScheduled,
		CreatedAt:    s.now(),
		Department:   models.DepartmentSnapshot{ID: department.ID, Name: department.Name},
		Doctor: models.DoctorSnapshot{
			ID:             doctor.ID,
			Name:           doctor.Name,
			Specialization: doctor.Specialization,
			ImageRef:       doctor.ImageRef,
		},
	}

	if err := s.save(ctx, "create", append([]models.Appointment{a}, list...)); err != nil {
		return models.Appointment{}, err
	}

	s.logger.Info().Str("appointment_id", a.ID).Str("doctor_id", a.DoctorID).Time("start", a.StartTime).Msg("appointment created")
	s.publish(events.AppointmentCreated, a)
	return a, nil
}

// Cancel marks a record cancelled. Cancelling a cancelled record is a no-op.
func (s *Store) Cancel(ctx context.Context, id string) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return models.Appointment{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return models.Appointment{}, fmt.Errorf("%w: %q", models.ErrAppointmentNotFound, id)
	}
	if list[i].Status == models.StatusCancelled {
		return list[i], nil
	}

	updated := cloneList(list)
	updated[i].Status = models.StatusCancelled
	if err := s.save(ctx, "cancel", updated); err != nil {
		return models.Appointment{}, err
	}

	s.logger.Info().Str("appointment_id", id).Msg("appointment cancelled")
	s.publish(events.AppointmentCancelled, updated[i])
	return updated[i], nil
}

// Reschedule moves a record to [start, end) in place. Id and status are kept;
// the slot id follows the new start time.
func (s *Store) Reschedule(ctx context.Context, id string, start, end time.Time) (models.Appointment, error) {
	if !start.Before(end) {
		return models.Appointment{}, fmt.Errorf("%w: start must be before end", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return models.Appointment{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return models.Appointment{}, fmt.Errorf("%w: %q", models.ErrAppointmentNotFound, id)
	}

	updated := cloneList(list)
	updated[i].StartTime = start
	updated[i].EndTime = end
	updated[i].TimeSlotID = slots.SlotID(updated[i].DoctorID, start)
	if err := s.save(ctx, "reschedule", updated); err != nil {
		return models.Appointment{}, err
	}

	s.logger.Info().Str("appointment_id", id).Time("start", start).Msg("appointment rescheduled")
	s.publish(events.AppointmentRescheduled, updated[i])
	return updated[i], nil
}

// IsSlotBooked reports whether doctorID has a scheduled appointment overlapping
// [start, end).
func (s *Store) IsSlotBooked(ctx context.Context, doctorID string, start, end time.Time) (bool, error) {
	booked, err := s.BookedIntervals(ctx, doctorID, start, end)
	if err != nil {
		return false, err
	}
	return len(booked) > 0, nil
}

// BookedIntervals returns the intervals of scheduled appointments of doctorID
// overlapping [from, to), ascending by start. The collection is read once.
func (s *Store) BookedIntervals(ctx context.Context, doctorID string, from, to time.Time) ([]models.TimeSlot, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	window := models.TimeSlot{StartTime: from, EndTime: to}
	result := make([]models.TimeSlot, 0)
	for _, a := range list {
		if a.DoctorID != doctorID || a.Status != models.StatusScheduled {
			continue
		}
		interval := models.TimeSlot{
			ID:        a.TimeSlotID,
			DoctorID:  a.DoctorID,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
		}
		if window.Overlaps(interval) {
			result = append(result, interval)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

// Split partitions records into upcoming and past-or-cancelled, keeping order.
func Split(list []models.Appointment, now time.Time) (upcoming, past []models.Appointment) {
	upcoming = make([]models.Appointment, 0)
	past = make([]models.Appointment, 0)
	for _, a := range list {
		if a.IsUpcoming(now) {
			upcoming = append(upcoming, a)
		} else {
			past = append(past, a)
		}
	}
	return upcoming, past
}

func (s *Store) load(ctx context.Context) ([]models.Appointment, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		metrics.IncPersistenceError("load")
		return nil, fmt.Errorf("%w: load appointments: %v", models.ErrPersistence, err)
	}
	list, dropped := decode(data)
	if dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("unreadable appointment records skipped")
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, op string, list []models.Appointment) error {
	data, err := json.Marshal(list)
	if err != nil {
		metrics.IncPersistenceError(op)
		return fmt.Errorf("%w: encode appointments: %v", models.ErrPersistence, err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		metrics.IncPersistenceError(op)
		s.logger.Error().Err(err).Str("op", op).Msg("failed to save appointments")
		return fmt.Errorf("%w: save appointments: %v", models.ErrPersistence, err)
	}
	return nil
}

func (s *Store) publish(eventType string, a models.Appointment) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(events.Event{Type: eventType, Appointment: a, CreatedAt: s.now()}); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("event handler failed")
	}
}

// decode reads the stored collection best-effort: unparseable data yields an
// empty list and unparseable or incomplete entries are dropped.
func decode(data []byte) ([]models.Appointment, int) {
	list := make([]models.Appointment, 0)
	if len(data) == 0 {
		return list, 0
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return list, 0
	}

	dropped := 0
	for _, r := range raw {
		var a models.Appointment
		if err := json.Unmarshal(r, &a); err != nil || !a.Valid() {
			dropped++
			continue
		}
		list = append(list, a)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, dropped
}

func indexOf(list []models.Appointment, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneList(list []models.Appointment) []models.Appointment {
	return append([]models.Appointment(nil), list...)
}
