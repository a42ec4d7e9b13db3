package appointments

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medbook/internal/database"
	"medbook/internal/events"
	"medbook/internal/models"
	"medbook/internal/slots"
)

var (
	dept = models.Department{ID: "dept1", Name: "Cardiology"}
	doc  = models.Doctor{ID: "doc1", Name: "Dr. Sarah Johnson", DepartmentID: "dept1", Specialization: "Cardiologist"}
	base = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
)

func slotAt(doctorID string, start time.Time) models.TimeSlot {
	return models.TimeSlot{
		ID:        slots.SlotID(doctorID, start),
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Available: true,
	}
}

// newTestStore returns a store whose clock advances one minute per call.
func newTestStore(backend Backend, opts ...Option) *Store {
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return NewStore(backend, append([]Option{WithClock(clock)}, opts...)...)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockBackend) Save(ctx context.Context, data []byte) error {
	return m.Called(ctx, data).Error(0)
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend())

	start := time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)
	a, err := store.Create(ctx, dept, doc, slotAt("doc1", start))
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.StatusScheduled, a.Status)
	assert.Equal(t, "dept1", a.DepartmentID)
	assert.Equal(t, "doc1", a.DoctorID)
	assert.Equal(t, "Dr. Sarah Johnson", a.Doctor.Name)
	assert.Equal(t, "Cardiology", a.Department.Name)
	assert.True(t, a.StartTime.Equal(start))

	first, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, a.ID, first[0].ID)

	second, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListOrderedByCreatedAtDesc(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend())

	var ids []string
	for h := 9; h <= 11; h++ {
		a, err := store.Create(ctx, dept, doc, slotAt("doc1", time.Date(2026, 1, 16, h, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := newTestStore(backend)
	good := slotAt("doc1", time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC))
	inverted := good
	inverted.EndTime = good.StartTime

	tests := []struct {
		name string
		dept models.Department
		doc  models.Doctor
		slot models.TimeSlot
	}{
		{"missing department", models.Department{}, doc, good},
		{"missing doctor", dept, models.Doctor{}, good},
		{"missing slot", dept, doc, models.TimeSlot{}},
		{"inverted slot", dept, doc, inverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.dept, tt.doc, tt.slot)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}

	data, _ := backend.Load(ctx)
	assert.Empty(t, data)
}

func TestCreateRegeneratesDuplicateID(t *testing.T) {
	ctx := context.Background()
	ids := []string{"same", "same", "other"}
	store := newTestStore(NewMemoryBackend(), WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	a, err := store.Create(ctx, dept, doc, slotAt("doc1", base.Add(24*time.Hour)))
	require.NoError(t, err)
	b, err := store.Create(ctx, dept, doc, slotAt("doc1", base.Add(25*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, "same", a.ID)
	assert.Equal(t, "other", b.ID)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend())
	a, err := store.Create(ctx, dept, doc, slotAt("doc1", base.Add(24*time.Hour)))
	require.NoError(t, err)

	first, err := store.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, first.Status)

	second, err := store.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestCancelNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend())
	a, err := store.Create(ctx, dept, doc, slotAt("doc1", base.Add(24*time.Hour)))
	require.NoError(t, err)
	before, _ := store.List(ctx)

	_, err = store.Cancel(ctx, "nonexistent")
	assert.ErrorIs(t, err, models.ErrNotFound)

	after, _ := store.List(ctx)
	assert.Equal(t, before, after)
	assert.Equal(t, models.StatusScheduled, after[0].Status)
	assert.Equal(t, a.ID, after[0].ID)
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend())
	a, err := store.Create(ctx, dept, doc, slotAt("doc1", base.Add(24*time.Hour)))
	require.NoError(t, err)

	t1 := time.Date(2026, 1, 20, 14, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	_, err = store.Reschedule(ctx, a.ID, t1, t2)
	require.NoError(t, err)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Status, got.Status)
	assert.True(t, got.StartTime.Equal(t1))
	assert.True(t, got.EndTime.Equal(t2))
	assert.Equal(t, "doc1-2026-01-20-14", got.TimeSlotID)

	_, err = store.Reschedule(ctx, "missing", t1, t2)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.Reschedule(ctx, a.ID, t2, t1)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestIsSlotBooked(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend())
	start := time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)
	a, err := store.Create(ctx, dept, doc, slotAt("doc1", start))
	require.NoError(t, err)

	booked, err := store.IsSlotBooked(ctx, "doc1", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, booked)

	booked, err = store.IsSlotBooked(ctx, "doc2", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, booked)

	booked, err = store.IsSlotBooked(ctx, "doc1", start.Add(time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, booked)

	_, err = store.Cancel(ctx, a.ID)
	require.NoError(t, err)
	booked, err = store.IsSlotBooked(ctx, "doc1", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, booked)
}

type countingBackend struct {
	Backend
	loads int
}

func (c *countingBackend) Load(ctx context.Context) ([]byte, error) {
	c.loads++
	return c.Backend.Load(ctx)
}

func TestBookedIntervals(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend())
	first := time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)
	second := time.Date(2026, 1, 17, 14, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, dept, doc, slotAt("doc1", second))
	require.NoError(t, err)
	_, err = store.Create(ctx, dept, doc, slotAt("doc1", first))
	require.NoError(t, err)
	cancelled, err := store.Create(ctx, dept, doc, slotAt("doc1", first.Add(time.Hour)))
	require.NoError(t, err)
	_, err = store.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	got, err := store.BookedIntervals(ctx, "doc1", first.Truncate(24*time.Hour), first.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].StartTime)
	assert.Equal(t, second, got[1].StartTime)

	got, err = store.BookedIntervals(ctx, "doc1", second.Add(time.Hour), second.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.BookedIntervals(ctx, "doc2", first, second.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWindowReadsCollectionOnce(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Backend: NewMemoryBackend()}
	store := newTestStore(backend)
	start := time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)
	_, err := store.Create(ctx, dept, doc, slotAt("doc1", start))
	require.NoError(t, err)

	gen := slots.NewGenerator(store, slots.DefaultHours())
	backend.loads = 0
	got, err := gen.Window(ctx, "doc1", time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC), 30, base)
	require.NoError(t, err)
	assert.Len(t, got, 30*9)
	assert.Equal(t, 1, backend.loads)

	assert.False(t, got[1].Available)
	assert.Equal(t, start, got[1].StartTime)
	assert.Len(t, slots.AvailableOnly(got), 30*9-1)
}

func TestCorruptDataReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, []byte("{not json")))

	store := newTestStore(backend)
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUnparseableEntriesDropped(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	raw := `[
		{"id":"a1","departmentId":"dept1","doctorId":"doc1","timeSlotId":"doc1-2026-01-16-09",
		 "startTime":"2026-01-16T09:00:00Z","endTime":"2026-01-16T10:00:00Z","status":"scheduled",
		 "createdAt":"2026-01-15T10:00:00Z"},
		{"id":"a2","startTime":"yesterday"},
		{"id":"a3","departmentId":"dept1","doctorId":"doc1","startTime":"2026-01-16T09:00:00Z",
		 "endTime":"2026-01-16T10:00:00Z","status":"lost"},
		42
	]`
	require.NoError(t, backend.Save(ctx, []byte(raw)))

	list, err := newTestStore(backend).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
}

func TestSaveFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend()
	seed := newTestStore(mem)
	a, err := seed.Create(ctx, dept, doc, slotAt("doc1", base.Add(24*time.Hour)))
	require.NoError(t, err)
	stored, _ := mem.Load(ctx)

	backend := &mockBackend{}
	backend.On("Load", mock.Anything).Return(stored, nil)
	backend.On("Save", mock.Anything, mock.Anything).Return(errors.New("quota exceeded"))
	store := newTestStore(backend)

	_, err = store.Cancel(ctx, a.ID)
	assert.ErrorIs(t, err, models.ErrPersistence)

	_, err = store.Create(ctx, dept, doc, slotAt("doc1", base.Add(48*time.Hour)))
	assert.ErrorIs(t, err, models.ErrPersistence)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusScheduled, list[0].Status)
	backend.AssertNumberOfCalls(t, "Save", 2)
}

func TestLoadFailure(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Load", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := newTestStore(backend).List(context.Background())
	assert.ErrorIs(t, err, models.ErrPersistence)
	backend.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEventsPublished(t *testing.T) {
	ctx := context.Background()
	bus := events.NewEventBus()
	var seen []string
	bus.SubscribeAll(func(e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})
	store := newTestStore(NewMemoryBackend(), WithEvents(bus))

	a, err := store.Create(ctx, dept, doc, slotAt("doc1", base.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = store.Reschedule(ctx, a.ID, base.Add(48*time.Hour), base.Add(49*time.Hour))
	require.NoError(t, err)
	_, err = store.Cancel(ctx, a.ID)
	require.NoError(t, err)
	_, err = store.Cancel(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{events.AppointmentCreated, events.AppointmentRescheduled, events.AppointmentCancelled}, seen)
}

func TestSplit(t *testing.T) {
	now := base
	list := []models.Appointment{
		{ID: "future", StartTime: now.Add(time.Hour), Status: models.StatusScheduled},
		{ID: "past", StartTime: now.Add(-time.Hour), Status: models.StatusScheduled},
		{ID: "cancelled", StartTime: now.Add(time.Hour), Status: models.StatusCancelled},
	}

	upcoming, past := Split(list, now)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "future", upcoming[0].ID)
	require.Len(t, past, 2)
	assert.Equal(t, "past", past[0].ID)
	assert.Equal(t, "cancelled", past[1].ID)
}

func TestBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, err := database.NewDB(filepath.Join(t.TempDir(), "medbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backends := map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   NewFileBackend(filepath.Join(t.TempDir(), "nested", "appointments.json")),
		"sqlite": NewSQLiteBackend(db, ""),
		"redis":  NewRedisBackend(rdb, ""),
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			data, err := backend.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, data)

			store := newTestStore(backend)
			for h := 9; h <= 10; h++ {
				_, err := store.Create(ctx, dept, doc, slotAt("doc1", time.Date(2026, 1, 16, h, 0, 0, 0, time.UTC)))
				require.NoError(t, err)
			}

			reopened := NewStore(backend)
			list, err := reopened.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, 10, list[0].StartTime.Hour())
		})
	}

	assert.True(t, mr.Exists(DefaultKey))
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend := NewFileBackend(filepath.Join(dir, "appointments.json"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, backend.Save(ctx, []byte(fmt.Sprintf("[%d]", i))))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[2]", string(data))
}
