package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medbook/internal/models"
)

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) Book(ctx context.Context, sel Selection) (models.Appointment, error) {
	args := m.Called(ctx, sel)
	return args.Get(0).(models.Appointment), args.Error(1)
}

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name        string
		from        Step
		to          Step
		shouldAllow bool
	}{
		{"department to doctor", StepDepartment, StepDoctor, true},
		{"doctor to time slot", StepDoctor, StepTimeSlot, true},
		{"time slot to confirm", StepTimeSlot, StepConfirm, true},
		// Back transitions
		{"doctor back to department", StepDoctor, StepDepartment, true},
		{"confirm back to time slot", StepConfirm, StepTimeSlot, true},
		// Invalid transitions
		{"department to confirm", StepDepartment, StepConfirm, false},
		{"confirm past the end", StepConfirm, Step(5), false},
		{"department before the start", StepDepartment, Step(0), false},
		{"confirm back to department", StepConfirm, StepDepartment, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shouldAllow, fsm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestWizardInitialState(t *testing.T) {
	w := NewWizard()
	assert.Equal(t, Selection{Step: StepDepartment}, w.Selection())
}

func TestAdvanceRequiresSelection(t *testing.T) {
	w := NewWizard()

	err := w.Advance()
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, StepDepartment, w.Step())

	require.NoError(t, w.SelectDepartment("dept1"))
	require.NoError(t, w.Advance())
	assert.Equal(t, StepDoctor, w.Step())

	assert.ErrorIs(t, w.Advance(), models.ErrValidation)
	assert.Equal(t, StepDoctor, w.Step())
}

func TestSelectDepartmentClearsDownstream(t *testing.T) {
	w := NewWizard()
	require.NoError(t, w.SelectDepartment("dept1"))
	require.NoError(t, w.SelectDoctor("doc1"))
	require.NoError(t, w.SelectTimeSlot("doc1-2026-01-16-09"))

	require.NoError(t, w.SelectDepartment("dept2"))
	sel := w.Selection()
	assert.Equal(t, "dept2", sel.DepartmentID)
	assert.Empty(t, sel.DoctorID)
	assert.Empty(t, sel.TimeSlotID)
}

func TestSelectDoctorClearsSlot(t *testing.T) {
	w := NewWizard()
	require.NoError(t, w.SelectDepartment("dept1"))
	require.NoError(t, w.SelectDoctor("doc1"))
	require.NoError(t, w.SelectTimeSlot("doc1-2026-01-16-09"))

	require.NoError(t, w.SelectDoctor("doc2"))
	assert.Empty(t, w.Selection().TimeSlotID)
}

func TestSelectionPrerequisites(t *testing.T) {
	w := NewWizard()
	assert.ErrorIs(t, w.SelectDoctor("doc1"), models.ErrValidation)
	assert.ErrorIs(t, w.SelectTimeSlot("slot"), models.ErrValidation)
	assert.ErrorIs(t, w.SelectDepartment(""), models.ErrValidation)
	assert.Equal(t, Selection{Step: StepDepartment}, w.Selection())
}

func TestRetreatKeepsSelections(t *testing.T) {
	w := NewWizard()
	w.Retreat()
	assert.Equal(t, StepDepartment, w.Step())

	require.NoError(t, w.SelectDepartment("dept1"))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SelectDoctor("doc1"))
	require.NoError(t, w.Advance())

	w.Retreat()
	w.Retreat()
	sel := w.Selection()
	assert.Equal(t, StepDepartment, sel.Step)
	assert.Equal(t, "dept1", sel.DepartmentID)
	assert.Equal(t, "doc1", sel.DoctorID)
}

func TestAdvanceCappedAtConfirm(t *testing.T) {
	w := fullWizard(t)
	require.NoError(t, w.Advance())
	assert.Equal(t, StepConfirm, w.Step())
}

func fullWizard(t *testing.T) *Wizard {
	t.Helper()
	w := NewWizard()
	require.NoError(t, w.SelectDepartment("dept1"))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SelectDoctor("doc1"))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SelectTimeSlot("doc1-2026-01-16-09"))
	require.NoError(t, w.Advance())
	require.Equal(t, StepConfirm, w.Step())
	return w
}

func TestSubmitResetsOnSuccess(t *testing.T) {
	w := fullWizard(t)
	creator := &mockCreator{}
	want := models.Appointment{ID: "a1"}
	creator.On("Book", mock.Anything, Selection{
		Step: StepConfirm, DepartmentID: "dept1", DoctorID: "doc1", TimeSlotID: "doc1-2026-01-16-09",
	}).Return(want, nil).Once()

	got, err := w.Submit(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, Selection{Step: StepDepartment}, w.Selection())
	creator.AssertExpectations(t)
}

func TestSubmitIncomplete(t *testing.T) {
	creator := &mockCreator{}

	// not at confirm
	w := NewWizard()
	require.NoError(t, w.SelectDepartment("dept1"))
	_, err := w.Submit(context.Background(), creator)
	assert.ErrorIs(t, err, models.ErrValidation)

	// at confirm with the slot cleared by re-selecting the doctor
	w = fullWizard(t)
	require.NoError(t, w.SelectDoctor("doc1"))
	before := w.Selection()
	_, err = w.Submit(context.Background(), creator)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, before, w.Selection())

	creator.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)

	// retry after completing the selection succeeds
	require.NoError(t, w.SelectTimeSlot("doc1-2026-01-16-10"))
	creator.On("Book", mock.Anything, mock.Anything).Return(models.Appointment{ID: "a2"}, nil)
	a, err := w.Submit(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, "a2", a.ID)
}

func TestSubmitFailureKeepsState(t *testing.T) {
	w := fullWizard(t)
	before := w.Selection()
	creator := &mockCreator{}
	creator.On("Book", mock.Anything, mock.Anything).Return(models.Appointment{}, models.ErrPersistence)

	_, err := w.Submit(context.Background(), creator)
	assert.True(t, errors.Is(err, models.ErrPersistence))
	assert.Equal(t, before, w.Selection())
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, ok := store.Get("missing")
	assert.False(t, ok)

	id, w := store.Create()
	assert.NotEmpty(t, id)
	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Same(t, w, got)
	assert.Same(t, w, store.GetOrCreate(id))

	other := store.GetOrCreate("fixed")
	assert.Equal(t, 2, store.Len())

	now = now.Add(2 * time.Minute)
	_, ok = store.Get(id)
	assert.False(t, ok)
	assert.NotSame(t, other, store.GetOrCreate("fixed"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 0, store.Len())

	id, _ = store.Create()
	store.Delete(id)
	_, ok = store.Get(id)
	assert.False(t, ok)
}

func TestSessionStoreKeepsRecreatedSession(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	stale := store.GetOrCreate("fixed")
	now = now.Add(2 * time.Minute)

	// A Get that saw the stale wizard loses the race to GetOrCreate.
	fresh := store.GetOrCreate("fixed")
	require.NotSame(t, stale, fresh)
	store.dropExpired("fixed", stale)

	got, ok := store.Get("fixed")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	now = now.Add(2 * time.Minute)
	store.dropExpired("fixed", fresh)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreConcurrentAccess(t *testing.T) {
	store := NewSessionStore(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w := store.GetOrCreate("shared")
				got, ok := store.Get("shared")
				assert.True(t, ok)
				assert.NotNil(t, got)
				assert.NotNil(t, w)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.Len())
}
