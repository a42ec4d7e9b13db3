package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medbook/internal/models"
)

// Selection is a snapshot of the wizard state.
type Selection struct {
	Step         Step   `json:"step"`
	DepartmentID string `json:"departmentId,omitempty"`
	DoctorID     string `json:"doctorId,omitempty"`
	TimeSlotID   string `json:"timeSlotId,omitempty"`
}

// Complete reports whether all three selections are set.
func (s Selection) Complete() bool {
	return s.DepartmentID != "" && s.DoctorID != "" && s.TimeSlotID != ""
}

// Creator turns a complete selection into a stored appointment.
type Creator interface {
	Book(ctx context.Context, sel Selection) (models.Appointment, error)
}

// Wizard is one booking session. It is safe for concurrent use.
type Wizard struct {
	mu        sync.Mutex
	fsm       *FSM
	sel       Selection
	updatedAt time.Time
	now       func() time.Time
}

// NewWizard returns a wizard at step 1 with nothing selected.
func NewWizard() *Wizard {
	return newWizard(time.Now)
}

func newWizard(now func() time.Time) *Wizard {
	return &Wizard{
		fsm:       defaultFSM,
		sel:       Selection{Step: StepDepartment},
		updatedAt: now(),
		now:       now,
	}
}

// Selection returns the current state.
func (w *Wizard) Selection() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	return w.Selection().Step
}

// SelectDepartment sets the department and clears doctor and slot.
func (w *Wizard) SelectDepartment(id string) error {
	if id == "" {
		return fmt.Errorf("%w: department id is required", models.ErrValidation)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel.DepartmentID = id
	w.sel.DoctorID = ""
	w.sel.TimeSlotID = ""
	w.touch()
	return nil
}

// SelectDoctor sets the doctor and clears the slot. A department must be set.
func (w *Wizard) SelectDoctor(id string) error {
	if id == "" {
		return fmt.Errorf("%w: doctor id is required", models.ErrValidation)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.DepartmentID == "" {
		return fmt.Errorf("%w: select a department first", models.ErrValidation)
	}
	w.sel.DoctorID = id
	w.sel.TimeSlotID = ""
	w.touch()
	return nil
}

// SelectTimeSlot sets the slot. A doctor must be set.
func (w *Wizard) SelectTimeSlot(id string) error {
	if id == "" {
		return fmt.Errorf("%w: time slot id is required", models.ErrValidation)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.DoctorID == "" {
		return fmt.Errorf("%w: select a doctor first", models.ErrValidation)
	}
	w.sel.TimeSlotID = id
	w.touch()
	return nil
}

// Advance moves to the next step when the current step's selection is made.
// At the last step it does nothing.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.stepDone() {
		return fmt.Errorf("%w: step %s is not complete", models.ErrValidation, w.sel.Step)
	}
	if next := w.sel.Step + 1; w.fsm.CanTransition(w.sel.Step, next) {
		w.sel.Step = next
	}
	w.touch()
	return nil
}

// Retreat moves back one step, keeping all selections. At step 1 it does nothing.
func (w *Wizard) Retreat() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev := w.sel.Step - 1; w.fsm.CanTransition(w.sel.Step, prev) {
		w.sel.Step = prev
	}
	w.touch()
}

// Submit books the selection through creator and resets the wizard on success.
// Nothing is created unless the wizard is at the confirm step with every
// selection made; a failed submit leaves the state untouched.
func (w *Wizard) Submit(ctx context.Context, creator Creator) (models.Appointment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sel.Step != StepConfirm {
		return models.Appointment{}, fmt.Errorf("%w: submit is only allowed at the confirm step", models.ErrValidation)
	}
	if !w.sel.Complete() {
		return models.Appointment{}, fmt.Errorf("%w: department, doctor and time slot are required", models.ErrValidation)
	}

	a, err := creator.Book(ctx, w.sel)
	if err != nil {
		return models.Appointment{}, err
	}

	w.sel = Selection{Step: StepDepartment}
	w.touch()
	return a, nil
}

// Reset returns to step 1 with nothing selected.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel = Selection{Step: StepDepartment}
	w.touch()
}

// IsExpired checks if the wizard has been idle longer than timeout.
func (w *Wizard) IsExpired(timeout time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now().Sub(w.updatedAt) > timeout
}

func (w *Wizard) stepDone() bool {
	switch w.sel.Step {
	case StepDepartment:
		return w.sel.DepartmentID != ""
	case StepDoctor:
		return w.sel.DoctorID != ""
	case StepTimeSlot:
		return w.sel.TimeSlotID != ""
	case StepConfirm:
		return true
	}
	return false
}

func (w *Wizard) touch() {
	w.updatedAt = w.now()
}
