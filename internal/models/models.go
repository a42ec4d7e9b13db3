package models

import (
	"fmt"
	"time"
)

// Department is a medical department from the reference catalog.
type Department struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	IconKey     string `json:"iconKey" yaml:"icon_key"`
}

// Doctor belongs to a department via DepartmentID. The reference is not checked
// by the catalog itself.
type Doctor struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	DepartmentID    string `json:"departmentId" yaml:"department_id"`
	Specialization  string `json:"specialization" yaml:"specialization"`
	ExperienceLabel string `json:"experienceLabel" yaml:"experience_label"`
	ImageRef        string `json:"imageRef" yaml:"image_ref"`
}

// TimeSlot is a one-hour bookable interval for a doctor.
type TimeSlot struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctorId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}

// Duration returns the slot length.
func (s TimeSlot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Overlaps reports whether the two slots share any instant. End is exclusive.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.StartTime.Before(other.EndTime) && other.StartTime.Before(s.EndTime)
}

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DepartmentSnapshot holds the department fields copied into an appointment at creation.
type DepartmentSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DoctorSnapshot holds the doctor fields copied into an appointment at creation.
type DoctorSnapshot struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	ImageRef       string `json:"imageRef,omitempty"`
}

// Appointment is a persisted booking record.
type Appointment struct {
	ID           string             `json:"id"`
	DepartmentID string             `json:"departmentId"`
	DoctorID     string             `json:"doctorId"`
	TimeSlotID   string             `json:"timeSlotId"`
	StartTime    time.Time          `json:"startTime"`
	EndTime      time.Time          `json:"endTime"`
	Status       Status             `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	Department   DepartmentSnapshot `json:"department"`
	Doctor       DoctorSnapshot     `json:"doctor"`
}

// EffectiveStatus derives the displayed status. A scheduled appointment whose
// start time has passed is reported as completed; the stored status is untouched.
func (a *Appointment) EffectiveStatus(now time.Time) Status {
	if a.Status == StatusScheduled && a.StartTime.Before(now) {
		return StatusCompleted
	}
	return a.Status
}

// IsUpcoming reports whether the appointment is still ahead and not cancelled.
func (a *Appointment) IsUpcoming(now time.Time) bool {
	return a.EffectiveStatus(now) == StatusScheduled
}

// QRPayload returns the string encoded in the confirmation QR code.
func (a *Appointment) QRPayload() string {
	return fmt.Sprintf("appointment:%s:%s:%s", a.TimeSlotID, a.DoctorID, a.DepartmentID)
}

// Valid checks the fields required for a record read back from storage.
func (a *Appointment) Valid() bool {
	return a.ID != "" &&
		a.DoctorID != "" &&
		a.DepartmentID != "" &&
		!a.StartTime.IsZero() &&
		a.StartTime.Before(a.EndTime) &&
		a.Status.Valid()
}
