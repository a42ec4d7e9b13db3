package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by the booking core. Operations wrap them with context;
// callers match with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failed")
)

// Not-found kinds per entity. Each one also matches ErrNotFound.
var (
	ErrDepartmentNotFound  = fmt.Errorf("department %w", ErrNotFound)
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
)
