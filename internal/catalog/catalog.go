// Package catalog holds the read-only department and doctor reference data.
package catalog

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"medbook/internal/models"
)

// Data is the root of catalog.yaml.
type Data struct {
	Departments []models.Department `yaml:"departments"`
	Doctors     []models.Doctor     `yaml:"doctors"`
}

// LoadFile reads and validates a catalog override file.
func LoadFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return &data, nil
}

// Validate checks ids and names. Doctor.DepartmentID is not resolved here.
func (d *Data) Validate() error {
	if len(d.Departments) == 0 {
		return fmt.Errorf("no departments defined")
	}

	deptIDs := make(map[string]bool)
	for i, dept := range d.Departments {
		if dept.ID == "" {
			return fmt.Errorf("department[%d]: id is required", i)
		}
		if deptIDs[dept.ID] {
			return fmt.Errorf("department[%d]: duplicate id '%s'", i, dept.ID)
		}
		deptIDs[dept.ID] = true

		if dept.Name == "" {
			return fmt.Errorf("department[%d]: name is required", i)
		}
	}

	docIDs := make(map[string]bool)
	for i, doc := range d.Doctors {
		if doc.ID == "" {
			return fmt.Errorf("doctor[%d]: id is required", i)
		}
		if docIDs[doc.ID] {
			return fmt.Errorf("doctor[%d]: duplicate id '%s'", i, doc.ID)
		}
		docIDs[doc.ID] = true

		if doc.Name == "" {
			return fmt.Errorf("doctor[%d]: name is required", i)
		}
		if doc.DepartmentID == "" {
			return fmt.Errorf("doctor[%d]: department_id is required", i)
		}
	}
	return nil
}

// Catalog serves reference data and can be swapped atomically on reload.
type Catalog struct {
	mu   sync.RWMutex
	data *Data
}

// New creates a catalog. A nil data falls back to DefaultData.
func New(data *Data) *Catalog {
	if data == nil {
		data = DefaultData()
	}
	return &Catalog{data: data}
}

// Replace swaps the reference data.
func (c *Catalog) Replace(data *Data) {
	if data == nil {
		return
	}
	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
}

// ListDepartments returns all departments in catalog order.
func (c *Catalog) ListDepartments() []models.Department {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Department(nil), c.data.Departments...)
}

// Department returns a department by id.
func (c *Catalog) Department(id string) (models.Department, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.data.Departments {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Department{}, fmt.Errorf("%w: %q", models.ErrDepartmentNotFound, id)
}

// ListDoctors returns all doctors in catalog order.
func (c *Catalog) ListDoctors() []models.Doctor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Doctor(nil), c.data.Doctors...)
}

// DoctorsByDepartment filters doctors by department id.
func (c *Catalog) DoctorsByDepartment(departmentID string) []models.Doctor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.Doctor, 0)
	for _, d := range c.data.Doctors {
		if d.DepartmentID == departmentID {
			result = append(result, d)
		}
	}
	return result
}

// Doctor returns a doctor by id.
func (c *Catalog) Doctor(id string) (models.Doctor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.data.Doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Doctor{}, fmt.Errorf("%w: %q", models.ErrDoctorNotFound, id)
}

// String returns a summary of the catalog.
func (c *Catalog) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("Catalog: %d departments, %d doctors", len(c.data.Departments), len(c.data.Doctors))
}
