// Package export renders the appointment list as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"medbook/internal/appointments"
	"medbook/internal/i18n"
	"medbook/internal/models"
	"medbook/internal/slots"
)

// ExcelWriter writes tabular data to Excel format.
type ExcelWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []any) error
	Save(w io.Writer) error
	SaveToFile(path string) error
	Close() error
}

const maxSheetName = 31

// ExcelizeWriter implements ExcelWriter using excelize library.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelizeWriter creates a new Excel writer.
func NewExcelizeWriter() *ExcelizeWriter {
	return &ExcelizeWriter{
		file: excelize.NewFile(),
	}
}

// AddSheet adds a new sheet with the given name.
func (w *ExcelizeWriter) AddSheet(name string) error {
	// Excel limits sheet names to 31 characters
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the current sheet.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.WriteRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
		return err
	}

	w.currentRow++
	return nil
}

// Save writes the Excel file to the writer.
func (w *ExcelizeWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// SaveToFile writes the Excel file to disk.
func (w *ExcelizeWriter) SaveToFile(path string) error {
	return w.file.SaveAs(path)
}

// Close releases resources.
func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}

var columnKeys = []i18n.Key{
	i18n.ExportColID,
	i18n.ExportColDepartment,
	i18n.ExportColDoctor,
	i18n.ExportColSpecialization,
	i18n.ExportColDate,
	i18n.ExportColTime,
	i18n.ExportColStatus,
	i18n.ExportColCreated,
}

// WriteAppointments writes upcoming and past appointments to two sheets.
// Statuses are the effective ones at now, localized through tr.
func WriteAppointments(w ExcelWriter, list []models.Appointment, now time.Time, tr i18n.Translator) error {
	upcoming, past := appointments.Split(list, now)
	columns := make([]string, len(columnKeys))
	for i, key := range columnKeys {
		columns[i] = tr.T(key)
	}

	sheets := []struct {
		name string
		rows []models.Appointment
	}{
		{tr.T(i18n.ExportSheetUpcoming), upcoming},
		{tr.T(i18n.ExportSheetHistory), past},
	}

	for _, sheet := range sheets {
		if err := w.AddSheet(sheet.name); err != nil {
			return err
		}
		if err := w.WriteHeader(columns); err != nil {
			return err
		}
		for _, a := range sheet.rows {
			row := []any{
				a.ID,
				a.Department.Name,
				a.Doctor.Name,
				a.Doctor.Specialization,
				a.StartTime.Format(slots.DayLayout),
				slots.Label(models.TimeSlot{StartTime: a.StartTime, EndTime: a.EndTime}),
				tr.T(i18n.StatusKey(a.EffectiveStatus(now))),
				a.CreatedAt.Format(time.RFC3339),
			}
			if err := w.WriteRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// GenerateFilename creates a filename like "appointments_2026-01-15.xlsx".
func GenerateFilename(t time.Time) string {
	return fmt.Sprintf("appointments_%s.xlsx", t.Format(slots.DayLayout))
}
