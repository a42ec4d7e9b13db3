// Package i18n resolves typed message keys against per-language tables.
package i18n

import (
	"golang.org/x/text/language"

	"medbook/internal/models"
)

// Key identifies a user-facing message.
type Key string

const (
	MedicalCenter           Key = "medical.center"
	NavHome                 Key = "nav.home"
	NavAppointments         Key = "nav.appointments"
	NavHelp                 Key = "nav.help"
	Available               Key = "available"
	NoSlots                 Key = "no.slots"
	NoSlotsMessage          Key = "no.slots.message"
	NoSlotsDate             Key = "no.slots.date"
	SelectedDoctor          Key = "selected.doctor"
	ChooseSlot              Key = "choose.slot"
	StepDepartment          Key = "step.department"
	StepDoctor              Key = "step.doctor"
	StepTimeSlot            Key = "step.time_slot"
	StepConfirm             Key = "step.confirm"
	StatusScheduled         Key = "status.scheduled"
	StatusCompleted         Key = "status.completed"
	StatusCancelled         Key = "status.cancelled"
	BookingConfirmed        Key = "notification.booking_confirmed"
	AppointmentCancel       Key = "notification.appointment_cancelled"
	AppointmentMoved        Key = "notification.appointment_rescheduled"
	ExportSheetUpcoming     Key = "export.sheet.upcoming"
	ExportSheetHistory      Key = "export.sheet.history"
	ExportColID             Key = "export.column.id"
	ExportColDepartment     Key = "export.column.department"
	ExportColDoctor         Key = "export.column.doctor"
	ExportColSpecialization Key = "export.column.specialization"
	ExportColDate           Key = "export.column.date"
	ExportColTime           Key = "export.column.time"
	ExportColStatus         Key = "export.column.status"
	ExportColCreated        Key = "export.column.created"
	ErrValidation           Key = "error.validation"
	ErrNotFound             Key = "error.not_found"
	ErrDepartmentNotFound   Key = "error.department_not_found"
	ErrDoctorNotFound       Key = "error.doctor_not_found"
	ErrAppointmentNotFound  Key = "error.appointment_not_found"
	ErrPersistence          Key = "error.persistence"
	ErrInternal             Key = "error.internal"
	ErrBadRequest           Key = "error.bad_request"
	ErrBodyTooLarge         Key = "error.body_too_large"
	ErrTooManyRequests      Key = "error.too_many_requests"
	ErrSessionNotFound      Key = "error.session_not_found"
)

var (
	English    = language.English
	Vietnamese = language.Vietnamese

	supported = []language.Tag{English, Vietnamese}
	matcher   = language.NewMatcher(supported)
)

var tables = map[language.Tag]map[Key]string{
	English: {
		MedicalCenter:           "Medical Center",
		NavHome:                 "Home",
		NavAppointments:         "My Appointments",
		NavHelp:                 "Help",
		Available:               "Available",
		NoSlots:                 "No Available Time Slots",
		NoSlotsMessage:          "There are currently no available time slots for this doctor. Please try selecting a different doctor or check back later.",
		NoSlotsDate:             "No available time slots for this date",
		SelectedDoctor:          "Selected Doctor",
		ChooseSlot:              "Choose Time Slot",
		StepDepartment:          "Select Department",
		StepDoctor:              "Select Doctor",
		StepTimeSlot:            "Select Time",
		StepConfirm:             "Confirm Appointment",
		StatusScheduled:         "Scheduled",
		StatusCompleted:         "Completed",
		StatusCancelled:         "Cancelled",
		BookingConfirmed:        "Your appointment has been booked",
		AppointmentCancel:       "Your appointment has been cancelled",
		AppointmentMoved:        "Your appointment has been rescheduled",
		ExportSheetUpcoming:     "Scheduled",
		ExportSheetHistory:      "History",
		ExportColID:             "ID",
		ExportColDepartment:     "Department",
		ExportColDoctor:         "Doctor",
		ExportColSpecialization: "Specialization",
		ExportColDate:           "Date",
		ExportColTime:           "Time",
		ExportColStatus:         "Status",
		ExportColCreated:        "Created",
		ErrValidation:           "Please complete the required selection",
		ErrNotFound:             "Not found",
		ErrDepartmentNotFound:   "Department not found",
		ErrDoctorNotFound:       "Doctor not found",
		ErrAppointmentNotFound:  "Appointment not found",
		ErrPersistence:          "Could not save your changes, please try again",
		ErrInternal:             "Something went wrong",
		ErrBadRequest:           "Invalid request",
		ErrBodyTooLarge:         "Request is too large",
		ErrTooManyRequests:      "Too many requests, please slow down",
		ErrSessionNotFound:      "Booking session expired, please start again",
	},
	Vietnamese: {
		MedicalCenter:           "Trung Tâm Y Tế",
		NavHome:                 "Trang Chủ",
		NavAppointments:         "Lịch Hẹn",
		NavHelp:                 "Trợ Giúp",
		Available:               "Còn Trống",
		NoSlots:                 "Không Có Lịch Trống",
		NoSlotsMessage:          "Hiện tại không có lịch trống cho bác sĩ này. Vui lòng chọn bác sĩ khác hoặc quay lại sau.",
		NoSlotsDate:             "Không có lịch trống cho ngày này",
		SelectedDoctor:          "Bác Sĩ Đã Chọn",
		ChooseSlot:              "Chọn Thời Gian",
		StepDepartment:          "Chọn Khoa",
		StepDoctor:              "Chọn Bác Sĩ",
		StepTimeSlot:            "Chọn Giờ",
		StepConfirm:             "Xác Nhận Lịch Hẹn",
		StatusScheduled:         "Đã Đặt",
		StatusCompleted:         "Đã Hoàn Thành",
		StatusCancelled:         "Đã Hủy",
		BookingConfirmed:        "Lịch hẹn của bạn đã được đặt",
		AppointmentCancel:       "Lịch hẹn của bạn đã bị hủy",
		AppointmentMoved:        "Lịch hẹn của bạn đã được dời",
		ExportSheetUpcoming:     "Đã Đặt",
		ExportSheetHistory:      "Lịch Sử",
		ExportColID:             "Mã",
		ExportColDepartment:     "Khoa",
		ExportColDoctor:         "Bác Sĩ",
		ExportColSpecialization: "Chuyên Khoa",
		ExportColDate:           "Ngày",
		ExportColTime:           "Giờ",
		ExportColStatus:         "Trạng Thái",
		ExportColCreated:        "Ngày Tạo",
		ErrValidation:           "Vui lòng hoàn tất lựa chọn bắt buộc",
		ErrNotFound:             "Không tìm thấy",
		ErrDepartmentNotFound:   "Không tìm thấy khoa",
		ErrDoctorNotFound:       "Không tìm thấy bác sĩ",
		ErrAppointmentNotFound:  "Không tìm thấy lịch hẹn",
		ErrPersistence:          "Không thể lưu thay đổi, vui lòng thử lại",
		ErrInternal:             "Đã xảy ra lỗi",
		ErrBadRequest:           "Yêu cầu không hợp lệ",
		ErrBodyTooLarge:         "Yêu cầu quá lớn",
		ErrTooManyRequests:      "Quá nhiều yêu cầu, vui lòng thử lại sau",
		ErrSessionNotFound:      "Phiên đặt lịch đã hết hạn, vui lòng bắt đầu lại",
	},
}

// Translator resolves keys for one language.
type Translator struct {
	tag   language.Tag
	table map[Key]string
}

// For returns the translator for tag, falling back to English.
func For(tag language.Tag) Translator {
	_, idx, _ := matcher.Match(tag)
	t := supported[idx]
	return Translator{tag: t, table: tables[t]}
}

// Negotiate picks a supported language from a ?lang value and an
// Accept-Language header, in that order, defaulting to fallback.
func Negotiate(query, acceptLanguage string, fallback language.Tag) Translator {
	if query != "" {
		if tag, err := language.Parse(query); err == nil {
			return For(tag)
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return For(supported[idx])
			}
		}
	}
	return For(fallback)
}

// Language returns the resolved language tag.
func (t Translator) Language() language.Tag {
	return t.tag
}

// T returns the message for key, or the key itself when it has no translation.
func (t Translator) T(key Key) string {
	if msg, ok := t.table[key]; ok {
		return msg
	}
	return string(key)
}

// StatusKey maps an appointment status to its message key.
func StatusKey(s models.Status) Key {
	switch s {
	case models.StatusScheduled:
		return StatusScheduled
	case models.StatusCompleted:
		return StatusCompleted
	case models.StatusCancelled:
		return StatusCancelled
	}
	return Key("status." + string(s))
}

// StepKey maps a wizard step number to its title key.
func StepKey(step int) Key {
	switch step {
	case 1:
		return StepDepartment
	case 2:
		return StepDoctor
	case 3:
		return StepTimeSlot
	case 4:
		return StepConfirm
	}
	return Key("step.unknown")
}
