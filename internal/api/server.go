// Package api exposes the booking core over a JSON HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"medbook/internal/appointments"
	"medbook/internal/booking"
	"medbook/internal/catalog"
	"medbook/internal/i18n"
	"medbook/internal/metrics"
)

// Deps are the collaborators of the API server.
type Deps struct {
	Catalog  *catalog.Catalog
	Store    *appointments.Store
	Booking  *booking.Service
	Sessions *booking.SessionStore
	Logger   zerolog.Logger

	// DefaultLanguage is used when the request names no supported language.
	DefaultLanguage language.Tag

	// RateLimit disables limiting when RequestsPerSecond is zero.
	RequestsPerSecond float64
	Burst             int
}

// Server serves the booking API.
type Server struct {
	catalog     *catalog.Catalog
	store       *appointments.Store
	booking     *booking.Service
	sessions    *booking.SessionStore
	logger      zerolog.Logger
	defaultLang language.Tag
	limiter     *RateLimiter
}

// NewServer creates an API server.
func NewServer(deps Deps) *Server {
	lang := deps.DefaultLanguage
	if lang == language.Und {
		lang = i18n.English
	}
	var limiter *RateLimiter
	if deps.RequestsPerSecond > 0 {
		limiter = NewRateLimiter(deps.RequestsPerSecond, deps.Burst)
	}
	return &Server{
		catalog:     deps.Catalog,
		store:       deps.Store,
		booking:     deps.Booking,
		sessions:    deps.Sessions,
		logger:      deps.Logger.With().Str("component", "api").Logger(),
		defaultLang: lang,
		limiter:     limiter,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.limiter != nil {
		r.Use(s.rateLimit(s.limiter))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/departments", s.handleDepartments)
		r.Get("/departments/{id}/doctors", s.handleDepartmentDoctors)
		r.Get("/doctors/{id}/slots", s.handleDoctorSlots)
		r.Get("/doctors/{id}/availability", s.handleDoctorAvailability)

		r.Post("/wizard", s.handleWizardCreate)
		r.Route("/wizard/{sid}", func(r chi.Router) {
			r.Get("/", s.handleWizardGet)
			r.Post("/department", s.handleWizardDepartment)
			r.Post("/doctor", s.handleWizardDoctor)
			r.Post("/slot", s.handleWizardSlot)
			r.Post("/advance", s.handleWizardAdvance)
			r.Post("/retreat", s.handleWizardRetreat)
			r.Post("/submit", s.handleWizardSubmit)
		})

		r.Get("/appointments", s.handleAppointments)
		r.Get("/appointments/export", s.handleAppointmentsExport)
		r.Get("/appointments/{id}", s.handleAppointment)
		r.Post("/appointments/{id}/cancel", s.handleAppointmentCancel)
		r.Get("/appointments/{id}/reschedule-options", s.handleRescheduleOptions)
		r.Post("/appointments/{id}/reschedule", s.handleReschedule)
	})

	return r
}

// StartCleanup drops expired wizard sessions and idle rate-limit entries every
// interval until ctx is done.
func (s *Server) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.sessions.Cleanup()
				if s.limiter != nil {
					s.limiter.Cleanup(10 * time.Minute)
				}
				if removed > 0 {
					s.logger.Debug().Int("sessions", removed).Msg("expired sessions removed")
				}
			}
		}
	}()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTPRequest(route, ww.Status())

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) translator(r *http.Request) i18n.Translator {
	return i18n.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), s.defaultLang)
}
