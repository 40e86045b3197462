package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
)

// RouterDeps bundles everything NewRouter needs.
type RouterDeps struct {
	// Middleware dependencies.
	StaffSessions     middleware.StaffSessionFinder
	StaffUsers        middleware.StaffUserFinder
	ResidentSessions  middleware.ResidentSessionFinder
	Residents         middleware.ResidentFinder
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig
	Logger            *slog.Logger

	// Services.
	StaffAuth         StaffAuthService
	AdminUsers        AdminUserService
	Leave             LeaveService
	Transport         TransportService
	Attendance        AttendanceService
	ResidentDirectory ResidentDirectoryService
	Portal            PortalService
	KioskResidents    KioskResidentService

	// Operational endpoints.
	DB             Pinger
	MetricsHandler http.Handler
	Metrics        MetricsRecorder

	Cookies CookieConfig
}

// MetricsRecorder is the slice of the metrics collector the handlers
// feed domain counters into.
type MetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordLeaveDecision(decision string)
	RecordAttendanceEvent(eventType string)
	RecordStaffLoginFailure()
	RecordResidentCodeFailure()
}

// NewRouter wires the full middleware chain and every API route.
//
// Middleware order, outermost first:
//
//	CORS → SecurityHeaders → Logging → Recovery → Metrics
//
// then per group: session resolution → rate limiting → CSRF.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics.RecordHTTPStatus))

	staffAuthHandler := NewStaffAuthHandler(deps.StaffAuth, deps.Cookies, deps.Metrics.RecordStaffLoginFailure)
	adminHandler := NewAdminHandler(deps.AdminUsers)
	leaveHandler := NewLeaveHandler(deps.Leave, deps.Metrics.RecordLeaveDecision)
	transportHandler := NewTransportHandler(deps.Transport)
	attendanceHandler := NewAttendanceHandler(deps.Attendance, deps.Metrics.RecordAttendanceEvent)
	residentHandler := NewResidentHandler(deps.ResidentDirectory)
	portalHandler := NewPortalHandler(deps.Portal, deps.ResidentSessions, deps.Cookies, deps.Metrics.RecordResidentCodeFailure)
	kioskHandler := NewKioskHandler(deps.KioskResidents, deps.Attendance, deps.Metrics.RecordAttendanceEvent, deps.Metrics.RecordResidentCodeFailure)

	// --- Unauthenticated routes ---

	r.Get("/health", NewHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

	// Login endpoints carry credentials, so they get the strict
	// per-IP limit instead of a session gate.
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.LoginMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Post("/api/staff/login", staffAuthHandler.Login)
		r.Post("/api/resident/login", portalHandler.Login)
		r.Post("/api/kiosk/attendance", kioskHandler.RecordAttendance)
	})

	// --- Staff routes ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewStaffSessionMiddleware(deps.StaffSessions, deps.StaffUsers))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Post("/api/staff/logout", staffAuthHandler.Logout)
		r.Get("/api/staff/me", staffAuthHandler.Me)
		r.Put("/api/staff/shelter", staffAuthHandler.SelectShelter)

		// Account management is admin-only and not shelter-scoped.
		r.Route("/api/staff/admin/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.StaffRole.CanManageUsers))

			r.Get("/", adminHandler.ListUsers)
			r.Post("/", adminHandler.CreateUser)
			r.Delete("/{username}", adminHandler.DeleteUser)
		})

		// Everything below acts on one shelter's data.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireShelter)

			r.Route("/api/staff/leave", func(r chi.Router) {
				r.Get("/pending", leaveHandler.Pending)
				r.Get("/away-now", leaveHandler.AwayNow)
				r.Get("/overdue", leaveHandler.Overdue)

				r.Route("/{id}", func(r chi.Router) {
					r.Post("/approve", leaveHandler.Approve)
					r.Post("/deny", leaveHandler.Deny)
					r.Post("/check-in", leaveHandler.CheckIn)
				})
			})

			r.Route("/api/staff/transport", func(r chi.Router) {
				r.Get("/pending", transportHandler.Pending)
				r.Get("/board", transportHandler.Board)

				r.Route("/{id}", func(r chi.Router) {
					r.Post("/schedule", transportHandler.Schedule)
					r.Post("/complete", transportHandler.Complete)
					r.Post("/cancel", transportHandler.Cancel)
				})
			})

			r.Route("/api/staff/attendance", func(r chi.Router) {
				r.Get("/", attendanceHandler.Board)
				r.Get("/export", attendanceHandler.Export)

				r.Route("/{id}", func(r chi.Router) {
					r.Post("/check-in", attendanceHandler.CheckIn)
					r.Post("/check-out", attendanceHandler.CheckOut)
				})
			})

			r.Route("/api/staff/residents", func(r chi.Router) {
				r.Get("/", residentHandler.List)
				r.Get("/{id}/trips", attendanceHandler.TripHistory)

				// Directory writes need the resident-management role.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(model.StaffRole.CanManageResidents))

					r.Post("/", residentHandler.Create)
					r.Post("/{id}/set-active", residentHandler.SetActive)
				})
			})
		})
	})

	// --- Resident portal routes ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewResidentSessionMiddleware(deps.ResidentSessions, deps.Residents))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Post("/api/resident/logout", portalHandler.Logout)
		r.Get("/api/resident/me", portalHandler.Me)
		r.Post("/api/resident/sms-consent", portalHandler.SetSMSConsent)
		r.Post("/api/resident/leave", leaveHandler.Submit)
		r.Post("/api/resident/transport", transportHandler.Submit)
	})

	return r
}
