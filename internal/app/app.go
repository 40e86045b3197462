// Package app owns process startup: configuration, wiring, and the
// serve/migrate/healthcheck subcommands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/graceworks/shelterops/internal/attendance"
	"github.com/graceworks/shelterops/internal/audit"
	"github.com/graceworks/shelterops/internal/config"
	"github.com/graceworks/shelterops/internal/database"
	"github.com/graceworks/shelterops/internal/handler"
	"github.com/graceworks/shelterops/internal/leave"
	"github.com/graceworks/shelterops/internal/logger"
	"github.com/graceworks/shelterops/internal/metrics"
	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/notify"
	"github.com/graceworks/shelterops/internal/repository"
	"github.com/graceworks/shelterops/internal/resident"
	"github.com/graceworks/shelterops/internal/security"
	"github.com/graceworks/shelterops/internal/staff"
	"github.com/graceworks/shelterops/internal/transport"
	"github.com/graceworks/shelterops/internal/worker/cleanup"
)

// Init sets up JSON structured logging and loads the Config from the
// environment. When w is non-nil, logs go to that writer.
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run is the application entry point. It parses the subcommand from
// args (os.Args[1:]) and dispatches to the corresponding mode.
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck skips full initialization; it only needs the port.
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe opens the database, wires every dependency, and runs the
// HTTP server until SIGINT or SIGTERM, then shuts down gracefully.
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// Repositories.
	staffUserRepo := repository.NewPostgresStaffUserRepo(db)
	staffSessionRepo := repository.NewPostgresStaffSessionRepo(db)
	residentRepo := repository.NewPostgresResidentRepo(db)
	residentSessionRepo := repository.NewPostgresResidentSessionRepo(db)
	attendanceRepo := repository.NewPostgresAttendanceEventRepo(db)
	leaveRepo := repository.NewPostgresLeaveRepo(db)
	transportRepo := repository.NewPostgresTransportRepo(db)
	auditRepo := repository.NewPostgresAuditRepo(db)

	// Cross-cutting pieces.
	sanitizer := security.NewTextSanitizer()
	auditRec := audit.NewRecorder(auditRepo)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	sms := notify.NewInstrumentedSender(
		notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber),
		collector.RecordSMSOutcome,
	)

	staffSessionMaxAge := time.Duration(cfg.SessionMaxAge) * time.Second
	residentSessionMaxAge := time.Duration(cfg.ResidentSessionMaxAge) * time.Second

	// Domain services.
	staffService := staff.NewService(staffUserRepo, staffSessionRepo, auditRec, cfg.Shelters, staffSessionMaxAge)
	residentService := resident.NewService(residentRepo, residentSessionRepo, sanitizer, auditRec, cfg.Shelters, residentSessionMaxAge)
	attendanceService := attendance.NewService(residentRepo, attendanceRepo, sanitizer, auditRec)
	leaveService := leave.NewService(leaveRepo, sanitizer, sms, auditRec)
	transportService := transport.NewService(transportRepo, sanitizer, auditRec)

	// Rate limits come from config in requests per minute.
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		StaffSessions:     staffSessionRepo,
		StaffUsers:        staffUserRepo,
		ResidentSessions:  residentSessionRepo,
		Residents:         residentRepo,
		RateLimiter:       rateLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger: slog.Default(),

		StaffAuth:         staffService,
		AdminUsers:        staffService,
		Leave:             leaveService,
		Transport:         transportService,
		Attendance:        attendanceService,
		ResidentDirectory: residentService,
		Portal:            residentService,
		KioskResidents:    residentService,

		DB:             db,
		MetricsHandler: metrics.Handler(registry),
		Metrics:        collector,

		Cookies: handler.CookieConfig{
			Secure:         cfg.CookieSecure,
			Domain:         cfg.CookieDomain,
			StaffMaxAge:    staffSessionMaxAge,
			ResidentMaxAge: residentSessionMaxAge,
		},
	}

	router := handler.NewRouter(deps)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Expired-session sweeper runs inside the server process.
	sweeperCtx, cancelSweeper := context.WithCancel(context.Background())
	defer cancelSweeper()
	sweeper := cleanup.NewSweeper(staffSessionRepo, residentSessionRepo, slog.Default(), cfg.SessionSweepInterval)
	go sweeper.Start(sweeperCtx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancelSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate applies all pending migrations, then creates the bootstrap
// admin account when ADMIN_USERNAME/ADMIN_PASSWORD are set and no admin
// exists yet.
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	staffUserRepo := repository.NewPostgresStaffUserRepo(db)
	staffSessionRepo := repository.NewPostgresStaffSessionRepo(db)
	auditRepo := repository.NewPostgresAuditRepo(db)
	staffService := staff.NewService(staffUserRepo, staffSessionRepo, audit.NewRecorder(auditRepo), cfg.Shelters,
		time.Duration(cfg.SessionMaxAge)*time.Second)

	if err := staffService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	return nil
}

// runHealthcheck probes the local /health endpoint. It exists so the
// distroless container can health-check itself without a shell.
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL hides credentials in log output.
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
