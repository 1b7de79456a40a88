package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	statutoryService "github.com/cmlabs-hris/hris-payroll-go/internal/service/statutory"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.App.RunMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	brackets, err := statutoryService.Load(cfg.Payroll.BracketsFile)
	if err != nil {
		return fmt.Errorf("load statutory brackets: %w", err)
	}
	for _, set := range brackets.List() {
		slog.Info("Statutory bracket set loaded", "version", set.Version, "effective_from", set.EffectiveFrom.Format("2006-01-02"))
	}

	hub := sse.NewHub()

	payrollRepo := postgresql.NewPayrollRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)

	overtimeSvc := attendanceService.NewAttendanceService(attendanceRepo, attendanceService.Policy{
		WeeklyThreshold: cfg.Overtime.WeeklyThreshold,
		SecondThreshold: cfg.Overtime.SecondThreshold,
		NightStart:      cfg.Overtime.NightStart,
		NightEnd:        cfg.Overtime.NightEnd,
	})
	m := cfg.Payroll.Multipliers
	payrollSvc := payrollService.NewPayrollService(payrollRepo, employeeRepo, overtimeSvc, brackets, hub, payrollService.Options{
		Workers: cfg.Payroll.Workers,
		Multipliers: payrollService.Multipliers{
			Hours41To46:  m.Hours41To46,
			HoursAbove46: m.HoursAbove46,
			Saturday:     m.Saturday,
			Sunday:       m.Sunday,
			Night:        m.Night,
			Holiday:      m.Holiday,
		},
	})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc, brackets, JWTService)
	attendanceHandler := appHTTP.NewAttendanceHandler(overtimeSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		payrollHandler,
		attendanceHandler,
	)

	scheduler := cron.NewScheduler(logger)
	if cfg.Cron.Enabled {
		cron.NewPayrollJobs(payrollRepo, hub, cfg.Payroll.StaleCalculationAfter).
			RegisterJobs(scheduler, cfg.Cron.StaleRunInterval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "workers", cfg.Payroll.Workers)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
