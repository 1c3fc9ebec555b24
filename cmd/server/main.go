package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tireservice/internal/api"
	"tireservice/internal/auth"
	"tireservice/internal/clock"
	"tireservice/internal/repository"
	"tireservice/internal/service"
)

func main() {
	godotenv.Load()

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to open DB", zap.Error(err))
	}
	if err := database.Ping(); err != nil {
		logger.Fatal("Failed to connect to DB", zap.Error(err))
	}

	clk := clock.System()

	pointRepo := repository.NewServicePointRepository(database)
	appointmentRepo := repository.NewAppointmentRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)
	jobRepo := repository.NewJobRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)

	availabilitySvc := service.NewAvailabilityService(pointRepo, appointmentRepo, clk, logger)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, availabilitySvc, clk, logger)
	adminSvc := service.NewAdminService(pointRepo, logger)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo)
	jobSvc := service.NewJobService(pointRepo, scheduleRepo, jobRepo, clk, logger)

	bookingHandler := api.NewBookingHandler(availabilitySvc, appointmentSvc, pointRepo, logger)
	adminHandler := api.NewAdminHandler(adminSvc, appointmentSvc, logger)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/service-points", bookingHandler.ListServicePoints).Methods("GET")
	r.HandleFunc("/api/service-points/{id}", bookingHandler.GetServicePoint).Methods("GET")
	r.HandleFunc("/api/service-points/{id}/available-days", bookingHandler.AvailableDays).Methods("GET")
	r.HandleFunc("/api/service-points/{id}/available-slots", bookingHandler.AvailableTimeSlots).Methods("GET")
	r.HandleFunc("/api/appointments", bookingHandler.CreateAppointment).Methods("POST")
	r.HandleFunc("/api/appointments/{code}", bookingHandler.GetAppointment).Methods("GET")
	r.HandleFunc("/api/appointments/{code}", bookingHandler.CancelAppointment).Methods("DELETE")
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/appointments", adminHandler.ListAppointments).Methods("GET")
	admin.HandleFunc("/appointments/{id}/status", adminHandler.UpdateAppointmentStatus).Methods("PATCH")
	admin.HandleFunc("/service-points", adminHandler.ListServicePoints).Methods("GET")
	admin.HandleFunc("/service-points", adminHandler.CreateServicePoint).Methods("POST")
	admin.HandleFunc("/service-points/{id}", adminHandler.UpdateServicePoint).Methods("PUT")
	admin.HandleFunc("/service-points/{id}", adminHandler.DeleteServicePoint).Methods("DELETE")
	admin.HandleFunc("/service-points/{id}/services", adminHandler.ListPointServices).Methods("GET")
	admin.HandleFunc("/service-points/{id}/services", adminHandler.ReplacePointServices).Methods("PUT")
	admin.HandleFunc("/admins", adminAuthHandler.CreateAdmin).Methods("POST")

	startJobs(jobSvc, logger)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(corsOrigins()),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("Server running", zap.String("port", port))
	logger.Fatal("server stopped", zap.Error(http.ListenAndServe(":"+port, corsHandler)))
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func corsOrigins() []string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return strings.Split(origins, ",")
	}
	return []string{"*"}
}

// startJobs wires the maintenance jobs: the slot horizon is rebuilt nightly,
// finished appointments are completed hourly, and unconfirmed pending
// bookings are purged every six hours.
func startJobs(jobs *service.JobService, logger *zap.Logger) {
	c := cron.New()

	schedule := func(spec, name string, run func(context.Context) error) {
		if _, err := c.AddFunc(spec, func() {
			if err := run(context.Background()); err != nil {
				logger.Error("cron job failed", zap.String("job", name), zap.Error(err))
			}
		}); err != nil {
			logger.Fatal("failed to schedule cron job", zap.String("job", name), zap.Error(err))
		}
	}

	schedule("0 3 * * *", "materialize_schedules", jobs.MaterializeSchedules)
	schedule("@hourly", "complete_past_appointments", jobs.CompletePastAppointments)
	schedule("@every 6h", "purge_stale_pending", jobs.PurgeStalePending)

	c.Start()
}
