package main

import (
	"alcyxob/workout-scheduler/internal/api"
	"alcyxob/workout-scheduler/internal/config"
	"alcyxob/workout-scheduler/internal/jobs"
	"alcyxob/workout-scheduler/internal/lock"
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/repository"
	"alcyxob/workout-scheduler/internal/repository/memory"
	"alcyxob/workout-scheduler/internal/repository/mongo"
	"alcyxob/workout-scheduler/internal/scheduling"
	"alcyxob/workout-scheduler/internal/service"
	"alcyxob/workout-scheduler/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title Workout Scheduler API
// @version 1.0
// @description Places training programs onto a calendar, tracks scheduled workouts and repairs missed ones.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer appLog.Sync()
	appLog.Info("Starting Workout Scheduler Server...", "databaseDriver", cfg.Database.Driver, "lockDriver", cfg.Lock.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Repositories ---
	var scheduleRepos service.ScheduleRepositories
	var userRepo repository.UserRepository
	switch cfg.Database.Driver {
	case "memory":
		appLog.Warn("Using in-memory repositories; data is lost on restart")
		userRepo = memory.NewUserRepository()
		scheduleRepos = service.ScheduleRepositories{
			Programs:        memory.NewProgramRepository(),
			ProgramWorkouts: memory.NewProgramWorkoutRepository(),
			Enrollments:     memory.NewEnrollmentRepository(),
			Schedules:       memory.NewScheduleRepository(),
			Workouts:        memory.NewScheduledWorkoutRepository(),
		}
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			appLog.Fatal("Could not connect to MongoDB", "error", err)
		}
		defer func() {
			appLog.Info("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				appLog.Error("Failed to disconnect MongoDB", "error", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)

		// Unique (scheduleId, scheduledDate) backs the date-conflict guarantee, so it must exist before serving.
		idxCtx, cancel := context.WithTimeout(ctx, time.Minute)
		err = mongo.EnsureIndexes(idxCtx, appDB)
		cancel()
		if err != nil {
			appLog.Fatal("Could not ensure database indexes", "error", err)
		}

		userRepo = mongo.NewMongoUserRepository(appDB)
		scheduleRepos = service.ScheduleRepositories{
			Programs:        mongo.NewMongoProgramRepository(appDB),
			ProgramWorkouts: mongo.NewMongoProgramWorkoutRepository(appDB),
			Enrollments:     mongo.NewMongoEnrollmentRepository(appDB),
			Schedules:       mongo.NewMongoScheduleRepository(appDB),
			Workouts:        mongo.NewMongoScheduledWorkoutRepository(appDB),
		}
		appLog.Info("Database connection established", "database", cfg.Database.Name)
	}

	// --- Schedule Lock ---
	var locker lock.Locker = lock.NewLocal()
	if cfg.Lock.Driver == "redis" {
		rdb, err := lock.DialRedis(ctx, cfg.Lock.RedisAddr, cfg.Lock.RedisPassword, cfg.Lock.RedisDB)
		if err != nil {
			appLog.Fatal("Could not connect to Redis", "addr", cfg.Lock.RedisAddr, "error", err)
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.Lock.TTL, appLog)
	}

	// --- File Storage (calendar export) ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, appLog)
		if err != nil {
			appLog.Fatal("Failed to initialize S3 storage", "error", err)
		}
	} else {
		appLog.Info("S3 disabled; calendar export unavailable")
	}

	// --- Services ---
	loc, _ := cfg.Scheduler.Location() // checked by config.Validate
	strategy, _ := scheduling.ParseStrategy(cfg.Scheduler.DefaultStrategy)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	programService := service.NewProgramService(userRepo, scheduleRepos.Programs, scheduleRepos.ProgramWorkouts, appLog)
	scheduleService := service.NewScheduleService(scheduleRepos, locker, fileStorage, appLog, service.ScheduleOptions{
		Location:                 loc,
		DefaultWindowWeeks:       cfg.Scheduler.DefaultWindowWeeks,
		DefaultStrategy:          strategy,
		ClearSkipOnComplete:      cfg.Scheduler.ClearSkipOnComplete,
		AutoRescheduleAfterSweep: cfg.Scheduler.AutoRescheduleAfterSweep,
		SweepWorkers:             cfg.Scheduler.SweepWorkers,
		PresignExpiry:            cfg.S3.PresignExpiry,
	})

	// --- Missed Workout Sweep ---
	if cfg.Scheduler.SweepEnabled {
		sweep, err := jobs.NewMissedSweep(scheduleService, cfg.Scheduler.SweepCron, loc, appLog)
		if err != nil {
			appLog.Fatal("Invalid sweep schedule", "error", err)
		}
		if err := sweep.Start(ctx); err != nil {
			appLog.Fatal("Could not start missed-workout sweep", "error", err)
		}
		defer sweep.Stop()
	}

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(appLog))
	api.SetupRoutes(router, cfg.JWT.Secret, appLog, authService, programService, scheduleService)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		appLog.Info("Server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("ListenAndServe error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		appLog.Error("Server forced to shutdown", "error", err)
	}
	appLog.Info("Server exiting.")
}
