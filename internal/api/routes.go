package api

import (
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	log *logger.Logger,
	authService service.AuthService,
	programService service.ProgramService,
	scheduleService service.ScheduleService,
) {
	authHandler := NewAuthHandler(authService, log)
	programHandler := NewProgramHandler(programService, log)
	scheduleHandler := NewScheduleHandler(scheduleService, log)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role, "today": scheduleService.Today()})
		})

		// --- Program Catalog ---
		programGroup := protected.Group("/programs")
		{
			// Only coaches author programs; everyone may browse and enroll.
			programGroup.POST("", RoleMiddleware(domain.RoleCoach), programHandler.CreateProgram)
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/:programId", programHandler.GetProgram)
			programGroup.POST("/:programId/enroll", scheduleHandler.Enroll)
		}

		protected.POST("/enrollments/:enrollmentId/schedule", scheduleHandler.PlaceSchedule)

		// --- Schedules ---
		scheduleGroup := protected.Group("/schedules")
		{
			scheduleGroup.GET("", scheduleHandler.ListSchedules)
			scheduleGroup.GET("/:scheduleId/preferences", scheduleHandler.GetPreferences)
			scheduleGroup.PUT("/:scheduleId/preferences", scheduleHandler.UpdatePreferences)
			scheduleGroup.GET("/:scheduleId/workouts", scheduleHandler.ListScheduledWorkouts)
			scheduleGroup.POST("/:scheduleId/auto-reschedule", scheduleHandler.AutoReschedule)
			scheduleGroup.POST("/:scheduleId/export", scheduleHandler.ExportCalendar)
		}
		protected.POST("/auto-reschedule", scheduleHandler.AutoReschedule)

		// --- Scheduled Workout Ledger ---
		workoutGroup := protected.Group("/scheduled-workouts")
		{
			workoutGroup.GET("/:id", scheduleHandler.GetScheduledWorkout)
			workoutGroup.PATCH("/:id", scheduleHandler.UpdateScheduledWorkout)
			workoutGroup.DELETE("/:id", scheduleHandler.DeleteScheduledWorkout)
		}
	}
}
