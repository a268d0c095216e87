package api

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/scheduling"
	"alcyxob/workout-scheduler/internal/service"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleHandler serves enrollment, preferences, the scheduled workout
// ledger and auto-reschedule.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
	log             *logger.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, log: log}
}

// --- Request Structs ---

// PreferencesRequest carries schedule preferences. Days use 0=Sunday ... 6=Saturday.
type PreferencesRequest struct {
	PreferredDays             []int           `json:"preferredDays" binding:"required"`
	PreferredTimeSlot         domain.TimeSlot `json:"preferredTimeSlot"`
	AutoRescheduleEnabled     *bool           `json:"autoRescheduleEnabled"`
	RescheduleWindowWeeks     *int            `json:"rescheduleWindowWeeks"`
	MinRestDays               int             `json:"minRestDays"`
	MaxConsecutiveWorkoutDays int             `json:"maxConsecutiveWorkoutDays"`
	PausedUntil               *calendar.Date  `json:"pausedUntil"`
}

func (r PreferencesRequest) toInput() service.PreferencesInput {
	return service.PreferencesInput{
		PreferredDays:             r.PreferredDays,
		PreferredTimeSlot:         r.PreferredTimeSlot,
		AutoRescheduleEnabled:     r.AutoRescheduleEnabled,
		RescheduleWindowWeeks:     r.RescheduleWindowWeeks,
		MinRestDays:               r.MinRestDays,
		MaxConsecutiveWorkoutDays: r.MaxConsecutiveWorkoutDays,
		PausedUntil:               r.PausedUntil,
	}
}

type EnrollRequest struct {
	StartDate calendar.Date `json:"startDate"` // Optional, defaults to today
	PreferencesRequest
}

type UpdateScheduledWorkoutRequest struct {
	Action     service.Action `json:"action" binding:"required,oneof=reschedule skip complete unschedule notes"`
	NewDate    calendar.Date  `json:"newDate"`
	Reason     string         `json:"reason"`
	SessionRef string         `json:"completedWorkoutSessionRef"`
	Notes      *string        `json:"notes"`
}

type AutoRescheduleRequest struct {
	Strategy   string   `json:"strategy"`
	WorkoutIDs []string `json:"workoutIds"`
}

// --- Enrollment & Placement ---

// Enroll godoc
// @Summary Enroll in a program and place its schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param programId path string true "Program ID"
// @Param enrollment body EnrollRequest true "Start date and preferences"
// @Success 201 {object} service.PlacementResult
// @Failure 400 {object} gin.H "Invalid preferences"
// @Failure 404 {object} gin.H "Program not found"
// @Failure 409 {object} gin.H "Date conflict"
// @Router /programs/{programId}/enroll [post]
func (h *ScheduleHandler) Enroll(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, err := h.scheduleService.EnrollAndPlace(c.Request.Context(), userID, programID, req.StartDate, req.toInput())
	if err != nil {
		respondWithError(c, h.log, err, "Failed to enroll in program")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// PlaceSchedule godoc
// @Summary Place the schedule of an existing enrollment
// @Tags Schedules
// @Accept json
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Param preferences body PreferencesRequest true "Schedule preferences"
// @Success 201 {object} service.PlacementResult
// @Failure 409 {object} gin.H "Schedule already placed"
// @Router /enrollments/{enrollmentId}/schedule [post]
func (h *ScheduleHandler) PlaceSchedule(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	enrollmentID, ok := pathObjectID(c, "enrollmentId")
	if !ok {
		return
	}
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, err := h.scheduleService.PlaceProgramSchedule(c.Request.Context(), userID, enrollmentID, req.toInput())
	if err != nil {
		respondWithError(c, h.log, err, "Failed to place schedule")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// --- Preferences ---

// ListSchedules godoc
// @Summary List the caller's schedules
// @Tags Schedules
// @Produce json
// @Success 200 {array} domain.SchedulePreference
// @Router /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	schedules, err := h.scheduleService.ListSchedules(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, h.log, err, "Failed to retrieve schedules")
		return
	}
	c.JSON(http.StatusOK, schedules)
}

// GetPreferences godoc
// @Summary Get schedule preferences
// @Tags Schedules
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 200 {object} domain.SchedulePreference
// @Failure 403 {object} gin.H "Not the owner"
// @Failure 404 {object} gin.H "Schedule not found"
// @Router /schedules/{scheduleId}/preferences [get]
func (h *ScheduleHandler) GetPreferences(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	scheduleID, ok := pathObjectID(c, "scheduleId")
	if !ok {
		return
	}
	pref, err := h.scheduleService.GetPreferences(c.Request.Context(), scheduleID, userID)
	if err != nil {
		respondWithError(c, h.log, err, "Failed to retrieve preferences")
		return
	}
	c.JSON(http.StatusOK, pref)
}

// UpdatePreferences godoc
// @Summary Replace schedule preferences
// @Description Existing scheduled workouts are not moved.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param preferences body PreferencesRequest true "Schedule preferences"
// @Success 200 {object} domain.SchedulePreference
// @Router /schedules/{scheduleId}/preferences [put]
func (h *ScheduleHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	scheduleID, ok := pathObjectID(c, "scheduleId")
	if !ok {
		return
	}
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	pref, err := h.scheduleService.UpdatePreferences(c.Request.Context(), scheduleID, userID, req.toInput())
	if err != nil {
		respondWithError(c, h.log, err, "Failed to update preferences")
		return
	}
	c.JSON(http.StatusOK, pref)
}

// --- Ledger ---

// ListScheduledWorkouts godoc
// @Summary List a schedule's workouts
// @Tags Scheduled Workouts
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date, inclusive (YYYY-MM-DD)"
// @Param status query string false "Comma separated statuses"
// @Success 200 {array} domain.ScheduledWorkout
// @Router /schedules/{scheduleId}/workouts [get]
func (h *ScheduleHandler) ListScheduledWorkouts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	scheduleID, ok := pathObjectID(c, "scheduleId")
	if !ok {
		return
	}

	var query service.WorkoutQuery
	var err error
	if query.From, err = queryDate(c, "from"); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if query.To, err = queryDate(c, "to"); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	for _, raw := range c.QueryArray("status") {
		for _, st := range strings.Split(raw, ",") {
			if st = strings.TrimSpace(st); st != "" {
				query.Statuses = append(query.Statuses, domain.ScheduledWorkoutStatus(st))
			}
		}
	}

	workouts, err := h.scheduleService.ListScheduledWorkouts(c.Request.Context(), scheduleID, userID, query)
	if err != nil {
		respondWithError(c, h.log, err, "Failed to retrieve scheduled workouts")
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// GetScheduledWorkout godoc
// @Summary Get a scheduled workout
// @Tags Scheduled Workouts
// @Produce json
// @Param id path string true "Scheduled workout ID"
// @Success 200 {object} domain.ScheduledWorkout
// @Router /scheduled-workouts/{id} [get]
func (h *ScheduleHandler) GetScheduledWorkout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	w, err := h.scheduleService.GetScheduledWorkout(c.Request.Context(), id, userID)
	if err != nil {
		respondWithError(c, h.log, err, "Failed to retrieve scheduled workout")
		return
	}
	c.JSON(http.StatusOK, w)
}

// UpdateScheduledWorkout godoc
// @Summary Apply an action to a scheduled workout
// @Description Actions: reschedule (newDate, reason), skip (reason), complete (completedWorkoutSessionRef), unschedule, notes (notes).
// @Tags Scheduled Workouts
// @Accept json
// @Produce json
// @Param id path string true "Scheduled workout ID"
// @Param update body UpdateScheduledWorkoutRequest true "Action"
// @Success 200 {object} domain.ScheduledWorkout
// @Failure 400 {object} gin.H "Invalid action or date"
// @Failure 409 {object} gin.H "Date conflict or transition not allowed"
// @Router /scheduled-workouts/{id} [patch]
func (h *ScheduleHandler) UpdateScheduledWorkout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateScheduledWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	w, err := h.scheduleService.UpdateScheduledWorkout(c.Request.Context(), id, userID, req.Action, service.UpdateParams{
		NewDate:    req.NewDate,
		Reason:     req.Reason,
		SessionRef: req.SessionRef,
		Notes:      req.Notes,
	})
	if err != nil {
		respondWithError(c, h.log, err, "Failed to update scheduled workout")
		return
	}
	c.JSON(http.StatusOK, w)
}

// DeleteScheduledWorkout godoc
// @Summary Delete a scheduled workout
// @Tags Scheduled Workouts
// @Param id path string true "Scheduled workout ID"
// @Success 204
// @Router /scheduled-workouts/{id} [delete]
func (h *ScheduleHandler) DeleteScheduledWorkout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.scheduleService.DeleteScheduledWorkout(c.Request.Context(), id, userID); err != nil {
		respondWithError(c, h.log, err, "Failed to delete scheduled workout")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Auto-reschedule ---

// AutoReschedule godoc
// @Summary Reschedule missed workouts
// @Description Runs across all of the caller's schedules, or one schedule when scheduleId is in the path.
// @Tags Scheduled Workouts
// @Accept json
// @Produce json
// @Param request body AutoRescheduleRequest false "Strategy and optional workout IDs"
// @Success 200 {object} service.AutoRescheduleResult
// @Router /auto-reschedule [post]
// @Router /schedules/{scheduleId}/auto-reschedule [post]
func (h *ScheduleHandler) AutoReschedule(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var filter service.RescheduleFilter
	if c.Param("scheduleId") != "" {
		if filter.ScheduleID, ok = pathObjectID(c, "scheduleId"); !ok {
			return
		}
	}

	var req AutoRescheduleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
			return
		}
	}
	for _, raw := range req.WorkoutIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid workout ID %q", raw))
			return
		}
		filter.WorkoutIDs = append(filter.WorkoutIDs, id)
	}

	result, err := h.scheduleService.AutoReschedule(c.Request.Context(), userID, filter, scheduling.Strategy(req.Strategy))
	if err != nil {
		respondWithError(c, h.log, err, "Failed to reschedule missed workouts")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportCalendar godoc
// @Summary Export a schedule as an iCalendar file
// @Tags Schedules
// @Produce json
// @Param scheduleId path string true "Schedule ID"
// @Success 201 {object} service.ExportResult
// @Failure 503 {object} gin.H "File storage disabled"
// @Router /schedules/{scheduleId}/export [post]
func (h *ScheduleHandler) ExportCalendar(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	scheduleID, ok := pathObjectID(c, "scheduleId")
	if !ok {
		return
	}
	result, err := h.scheduleService.ExportCalendar(c.Request.Context(), scheduleID, userID)
	if err != nil {
		respondWithError(c, h.log, err, "Failed to export calendar")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func queryDate(c *gin.Context, name string) (calendar.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.Parse(raw)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", name, raw)
	}
	return d, nil
}
