package api

import (
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProgramHandler serves the program catalog.
type ProgramHandler struct {
	programService service.ProgramService
	log            *logger.Logger
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService, log *logger.Logger) *ProgramHandler {
	return &ProgramHandler{programService: programService, log: log}
}

type ProgramWorkoutRequest struct {
	Name       string `json:"name" binding:"required"`
	WeekNumber int    `json:"weekNumber" binding:"required,min=1"`
	DayNumber  int    `json:"dayNumber" binding:"required,min=1,max=7"`
	Notes      string `json:"notes"`
}

type CreateProgramRequest struct {
	Name        string                  `json:"name" binding:"required"`
	Description string                  `json:"description"`
	Workouts    []ProgramWorkoutRequest `json:"workouts" binding:"required,min=1,dive"`
}

// CreateProgram godoc
// @Summary Create a program
// @Description Coach authors a program with its week/day workouts.
// @Tags Programs
// @Accept json
// @Produce json
// @Param program body CreateProgramRequest true "Program definition"
// @Success 201 {object} service.ProgramDetail
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden (not a coach)"
// @Router /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workouts := make([]service.ProgramWorkoutInput, len(req.Workouts))
	for i, w := range req.Workouts {
		workouts[i] = service.ProgramWorkoutInput{
			Name:       w.Name,
			WeekNumber: w.WeekNumber,
			DayNumber:  w.DayNumber,
			Notes:      w.Notes,
		}
	}

	detail, err := h.programService.CreateProgram(c.Request.Context(), coachID, req.Name, req.Description, workouts)
	if err != nil {
		respondWithError(c, h.log, err, "Failed to create program")
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// ListPrograms godoc
// @Summary List programs
// @Tags Programs
// @Produce json
// @Success 200 {array} domain.Program
// @Router /programs [get]
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programService.ListPrograms(c.Request.Context())
	if err != nil {
		respondWithError(c, h.log, err, "Failed to retrieve programs")
		return
	}
	c.JSON(http.StatusOK, programs)
}

// GetProgram godoc
// @Summary Get a program with its workouts
// @Tags Programs
// @Produce json
// @Param programId path string true "Program ID"
// @Success 200 {object} service.ProgramDetail
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{programId} [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	detail, err := h.programService.GetProgram(c.Request.Context(), programID)
	if err != nil {
		respondWithError(c, h.log, err, "Failed to retrieve program")
		return
	}
	c.JSON(http.StatusOK, detail)
}
