package service

import (
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramWorkoutInput is one workout of a program being authored.
type ProgramWorkoutInput struct {
	Name       string
	WeekNumber int
	DayNumber  int
	Notes      string
}

// ProgramDetail is a program together with its workouts in program order.
type ProgramDetail struct {
	Program  *domain.Program         `json:"program"`
	Workouts []domain.ProgramWorkout `json:"workouts"`
}

// ProgramService is the program catalog: coaches author programs, everyone reads them.
type ProgramService interface {
	CreateProgram(ctx context.Context, coachID primitive.ObjectID, name, description string, workouts []ProgramWorkoutInput) (*ProgramDetail, error)
	ListPrograms(ctx context.Context) ([]domain.Program, error)
	GetProgram(ctx context.Context, programID primitive.ObjectID) (*ProgramDetail, error)
}

type programService struct {
	userRepo           repository.UserRepository
	programRepo        repository.ProgramRepository
	programWorkoutRepo repository.ProgramWorkoutRepository
	log                *logger.Logger
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	userRepo repository.UserRepository,
	programRepo repository.ProgramRepository,
	programWorkoutRepo repository.ProgramWorkoutRepository,
	log *logger.Logger,
) ProgramService {
	return &programService{
		userRepo:           userRepo,
		programRepo:        programRepo,
		programWorkoutRepo: programWorkoutRepo,
		log:                log.With("service", "ProgramService"),
	}
}

// CreateProgram stores a program and its workouts. Only coaches may author programs.
func (s *programService) CreateProgram(ctx context.Context, coachID primitive.ObjectID, name, description string, workouts []ProgramWorkoutInput) (*ProgramDetail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("program name is required")
	}
	if len(workouts) == 0 {
		return nil, validationError("a program needs at least one workout")
	}
	slots := make(map[[2]int]struct{}, len(workouts))
	for i, w := range workouts {
		if strings.TrimSpace(w.Name) == "" {
			return nil, validationError("workout %d: name is required", i+1)
		}
		if w.WeekNumber < 1 {
			return nil, validationError("workout %d: weekNumber must be at least 1", i+1)
		}
		if w.DayNumber < 1 || w.DayNumber > 7 {
			return nil, validationError("workout %d: dayNumber must be between 1 and 7", i+1)
		}
		key := [2]int{w.WeekNumber, w.DayNumber}
		if _, dup := slots[key]; dup {
			return nil, validationError("workout %d: week %d day %d is already used", i+1, w.WeekNumber, w.DayNumber)
		}
		slots[key] = struct{}{}
	}

	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if !coach.IsCoach() {
		return nil, ErrAccessDenied
	}

	program := &domain.Program{
		CoachID:     coachID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if _, err := s.programRepo.Create(ctx, program); err != nil {
		return nil, err
	}

	created := make([]domain.ProgramWorkout, 0, len(workouts))
	for _, w := range workouts {
		pw := domain.ProgramWorkout{
			ProgramID:  program.ID,
			Name:       strings.TrimSpace(w.Name),
			WeekNumber: w.WeekNumber,
			DayNumber:  w.DayNumber,
			Notes:      w.Notes,
		}
		if _, err := s.programWorkoutRepo.Create(ctx, &pw); err != nil {
			s.log.Error("Failed to store program workout", "programId", program.ID.Hex(), "error", err)
			return nil, err
		}
		created = append(created, pw)
	}
	domain.SortProgramWorkouts(created)

	s.log.Info("Program created", "programId", program.ID.Hex(), "coachId", coachID.Hex(), "workouts", len(created))
	return &ProgramDetail{Program: program, Workouts: created}, nil
}

// ListPrograms returns the whole catalog.
func (s *programService) ListPrograms(ctx context.Context) ([]domain.Program, error) {
	programs, err := s.programRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if programs == nil {
		programs = []domain.Program{}
	}
	return programs, nil
}

// GetProgram returns a program with its ordered workouts.
func (s *programService) GetProgram(ctx context.Context, programID primitive.ObjectID) (*ProgramDetail, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	workouts, err := s.programWorkoutRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []domain.ProgramWorkout{}
	}
	return &ProgramDetail{Program: program, Workouts: workouts}, nil
}
