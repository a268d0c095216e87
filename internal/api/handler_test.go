package api

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/lock"
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/repository/memory"
	"alcyxob/workout-scheduler/internal/service"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

// newTestServer wires the real services over in-memory stores. Today is Monday 2025-03-03.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := calendar.MustParse("2025-03-03").Time().Add(12 * time.Hour)
	users := memory.NewUserRepository()
	programs := memory.NewProgramRepository()
	programWorkouts := memory.NewProgramWorkoutRepository()

	log := logger.Nop()
	authService := service.NewAuthService(users, testSecret, time.Hour)
	programService := service.NewProgramService(users, programs, programWorkouts, log)
	scheduleService := service.NewScheduleService(service.ScheduleRepositories{
		Programs:        programs,
		ProgramWorkouts: programWorkouts,
		Enrollments:     memory.NewEnrollmentRepository(),
		Schedules:       memory.NewScheduleRepository(),
		Workouts:        memory.NewScheduledWorkoutRepository(),
	}, lock.NewLocal(), nil, log, service.ScheduleOptions{
		ClearSkipOnComplete: true,
		Now:                 func() time.Time { return now },
	})

	router := gin.New()
	router.Use(RequestLogger(log))
	SetupRoutes(router, testSecret, log, authService, programService, scheduleService)
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		s.t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// signUp registers and logs in a user, returning the token.
func (s *testServer) signUp(email, role string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "User", "email": email, "password": "password123", "role": role,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "password123"})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var resp LoginResponse
	s.decode(w, &resp)
	return resp.Token
}

type placementBody struct {
	Schedule struct {
		ID string `json:"id"`
	} `json:"schedule"`
	Workouts []workoutBody `json:"workouts"`
}

type workoutBody struct {
	ID            string `json:"id"`
	ScheduledDate string `json:"scheduledDate"`
	Status        string `json:"status"`
	WorkoutName   string `json:"workoutName"`
}

// enrolledAthlete creates a three-workout program and enrolls an athlete on Mon/Wed/Fri.
func enrolledAthlete(t *testing.T, s *testServer) (token string, placed placementBody) {
	t.Helper()
	coach := s.signUp("coach@example.com", "coach")
	w := s.do(http.MethodPost, "/api/v1/programs", coach, gin.H{
		"name": "Strength 101",
		"workouts": []gin.H{
			{"name": "Squat", "weekNumber": 1, "dayNumber": 1},
			{"name": "Bench", "weekNumber": 1, "dayNumber": 2},
			{"name": "Deadlift", "weekNumber": 1, "dayNumber": 3},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create program: %d %s", w.Code, w.Body.String())
	}
	var detail struct {
		Program struct {
			ID string `json:"id"`
		} `json:"program"`
	}
	s.decode(w, &detail)

	token = s.signUp("athlete@example.com", "")
	w = s.do(http.MethodPost, "/api/v1/programs/"+detail.Program.ID+"/enroll", token, gin.H{
		"startDate":     "2025-03-03",
		"preferredDays": []int{1, 3, 5},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("enroll: %d %s", w.Code, w.Body.String())
	}
	s.decode(w, &placed)
	return token, placed
}

func TestEnrollPlacesOnPreferredDays(t *testing.T) {
	s := newTestServer(t)
	_, placed := enrolledAthlete(t, s)

	want := []string{"2025-03-03", "2025-03-05", "2025-03-07"}
	if len(placed.Workouts) != len(want) {
		t.Fatalf("got %d workouts, want %d", len(placed.Workouts), len(want))
	}
	for i, w := range placed.Workouts {
		if w.ScheduledDate != want[i] || w.Status != "scheduled" {
			t.Errorf("workout %d = %s/%s, want %s/scheduled", i, w.ScheduledDate, w.Status, want[i])
		}
	}
}

func TestAuthAndRoleChecks(t *testing.T) {
	s := newTestServer(t)
	athlete := s.signUp("a@example.com", "athlete")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"missing token", http.MethodGet, "/api/v1/schedules", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/schedules", "nope", nil, http.StatusUnauthorized},
		{"athlete cannot author", http.MethodPost, "/api/v1/programs", athlete, gin.H{
			"name": "X", "workouts": []gin.H{{"name": "A", "weekNumber": 1, "dayNumber": 1}},
		}, http.StatusForbidden},
		{"bad role", http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"name": "B", "email": "b@example.com", "password": "password123", "role": "trainer",
		}, http.StatusBadRequest},
		{"duplicate email", http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"name": "A", "email": "a@example.com", "password": "password123",
		}, http.StatusConflict},
		{"wrong password", http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"email": "a@example.com", "password": "wrongpassword",
		}, http.StatusUnauthorized},
		{"empty schedule list", http.MethodGet, "/api/v1/schedules", athlete, nil, http.StatusOK},
		{"malformed id", http.MethodGet, "/api/v1/scheduled-workouts/xyz", athlete, nil, http.StatusBadRequest},
		{"unknown program", http.MethodGet, "/api/v1/programs/5f1d7f3e2c1b4a0012345678", athlete, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestScheduledWorkoutActions(t *testing.T) {
	s := newTestServer(t)
	token, placed := enrolledAthlete(t, s)
	first := placed.Workouts[0].ID
	path := "/api/v1/scheduled-workouts/" + first

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"unknown action", gin.H{"action": "teleport"}, http.StatusBadRequest},
		{"reschedule onto sibling", gin.H{"action": "reschedule", "newDate": "2025-03-05"}, http.StatusConflict},
		{"reschedule into past", gin.H{"action": "reschedule", "newDate": "2025-03-01"}, http.StatusBadRequest},
		{"reschedule to free day", gin.H{"action": "reschedule", "newDate": "2025-03-04", "reason": "travel"}, http.StatusOK},
		{"complete", gin.H{"action": "complete", "completedWorkoutSessionRef": "session-1"}, http.StatusOK},
		{"skip after complete", gin.H{"action": "skip"}, http.StatusConflict},
	}
	for _, tt := range tests {
		w := s.do(http.MethodPatch, path, token, tt.body)
		if w.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d (%s)", tt.name, w.Code, tt.want, w.Body.String())
		}
	}

	w := s.do(http.MethodGet, path, token, nil)
	var got workoutBody
	s.decode(w, &got)
	if got.Status != "completed" || got.ScheduledDate != "2025-03-04" {
		t.Errorf("final row = %+v", got)
	}

	w = s.do(http.MethodGet, "/api/v1/schedules/"+placed.Schedule.ID+"/workouts?status=scheduled&from=2025-03-05", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var rows []workoutBody
	s.decode(w, &rows)
	if len(rows) != 2 {
		t.Errorf("listed %d scheduled rows, want 2", len(rows))
	}

	if w := s.do(http.MethodGet, "/api/v1/schedules/"+placed.Schedule.ID+"/workouts?to=03-05-2025", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date query: status = %d, want 400", w.Code)
	}
	if w := s.do(http.MethodDelete, "/api/v1/scheduled-workouts/"+placed.Workouts[2].ID, token, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/scheduled-workouts/"+placed.Workouts[2].ID, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted: status = %d, want 404", w.Code)
	}
}

func TestScheduleOwnership(t *testing.T) {
	s := newTestServer(t)
	_, placed := enrolledAthlete(t, s)
	intruder := s.signUp("intruder@example.com", "athlete")

	paths := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/v1/schedules/" + placed.Schedule.ID + "/preferences", nil},
		{http.MethodPut, "/api/v1/schedules/" + placed.Schedule.ID + "/preferences", gin.H{"preferredDays": []int{2}}},
		{http.MethodGet, "/api/v1/schedules/" + placed.Schedule.ID + "/workouts", nil},
		{http.MethodGet, "/api/v1/scheduled-workouts/" + placed.Workouts[0].ID, nil},
		{http.MethodPatch, "/api/v1/scheduled-workouts/" + placed.Workouts[0].ID, gin.H{"action": "skip"}},
		{http.MethodPost, "/api/v1/schedules/" + placed.Schedule.ID + "/auto-reschedule", nil},
	}
	for _, p := range paths {
		if w := s.do(p.method, p.path, intruder, p.body); w.Code != http.StatusForbidden {
			t.Errorf("%s %s: status = %d, want 403", p.method, p.path, w.Code)
		}
	}
}

func TestPreferencesAndAutoReschedule(t *testing.T) {
	s := newTestServer(t)
	token, placed := enrolledAthlete(t, s)
	prefsPath := "/api/v1/schedules/" + placed.Schedule.ID + "/preferences"

	w := s.do(http.MethodPut, prefsPath, token, gin.H{"preferredDays": []int{9}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid day: status = %d, want 400", w.Code)
	}

	w = s.do(http.MethodPut, prefsPath, token, gin.H{
		"preferredDays":         []int{6, 2, 2},
		"preferredTimeSlot":     "morning",
		"rescheduleWindowWeeks": 3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update prefs: %d %s", w.Code, w.Body.String())
	}
	var pref struct {
		PreferredDays         []int `json:"preferredDays"`
		RescheduleWindowWeeks int   `json:"rescheduleWindowWeeks"`
	}
	s.decode(w, &pref)
	if len(pref.PreferredDays) != 2 || pref.PreferredDays[0] != 2 || pref.PreferredDays[1] != 6 || pref.RescheduleWindowWeeks != 3 {
		t.Errorf("stored prefs = %+v", pref)
	}

	// Nothing is missed yet, so the batch is empty.
	w = s.do(http.MethodPost, "/api/v1/auto-reschedule", token, gin.H{"strategy": "spread_evenly"})
	if w.Code != http.StatusOK {
		t.Fatalf("auto-reschedule: %d %s", w.Code, w.Body.String())
	}
	var result service.AutoRescheduleResult
	s.decode(w, &result)
	if result.Strategy != "spread_evenly" || result.RescheduledCount != 0 {
		t.Errorf("result = %+v", result)
	}

	if w := s.do(http.MethodPost, "/api/v1/auto-reschedule", token, gin.H{"strategy": "someday"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown strategy: status = %d, want 400", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/v1/schedules/"+placed.Schedule.ID+"/export", token, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("export without storage: status = %d, want 503", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/ping", "", nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("response has no generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "trace-42" {
		t.Errorf("request id = %q, want the caller's trace-42", got)
	}
}
