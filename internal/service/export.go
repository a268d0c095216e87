package service

import (
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/repository"
	"alcyxob/workout-scheduler/internal/storage"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const icsContentType = "text/calendar; charset=utf-8"

// ExportResult points at an uploaded iCalendar file.
type ExportResult struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Events      int       `json:"events"`
}

// ExportCalendar renders the schedule's scheduled and completed workouts as an
// .ics file, uploads it and returns a presigned download URL.
func (s *scheduleService) ExportCalendar(ctx context.Context, scheduleID, userID primitive.ObjectID) (*ExportResult, error) {
	if s.files == nil {
		return nil, storage.ErrStorageDisabled
	}
	pref, err := s.loadOwnedSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{
		ScheduleID: scheduleID,
		Statuses:   []domain.ScheduledWorkoutStatus{domain.StatusScheduled, domain.StatusCompleted},
	})
	if err != nil {
		return nil, err
	}

	body := renderICS(pref, workouts, s.now())
	key := fmt.Sprintf("exports/%s/%s/%s.ics", userID.Hex(), scheduleID.Hex(), uuid.NewString())
	if err := s.files.PutObject(ctx, key, icsContentType, body); err != nil {
		return nil, err
	}

	expiry := s.opts.PresignExpiry
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, key, expiry)
	if err != nil {
		return nil, err
	}

	s.log.Info("Calendar exported", "scheduleId", scheduleID.Hex(), "key", key, "events", len(workouts))
	return &ExportResult{
		ObjectKey:   key,
		DownloadURL: url,
		ExpiresAt:   s.now().Add(expiry),
		Events:      len(workouts),
	}, nil
}

// renderICS writes an RFC 5545 calendar with one all-day event per workout.
func renderICS(pref *domain.SchedulePreference, workouts []domain.ScheduledWorkout, stamp time.Time) []byte {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//workout-scheduler//schedule export//EN")
	line("CALSCALE:GREGORIAN")
	line("X-WR-CALNAME:" + escapeICSText("Workout schedule "+pref.ID.Hex()))
	dtstamp := stamp.UTC().Format("20060102T150405Z")
	for _, w := range workouts {
		start := w.ScheduledDate
		line("BEGIN:VEVENT")
		line("UID:" + w.ID.Hex() + "@workout-scheduler")
		line("DTSTAMP:" + dtstamp)
		line("DTSTART;VALUE=DATE:" + start.Time().Format("20060102"))
		line("DTEND;VALUE=DATE:" + start.AddDays(1).Time().Format("20060102"))
		line("SUMMARY:" + escapeICSText(w.WorkoutName))
		desc := fmt.Sprintf("Week %d, day %d (%s)", w.WeekNumber, w.DayNumber, w.Status)
		if w.Notes != "" {
			desc += "\n" + w.Notes
		}
		line("DESCRIPTION:" + escapeICSText(desc))
		if pref.PreferredTimeSlot != "" {
			line("CATEGORIES:" + escapeICSText(string(pref.PreferredTimeSlot)))
		}
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return []byte(b.String())
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, "\r\n", `\n`, "\n", `\n`)

func escapeICSText(s string) string {
	return icsEscaper.Replace(s)
}
