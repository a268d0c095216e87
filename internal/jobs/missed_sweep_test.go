package jobs

import (
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/service"
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) SweepMissed(ctx context.Context) (*service.SweepResult, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sweep context has no deadline")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &service.SweepResult{Marked: 3}, nil
}

func TestNewMissedSweep_Spec(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"15 0 * * *", false},
		{"@daily", false},
		{"*/5 * * * *", false},
		{"0 0 0 * * *", true}, // seconds field is not accepted
		{"tomorrow", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.spec, func(t *testing.T) {
			_, err := NewMissedSweep(&fakeSweeper{}, tt.spec, time.UTC, logger.Nop())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMissedSweep(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestMissedSweep_RunOnce(t *testing.T) {
	sweeper := &fakeSweeper{}
	job, err := NewMissedSweep(sweeper, "@daily", nil, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	sweeper.err = errors.New("store down")
	if err := job.RunOnce(context.Background()); !errors.Is(err, sweeper.err) {
		t.Errorf("RunOnce() error = %v, want store error", err)
	}
	if sweeper.calls != 2 {
		t.Errorf("calls = %d, want 2", sweeper.calls)
	}
}

func TestMissedSweep_StartStop(t *testing.T) {
	job, err := NewMissedSweep(&fakeSweeper{}, "@daily", time.UTC, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := job.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	job.Stop()
	job.Stop()
}
