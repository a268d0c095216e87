package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestWithContextAddsRequestFields(t *testing.T) {
	log, logs := observed()

	ctx := ContextWith(context.Background(), "requestId", "req-1")
	ctx = ContextWith(ctx, "userId", "u-1")
	log.WithContext(ctx).Info("Workout rescheduled", "workoutId", "w-1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	for key, want := range map[string]string{"requestId": "req-1", "userId": "u-1", "workoutId": "w-1"} {
		if got, _ := fields[key].(string); got != want {
			t.Errorf("field %s = %v, want %s", key, fields[key], want)
		}
	}
}

func TestWithContextWithoutFields(t *testing.T) {
	log, logs := observed()

	if got := log.WithContext(context.Background()); got != log {
		t.Error("WithContext() on a bare context should return the same logger")
	}
	log.WithContext(context.Background()).Warn("plain")
	if n := len(logs.All()[0].Context); n != 0 {
		t.Errorf("plain entry has %d fields, want 0", n)
	}
}

func TestContextWithDoesNotLeakIntoParent(t *testing.T) {
	parent := ContextWith(context.Background(), "requestId", "req-1")
	_ = ContextWith(parent, "userId", "u-1")
	if got := fieldsFrom(parent); len(got) != 2 {
		t.Errorf("parent fields = %v, want only requestId", got)
	}
}
