package usecase

import (
	"context"
	"testing"
	"time"

	"telegram-ai-forge/internal/infra/state"
)

func TestDebugServiceToggle(t *testing.T) {
	svc := NewDebugService(state.NewMemoryStore(), time.Hour, newTestLogger())
	ctx := context.Background()

	if svc.IsDebug(ctx, "u1") {
		t.Error("debug must default to off")
	}
	if err := svc.SetDebug(ctx, "u1", true); err != nil {
		t.Fatalf("SetDebug on: %v", err)
	}
	if !svc.IsDebug(ctx, "u1") {
		t.Error("debug not enabled")
	}
	if svc.IsDebug(ctx, "u2") {
		t.Error("flags must be per user")
	}
	if err := svc.SetDebug(ctx, "u1", false); err != nil {
		t.Fatalf("SetDebug off: %v", err)
	}
	if svc.IsDebug(ctx, "u1") {
		t.Error("debug not disabled")
	}
}
