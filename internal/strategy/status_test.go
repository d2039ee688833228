package strategy

import (
	"strings"
	"testing"

	"github.com/kjannette/swing-trade-backend/internal/models"
)

func TestCheckPause(t *testing.T) {
	for _, st := range []models.Status{
		models.StatusIdle, models.StatusMonitoring,
		models.StatusInPosition, models.StatusGradualSelling, models.StatusError,
	} {
		if err := CheckPause(st); err != nil {
			t.Fatalf("pausing from %q should be allowed: %v", st, err)
		}
	}

	// A second pause is an explicit error, never a silent success.
	err := CheckPause(models.StatusPaused)
	if err == nil {
		t.Fatal("expected error when pausing an already-paused strategy")
	}
	if !strings.Contains(err.Error(), "already paused") {
		t.Fatalf("expected 'already paused' in error, got %q", err)
	}

	for _, st := range []models.Status{
		models.StatusCompleted, models.StatusStoppedOut, models.StatusExpired,
	} {
		if CheckPause(st) == nil {
			t.Fatalf("pausing from terminal %q should fail", st)
		}
	}
}

func TestResumeStatus_Paused(t *testing.T) {
	prior := models.StatusInPosition
	s := &models.Strategy{Status: models.StatusPaused, PriorStatus: &prior}
	got, err := ResumeStatus(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != models.StatusInPosition {
		t.Fatalf("expected return to in_position, got %q", got)
	}

	// Without a recorded prior the strategy falls back to monitoring.
	s = &models.Strategy{Status: models.StatusPaused}
	got, err = ResumeStatus(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != models.StatusMonitoring {
		t.Fatalf("expected monitoring fallback, got %q", got)
	}
}

func TestResumeStatus_Error(t *testing.T) {
	// In error with a live position: back to in_position.
	s := &models.Strategy{
		Status:   models.StatusError,
		Position: &models.Position{Quantity: 1.5},
	}
	got, err := ResumeStatus(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != models.StatusInPosition {
		t.Fatalf("expected in_position, got %q", got)
	}

	// A half-finished gradual schedule resumes gradual selling.
	lots := GenerateLots(true)
	lots[0].Executed = true
	s.Config.GradualLots = lots
	got, err = ResumeStatus(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != models.StatusGradualSelling {
		t.Fatalf("expected gradual_selling, got %q", got)
	}

	// No position: back to monitoring.
	s = &models.Strategy{Status: models.StatusError}
	got, err = ResumeStatus(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != models.StatusMonitoring {
		t.Fatalf("expected monitoring, got %q", got)
	}
}

func TestResumeStatus_Invalid(t *testing.T) {
	for _, st := range []models.Status{
		models.StatusCompleted, models.StatusStoppedOut, models.StatusExpired,
		models.StatusMonitoring,
	} {
		if _, err := ResumeStatus(&models.Strategy{Status: st}); err == nil {
			t.Fatalf("activating from %q should fail", st)
		}
	}
}
