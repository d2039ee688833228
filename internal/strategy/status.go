package strategy

import (
	"fmt"

	"github.com/kjannette/swing-trade-backend/internal/models"
)

// CheckPause validates a pause request against the current status.
// Pausing an already-paused strategy is an explicit error, never a silent
// success, and terminal strategies cannot be paused at all.
func CheckPause(status models.Status) error {
	if status == models.StatusPaused {
		return fmt.Errorf("strategy is already paused")
	}
	if status.IsTerminal() {
		return fmt.Errorf("cannot pause a strategy in terminal status %q", status)
	}
	return nil
}

// ResumeStatus decides where an activate call lands.
// A paused strategy returns to the status it held before the pause. A
// strategy in error returns to in_position when it still holds a position,
// otherwise to monitoring.
func ResumeStatus(s *models.Strategy) (models.Status, error) {
	switch s.Status {
	case models.StatusPaused:
		if s.PriorStatus != nil && s.PriorStatus.IsValid() {
			return *s.PriorStatus, nil
		}
		return models.StatusMonitoring, nil
	case models.StatusError:
		if s.Position != nil && s.Position.Quantity > 0 {
			if GradualInProgress(s.Config.GradualLots) {
				return models.StatusGradualSelling, nil
			}
			return models.StatusInPosition, nil
		}
		return models.StatusMonitoring, nil
	default:
		if s.Status.IsTerminal() {
			return "", fmt.Errorf("cannot activate a strategy in terminal status %q", s.Status)
		}
		return "", fmt.Errorf("strategy is not paused (status %q)", s.Status)
	}
}

// GradualInProgress reports whether the gradual schedule is underway: at
// least one lot executed and at least one still pending.
func GradualInProgress(lots []models.GradualLot) bool {
	executed := 0
	for _, l := range lots {
		if l.Executed {
			executed++
		}
	}
	return executed > 0 && executed < len(lots)
}
