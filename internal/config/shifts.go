package config

import (
	"fmt"
	"os"
	"time"

	"attendance.agent/internal/core/model"
	"gopkg.in/yaml.v3"
)

// defaultShifts covers the standard three-rotation site schedule. A site
// with different rotations ships its own shifts file.
var defaultShifts = []model.ShiftDefinition{
	{ID: "morning", Label: "Morning", ScheduledStart: "08:00"},
	{ID: "evening", Label: "Evening", ScheduledStart: "16:00"},
	{ID: "night", Label: "Night", ScheduledStart: "00:00"},
}

type shiftsFile struct {
	Shifts []model.ShiftDefinition `yaml:"shifts"`
}

// LoadShifts reads shift definitions from a YAML file, falling back to the
// built-in defaults when path is empty.
func LoadShifts(path string) ([]model.ShiftDefinition, error) {
	if path == "" {
		return defaultShifts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading shifts file: %w", err)
	}

	var parsed shiftsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing shifts file: %w", err)
	}
	if len(parsed.Shifts) == 0 {
		return nil, fmt.Errorf("shifts file %s defines no shifts", path)
	}

	// Reject malformed start times up front rather than at assessment time.
	for _, s := range parsed.Shifts {
		if _, err := s.StartOn(time.Now()); err != nil {
			return nil, err
		}
	}

	return parsed.Shifts, nil
}
