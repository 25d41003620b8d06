package motorbus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NormMode selects the normalized unit a motor's position registers use.
type NormMode int

const (
	// Degrees maps raw ticks to degrees around the homed midpoint.
	Degrees NormMode = iota
	// Range0To100 maps the recorded range of motion onto [0, 100].
	Range0To100
	// RangeM100To100 maps the recorded range of motion onto [-100, 100].
	RangeM100To100
)

func (m NormMode) String() string {
	switch m {
	case Degrees:
		return "degrees"
	case Range0To100:
		return "range_0_100"
	case RangeM100To100:
		return "range_m100_100"
	default:
		return fmt.Sprintf("norm_mode(%d)", int(m))
	}
}

// Motor identifies one servo on the bus. Immutable once registered.
type Motor struct {
	Name     string
	ID       int
	Model    string
	NormMode NormMode
}

// MotorCalibration is the persisted transform between raw ticks and
// normalized units for one motor.
type MotorCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`
	HomingOffset int `json:"homing_offset"`
	RangeMin     int `json:"range_min"`
	RangeMax     int `json:"range_max"`
}

func (c MotorCalibration) Validate() error {
	if c.RangeMin >= c.RangeMax {
		return fmt.Errorf("invalid calibration range [%d, %d] for id %d", c.RangeMin, c.RangeMax, c.ID)
	}
	return nil
}

// LoadCalibrationFile reads a calibration map keyed by motor name.
func LoadCalibrationFile(path string) (map[string]MotorCalibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cal := make(map[string]MotorCalibration)
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parsing calibration file %s: %w", path, err)
	}

	for name, c := range cal {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("calibration entry %q: %w", name, err)
		}
	}
	return cal, nil
}

// SaveCalibrationFile writes the calibration map as indented JSON. The write
// goes through a temp file and rename so a crash never leaves a truncated
// calibration behind.
func SaveCalibrationFile(path string, cal map[string]MotorCalibration) error {
	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".calibration-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
