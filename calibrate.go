package motorbus

import (
	"context"
	"fmt"
	"math"
)

// Registers whose normalized form depends on calibration. Normalized access
// to these without a loaded calibration is an error.
var calibrationRequired = map[string]bool{
	"Goal_Position":    true,
	"Present_Position": true,
}

// SetCalibration loads per-motor calibration, keyed by motor name. Entries
// with a zero ID inherit the motor's registered ID.
func (b *Bus) SetCalibration(cal map[string]MotorCalibration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for name, c := range cal {
		if err := b.setCalibrationEntry(name, c); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) setCalibrationEntry(name string, cal MotorCalibration) error {
	m, ok := b.byName[name]
	if !ok {
		return fmt.Errorf("calibration for unknown motor %q", name)
	}
	if cal.ID == 0 {
		cal.ID = m.ID
	}
	if cal.ID != m.ID {
		return fmt.Errorf("calibration for %q has id %d but motor has id %d", name, cal.ID, m.ID)
	}
	if err := cal.Validate(); err != nil {
		return err
	}
	b.calibration[name] = cal
	return nil
}

// Calibration returns a copy of the loaded calibration map.
func (b *Bus) Calibration() map[string]MotorCalibration {
	b.mu.Lock()
	defer b.mu.Unlock()

	cal := make(map[string]MotorCalibration, len(b.calibration))
	for name, c := range b.calibration {
		cal[name] = c
	}
	return cal
}

func (b *Bus) resolution(m *Motor) int {
	spec, _ := b.family.Model(m.Model) // validated at construction
	return spec.Resolution
}

// normalizeLocked converts a raw tick into the motor's normalized unit.
func (b *Bus) normalizeLocked(m *Motor, register string, raw int) (float64, error) {
	cal, ok := b.calibration[m.Name]
	if !ok {
		return 0, &UncalibratedError{Motor: m.Name, Register: register}
	}

	switch m.NormMode {
	case Degrees:
		res := b.resolution(m)
		ticks := wrapHalf(raw-res/2-cal.HomingOffset, res)
		if cal.DriveMode == 1 {
			ticks = -ticks
		}
		return float64(ticks) * 360 / float64(res), nil

	case Range0To100:
		return b.linearPercent(m.Name, cal, raw)

	case RangeM100To100:
		pct, err := b.linearPercent(m.Name, cal, raw)
		if err != nil {
			return 0, err
		}
		return pct*2 - 100, nil

	default:
		return 0, fmt.Errorf("motor %q has unknown norm mode %v", m.Name, m.NormMode)
	}
}

// denormalizeLocked is the exact inverse of normalizeLocked, rounding to the
// nearest integer tick.
func (b *Bus) denormalizeLocked(m *Motor, register string, value float64) (int, error) {
	cal, ok := b.calibration[m.Name]
	if !ok {
		return 0, &UncalibratedError{Motor: m.Name, Register: register}
	}

	switch m.NormMode {
	case Degrees:
		res := b.resolution(m)
		ticks := value * float64(res) / 360
		if cal.DriveMode == 1 {
			ticks = -ticks
		}
		raw := int(math.Round(ticks)) + cal.HomingOffset + res/2
		return ((raw % res) + res) % res, nil

	case Range0To100:
		if err := checkPercent(m.Name, value); err != nil {
			return 0, err
		}
		return percentToTicks(cal, value), nil

	case RangeM100To100:
		pct := (value + 100) / 2
		if err := checkPercent(m.Name, pct); err != nil {
			return 0, err
		}
		return percentToTicks(cal, pct), nil

	default:
		return 0, fmt.Errorf("motor %q has unknown norm mode %v", m.Name, m.NormMode)
	}
}

// linearPercent rescales a raw tick from the recorded range onto [0, 100].
// The tolerance band absorbs calibration imprecision at the joint limits.
func (b *Bus) linearPercent(motor string, cal MotorCalibration, raw int) (float64, error) {
	pct := float64(raw-cal.RangeMin) * 100 / float64(cal.RangeMax-cal.RangeMin)
	if err := checkPercent(motor, pct); err != nil {
		return 0, err
	}
	return pct, nil
}

func checkPercent(motor string, pct float64) error {
	if pct < -10 || pct > 110 {
		return &JointOutOfRangeError{Motor: motor, Value: pct}
	}
	return nil
}

func percentToTicks(cal MotorCalibration, pct float64) int {
	return int(math.Round(pct/100*float64(cal.RangeMax-cal.RangeMin))) + cal.RangeMin
}

// wrapHalf wraps v into [-res/2, res/2-1].
func wrapHalf(v, res int) int {
	return (v%res+res+res/2)%res - res/2
}

// ResetCalibration zeroes every motor's homing offset, opens the position
// limits to full scale and resets the in-memory calibration to match.
func (b *Bus) ResetCalibration(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	return b.resetCalibrationLocked(ctx)
}

func (b *Bus) resetCalibrationLocked(ctx context.Context) error {
	for i := range b.motors {
		m := &b.motors[i]
		res := b.resolution(m)

		for _, rv := range calibrationRegisters(0, 0, res-1) {
			reg, err := b.family.Resolve(rv.register, m.Model)
			if err != nil {
				return err
			}
			if err := b.rawWrite(ctx, m.ID, reg, rv.value, b.numRetry, "reset calibration"); err != nil {
				return err
			}
		}

		b.calibration[m.Name] = MotorCalibration{ID: m.ID, RangeMin: 0, RangeMax: res - 1}
	}
	return nil
}

// calibrationRegisters lists the device registers backing a calibration
// entry, in the fixed order all calibration I/O uses.
func calibrationRegisters(offset, rangeMin, rangeMax int) []struct {
	register string
	value    int
} {
	return []struct {
		register string
		value    int
	}{
		{"Homing_Offset", offset},
		{"Min_Position_Limit", rangeMin},
		{"Max_Position_Limit", rangeMax},
	}
}

// IsCalibrated reports whether every motor's device registers agree with the
// loaded calibration.
func (b *Bus) IsCalibrated(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return false, err
	}

	for i := range b.motors {
		m := &b.motors[i]
		cal, ok := b.calibration[m.Name]
		if !ok {
			return false, nil
		}

		for _, rv := range calibrationRegisters(cal.HomingOffset, cal.RangeMin, cal.RangeMax) {
			reg, err := b.family.Resolve(rv.register, m.Model)
			if err != nil {
				return false, err
			}
			got, err := b.rawRead(ctx, m.ID, reg, b.numRetry, "read calibration")
			if err != nil {
				return false, err
			}
			if got != rv.value {
				return false, nil
			}
		}
	}
	return true, nil
}

// WriteCalibration loads the given calibration and writes it to the device
// registers.
func (b *Bus) WriteCalibration(ctx context.Context, cal map[string]MotorCalibration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	for name, c := range cal {
		if err := b.setCalibrationEntry(name, c); err != nil {
			return err
		}
	}

	for i := range b.motors {
		m := &b.motors[i]
		c, ok := b.calibration[m.Name]
		if !ok {
			continue
		}

		for _, rv := range calibrationRegisters(c.HomingOffset, c.RangeMin, c.RangeMax) {
			reg, err := b.family.Resolve(rv.register, m.Model)
			if err != nil {
				return err
			}
			if err := b.rawWrite(ctx, m.ID, reg, rv.value, b.numRetry, "write calibration"); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetHalfTurnHomings homes every motor to its current pose: the operator
// places each joint at its physical midpoint first, then the offset that
// maps the midpoint tick to the center of the encoder range is computed and
// written. Returns the offsets by motor name.
func (b *Bus) SetHalfTurnHomings(ctx context.Context) (map[string]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return nil, err
	}

	// Clear any previous offset so positions read back unshifted.
	if err := b.resetCalibrationLocked(ctx); err != nil {
		return nil, err
	}

	positions, err := b.syncReadRawLocked(ctx, "Present_Position", b.Motors())
	if err != nil {
		return nil, err
	}

	offsets := make(map[string]int, len(b.motors))
	for i := range b.motors {
		m := &b.motors[i]
		res := b.resolution(m)
		offset := positions[m.Name] - (res-1)/2

		reg, err := b.family.Resolve("Homing_Offset", m.Model)
		if err != nil {
			return nil, err
		}
		if err := b.rawWrite(ctx, m.ID, reg, offset, b.numRetry, "set homing"); err != nil {
			return nil, err
		}

		cal := b.calibration[m.Name]
		cal.HomingOffset = offset
		b.calibration[m.Name] = cal
		offsets[m.Name] = offset
	}
	return offsets, nil
}

// RecordRangesOfMotion samples positions while the operator moves each joint
// through its range, tracking running minima and maxima per motor. The loop
// runs until stop is closed or the context is canceled. Motors named in
// fullTurn spin continuously and are pinned to the full native tick range
// instead of being tracked.
//
// The result is not persisted; saving it is the caller's explicit follow-up.
func (b *Bus) RecordRangesOfMotion(ctx context.Context, motors, fullTurn []string, stop <-chan struct{}) (mins, maxes map[string]int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return nil, nil, err
	}
	names, err := b.selectNames(motors)
	if err != nil {
		return nil, nil, err
	}

	fullSet := make(map[string]bool, len(fullTurn))
	for _, name := range fullTurn {
		if _, ok := b.byName[name]; !ok {
			return nil, nil, fmt.Errorf("unknown motor %q", name)
		}
		fullSet[name] = true
	}

	tracked := make([]string, 0, len(names))
	for _, name := range names {
		if !fullSet[name] {
			tracked = append(tracked, name)
		}
	}

	mins = make(map[string]int, len(names))
	maxes = make(map[string]int, len(names))

sampling:
	for {
		select {
		case <-stop:
			break sampling
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		if len(tracked) == 0 {
			select {
			case <-stop:
				break sampling
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		positions, err := b.syncReadRawLocked(ctx, "Present_Position", tracked)
		if err != nil {
			return nil, nil, err
		}
		for name, pos := range positions {
			if cur, ok := mins[name]; !ok || pos < cur {
				mins[name] = pos
			}
			if cur, ok := maxes[name]; !ok || pos > cur {
				maxes[name] = pos
			}
		}
	}

	for _, name := range names {
		if fullSet[name] {
			res := b.resolution(b.byName[name])
			mins[name] = 0
			maxes[name] = res - 1
		}
	}
	return mins, maxes, nil
}
