package motorbus

import (
	"errors"
	"fmt"
)

// Connection-state errors. The caller must connect (or reconnect) before
// retrying; no amount of retries fixes these.
var (
	ErrNotConnected     = errors.New("bus is not connected")
	ErrAlreadyConnected = errors.New("bus is already connected")
)

// RangeError reports a value that does not fit the requested byte width.
type RangeError struct {
	Value int64
	Width int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %d out of range for %d-byte encoding", e.Value, e.Width)
}

// UnsupportedWidthError reports a byte width other than 1, 2 or 4.
type UnsupportedWidthError struct {
	Width int
}

func (e *UnsupportedWidthError) Error() string {
	return fmt.Sprintf("unsupported byte width %d", e.Width)
}

// UnknownRegisterError reports a register name absent from a model's control
// table.
type UnknownRegisterError struct {
	Register string
	Model    string
}

func (e *UnknownRegisterError) Error() string {
	return fmt.Sprintf("unknown register %q for model %q", e.Register, e.Model)
}

// ControlTableMismatchError reports models whose control tables disagree on
// address or width for the same register. A group transaction across them is
// a configuration error, raised before any wire I/O.
type ControlTableMismatchError struct {
	Register string
	Models   []string
}

func (e *ControlTableMismatchError) Error() string {
	return fmt.Sprintf("register %q has inconsistent address/width across models %v", e.Register, e.Models)
}

// ConnectionError reports a transaction that kept failing after its retry
// budget was exhausted.
type ConnectionError struct {
	Port string
	IDs  []int
	Op   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s failed on port %s for ids %v: %v", e.Op, e.Port, e.IDs, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// JointOutOfRangeError reports a normalized position outside the accepted
// tolerance band. Value is the nominal percentage, not the raw tick.
type JointOutOfRangeError struct {
	Motor string
	Value float64
}

func (e *JointOutOfRangeError) Error() string {
	return fmt.Sprintf("joint %q position %.2f is outside the accepted range", e.Motor, e.Value)
}

// UncalibratedError reports a normalized access to a position register on a
// motor that has no calibration loaded.
type UncalibratedError struct {
	Motor    string
	Register string
}

func (e *UncalibratedError) Error() string {
	return fmt.Sprintf("motor %q has no calibration for register %q", e.Motor, e.Register)
}

// IDMismatchError reports a device that answered with an ID different from
// the one addressed. This indicates a hardware or firmware misconfiguration.
type IDMismatchError struct {
	Expected int
	Got      int
}

func (e *IDMismatchError) Error() string {
	return fmt.Sprintf("addressed device %d but device %d answered", e.Expected, e.Got)
}
