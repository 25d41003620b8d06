// Package transports provides the byte-level channel under the motor bus: a
// serial implementation backed by go.bug.st/serial and a scripted mock used
// by the engine tests.
package transports

import (
	"io"
	"time"
)

// Transport is the interface for low-level communication with the servo bus.
// This abstraction allows for testing with mock implementations.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout sets the read timeout duration.
	SetReadTimeout(timeout time.Duration) error

	// Flush discards any buffered input data.
	Flush() error
}

// BaudRateSetter is implemented by transports whose line speed can be changed
// after opening.
type BaudRateSetter interface {
	SetBaudRate(baud int) error
}
