package transports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common transport failure modes.
var (
	ErrTimeout    = errors.New("communication timeout")
	ErrNoResponse = errors.New("no response from device")
)

// PortOpenError reports a serial device node that could not be opened.
type PortOpenError struct {
	Port string
	Err  error
}

func (e *PortOpenError) Error() string {
	return fmt.Sprintf("failed to open port %s: %v", e.Port, e.Err)
}

func (e *PortOpenError) Unwrap() error { return e.Err }

// BaudRateError reports a baud rate the adapter rejected or could not
// confirm.
type BaudRateError struct {
	Port string
	Baud int
	Err  error
}

func (e *BaudRateError) Error() string {
	return fmt.Sprintf("failed to set baud rate %d on port %s: %v", e.Baud, e.Port, e.Err)
}

func (e *BaudRateError) Unwrap() error { return e.Err }

// Session owns one open transport together with its line configuration. A
// session is created open and cannot be reopened after Close; reconnecting
// means opening a fresh session.
type Session struct {
	tr      Transport
	port    string
	baud    int
	timeout time.Duration
	closed  bool
}

// DefaultTimeout bounds every low-level exchange on the session.
const DefaultTimeout = time.Second

// Open opens the serial device node at port and wraps it in a session.
func Open(port string, baud int, timeout time.Duration) (*Session, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	tr, err := openSerial(port, baud, timeout)
	if err != nil {
		return nil, &PortOpenError{Port: port, Err: err}
	}

	return &Session{tr: tr, port: port, baud: baud, timeout: timeout}, nil
}

// NewSession wraps an already-open transport. Used by tests and by callers
// that manage the port themselves.
func NewSession(tr Transport, port string, baud int, timeout time.Duration) *Session {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Session{tr: tr, port: port, baud: baud, timeout: timeout}
}

// Close releases the transport. Closing an already-closed session is a no-op
// so that destructor-style cleanup paths can call it unconditionally.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.tr.Close()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// Port returns the port identifier the session was opened with.
func (s *Session) Port() string { return s.port }

// BaudRate returns the configured line speed.
func (s *Session) BaudRate() int { return s.baud }

// Timeout returns the per-exchange timeout.
func (s *Session) Timeout() time.Duration { return s.timeout }

// SetBaudRate reconfigures the line speed, verifying the transport accepted
// the change.
func (s *Session) SetBaudRate(baud int) error {
	setter, ok := s.tr.(BaudRateSetter)
	if !ok {
		return &BaudRateError{Port: s.port, Baud: baud, Err: errors.New("transport does not support baud rate changes")}
	}
	if err := setter.SetBaudRate(baud); err != nil {
		return &BaudRateError{Port: s.port, Baud: baud, Err: err}
	}
	s.baud = baud
	return nil
}

// Flush discards stale input buffered on the transport.
func (s *Session) Flush() error { return s.tr.Flush() }

// WritePacket flushes stale input and writes one complete packet.
func (s *Session) WritePacket(p []byte) error {
	s.tr.Flush()

	n, err := s.tr.Write(p)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf("incomplete write: %d of %d bytes", n, len(p))
	}
	return nil
}

// ReadBytes reads exactly expectedLen bytes, bounded by the session timeout
// and the context.
func (s *Session) ReadBytes(ctx context.Context, expectedLen int) ([]byte, error) {
	buffer := make([]byte, expectedLen*2) // extra space for stray bytes
	totalRead := 0
	deadline := time.Now().Add(s.timeout)

	for totalRead < expectedLen {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			if totalRead == 0 {
				return nil, ErrNoResponse
			}
			return nil, fmt.Errorf("%w: read %d of %d expected bytes", ErrTimeout, totalRead, expectedLen)
		}

		remaining := max(time.Until(deadline), 10*time.Millisecond)
		s.tr.SetReadTimeout(remaining)

		n, err := s.tr.Read(buffer[totalRead:])
		if err != nil {
			if n == 0 {
				time.Sleep(time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("read error: %w", err)
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}

		totalRead += n
	}

	return buffer[:totalRead], nil
}
