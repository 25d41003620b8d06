package transports

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSession_CloseIdempotent(t *testing.T) {
	mock := NewMockTransport()
	s := NewSession(mock, "/dev/ttyUSB0", 1000000, 0)

	if s.Closed() {
		t.Error("new session reports closed")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if !s.Closed() {
		t.Error("session not marked closed")
	}
}

func TestSession_Defaults(t *testing.T) {
	s := NewSession(NewMockTransport(), "/dev/ttyUSB0", 1000000, 0)

	if s.Timeout() != DefaultTimeout {
		t.Errorf("timeout: got %v, want %v", s.Timeout(), DefaultTimeout)
	}
	if s.Port() != "/dev/ttyUSB0" {
		t.Errorf("port: got %q", s.Port())
	}
	if s.BaudRate() != 1000000 {
		t.Errorf("baud: got %d", s.BaudRate())
	}
}

func TestSession_SetBaudRate(t *testing.T) {
	// MockTransport does not implement BaudRateSetter.
	s := NewSession(NewMockTransport(), "/dev/ttyUSB0", 1000000, 0)

	err := s.SetBaudRate(115200)
	if err == nil {
		t.Fatal("expected error for transport without baud control")
	}

	var baudErr *BaudRateError
	if !errors.As(err, &baudErr) {
		t.Fatalf("expected BaudRateError, got %T", err)
	}
	if baudErr.Baud != 115200 {
		t.Errorf("baud in error: got %d", baudErr.Baud)
	}
	if s.BaudRate() != 1000000 {
		t.Error("baud rate changed despite error")
	}
}

func TestSession_WritePacket(t *testing.T) {
	mock := NewMockTransport()
	s := NewSession(mock, "/dev/ttyUSB0", 1000000, 0)

	packet := []byte{0xFF, 0xFF, 0x01, 0x02, 0x01, 0xFB}
	if err := s.WritePacket(packet); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}
	if len(mock.Writes) != 1 {
		t.Fatalf("writes: got %d, want 1", len(mock.Writes))
	}
}

func TestSession_ReadBytes(t *testing.T) {
	mock := NewMockTransport()
	s := NewSession(mock, "/dev/ttyUSB0", 1000000, 50*time.Millisecond)

	mock.QueueRead([]byte{0xFF, 0xFF, 0x01, 0x02, 0x00, 0xFC})

	data, err := s.ReadBytes(context.Background(), 6)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if len(data) != 6 {
		t.Errorf("length: got %d, want 6", len(data))
	}
}

func TestSession_ReadBytesNoResponse(t *testing.T) {
	mock := NewMockTransport()
	s := NewSession(mock, "/dev/ttyUSB0", 1000000, 20*time.Millisecond)

	_, err := s.ReadBytes(context.Background(), 6)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

func TestSession_ReadBytesPartialTimeout(t *testing.T) {
	mock := NewMockTransport()
	s := NewSession(mock, "/dev/ttyUSB0", 1000000, 20*time.Millisecond)

	mock.QueueRead([]byte{0xFF, 0xFF, 0x01})

	_, err := s.ReadBytes(context.Background(), 6)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSession_ReadBytesContextCanceled(t *testing.T) {
	mock := NewMockTransport()
	s := NewSession(mock, "/dev/ttyUSB0", 1000000, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ReadBytes(ctx, 6)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
