package motorbus

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeValue(t *testing.T) {
	tests := []struct {
		value int64
		width int
		want  []byte
	}{
		{0, 1, []byte{0x00}},
		{255, 1, []byte{0xFF}},
		{0x0518, 2, []byte{0x18, 0x05}},
		{65535, 2, []byte{0xFF, 0xFF}},
		{2048, 2, []byte{0x00, 0x08}},
		{0x12345678, 4, []byte{0x78, 0x56, 0x34, 0x12}},
		{4294967295, 4, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		data, err := encodeValue(tt.value, tt.width)
		if err != nil {
			t.Errorf("encodeValue(%d, %d) failed: %v", tt.value, tt.width, err)
			continue
		}
		if !bytes.Equal(data, tt.want) {
			t.Errorf("encodeValue(%d, %d): got %X, want %X", tt.value, tt.width, data, tt.want)
		}

		back, err := decodeValue(data)
		if err != nil {
			t.Errorf("decodeValue(%X) failed: %v", data, err)
			continue
		}
		if back != tt.value {
			t.Errorf("decodeValue(%X): got %d, want %d", data, back, tt.value)
		}
	}
}

func TestEncodeValueErrors(t *testing.T) {
	var widthErr *UnsupportedWidthError
	var rangeErr *RangeError

	if _, err := encodeValue(1, 3); !errors.As(err, &widthErr) {
		t.Errorf("width 3: got %v, want UnsupportedWidthError", err)
	}
	if _, err := encodeValue(1, 0); !errors.As(err, &widthErr) {
		t.Errorf("width 0: got %v, want UnsupportedWidthError", err)
	}
	if _, err := encodeValue(-1, 2); !errors.As(err, &rangeErr) {
		t.Errorf("negative value: got %v, want RangeError", err)
	}
	if _, err := encodeValue(256, 1); !errors.As(err, &rangeErr) {
		t.Errorf("overflow 1 byte: got %v, want RangeError", err)
	}
	if _, err := encodeValue(65536, 2); !errors.As(err, &rangeErr) {
		t.Errorf("overflow 2 bytes: got %v, want RangeError", err)
	}
}

func TestDecodeValueErrors(t *testing.T) {
	var widthErr *UnsupportedWidthError
	if _, err := decodeValue([]byte{1, 2, 3}); !errors.As(err, &widthErr) {
		t.Errorf("3 bytes: got %v, want UnsupportedWidthError", err)
	}
	if _, err := decodeValue(nil); !errors.As(err, &widthErr) {
		t.Errorf("empty: got %v, want UnsupportedWidthError", err)
	}
}

func TestSignMagnitude(t *testing.T) {
	tests := []struct {
		value int64
		wire  int64
	}{
		{0, 0},
		{1, 1},
		{2047, 2047},
		{-1, 2049},
		{-710, 2758},
		{-2005, 4053},
		{1625, 1625},
	}

	for _, tt := range tests {
		wire, err := EncodeSignMagnitude(tt.value, 11)
		if err != nil {
			t.Errorf("EncodeSignMagnitude(%d, 11) failed: %v", tt.value, err)
			continue
		}
		if wire != tt.wire {
			t.Errorf("EncodeSignMagnitude(%d, 11): got %d, want %d", tt.value, wire, tt.wire)
		}
		if back := DecodeSignMagnitude(wire, 11); back != tt.value {
			t.Errorf("DecodeSignMagnitude(%d, 11): got %d, want %d", wire, back, tt.value)
		}
	}
}

func TestSignMagnitudeOverflow(t *testing.T) {
	var rangeErr *RangeError
	if _, err := EncodeSignMagnitude(2048, 11); !errors.As(err, &rangeErr) {
		t.Errorf("magnitude 2048: got %v, want RangeError", err)
	}
	if _, err := EncodeSignMagnitude(-2048, 11); !errors.As(err, &rangeErr) {
		t.Errorf("magnitude -2048: got %v, want RangeError", err)
	}
}
