package motorbus

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lerobot-go/motorbus/protocol"
	"github.com/lerobot-go/motorbus/transports"
)

func calibrationBus(t *testing.T, mode NormMode, cal MotorCalibration) *Bus {
	t.Helper()

	b, err := NewBus(BusConfig{
		Family:    FeetechSTS(),
		Motors:    []Motor{{Name: "joint", ID: 1, Model: "sts3215", NormMode: mode}},
		Transport: transports.NewMockTransport(),
	})
	if err != nil {
		t.Fatalf("NewBus failed: %v", err)
	}
	if err := b.SetCalibration(map[string]MotorCalibration{"joint": cal}); err != nil {
		t.Fatalf("SetCalibration failed: %v", err)
	}
	return b
}

func TestDegreeRoundTrip(t *testing.T) {
	for _, driveMode := range []int{0, 1} {
		b := calibrationBus(t, Degrees, MotorCalibration{
			DriveMode:    driveMode,
			HomingOffset: -710,
			RangeMin:     0,
			RangeMax:     4095,
		})
		m := b.byName["joint"]

		for raw := 0; raw < 4096; raw += 13 {
			deg, err := b.normalizeLocked(m, "Present_Position", raw)
			if err != nil {
				t.Fatalf("normalize(%d) failed: %v", raw, err)
			}
			if deg < -180 || deg > 180 {
				t.Fatalf("normalize(%d): %v degrees outside [-180, 180]", raw, deg)
			}
			back, err := b.denormalizeLocked(m, "Goal_Position", deg)
			if err != nil {
				t.Fatalf("denormalize(%v) failed: %v", deg, err)
			}
			if back != raw {
				t.Fatalf("drive mode %d: raw %d round-tripped to %d", driveMode, raw, back)
			}
		}
	}
}

func TestDegreeMidpoint(t *testing.T) {
	b := calibrationBus(t, Degrees, MotorCalibration{RangeMin: 0, RangeMax: 4095})
	m := b.byName["joint"]

	deg, err := b.normalizeLocked(m, "Present_Position", 2048)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if deg != 0 {
		t.Errorf("midpoint: got %v degrees, want 0", deg)
	}
}

func TestLinearBoundaries(t *testing.T) {
	b := calibrationBus(t, Range0To100, MotorCalibration{RangeMin: 0, RangeMax: 4095})
	m := b.byName["joint"]

	// 0 and 100 are accepted exactly.
	if raw, err := b.denormalizeLocked(m, "Goal_Position", 0); err != nil || raw != 0 {
		t.Errorf("denormalize(0): got (%d, %v), want (0, nil)", raw, err)
	}
	if raw, err := b.denormalizeLocked(m, "Goal_Position", 100); err != nil || raw != 4095 {
		t.Errorf("denormalize(100): got (%d, %v), want (4095, nil)", raw, err)
	}
	if raw, err := b.denormalizeLocked(m, "Goal_Position", 50); err != nil || raw != 2048 {
		t.Errorf("denormalize(50): got (%d, %v), want (2048, nil)", raw, err)
	}

	// Just past the tolerance band raises.
	var oob *JointOutOfRangeError
	if _, err := b.denormalizeLocked(m, "Goal_Position", -10.01); !errors.As(err, &oob) {
		t.Errorf("denormalize(-10.01): got %v, want JointOutOfRangeError", err)
	}
	if _, err := b.denormalizeLocked(m, "Goal_Position", 110.01); !errors.As(err, &oob) {
		t.Errorf("denormalize(110.01): got %v, want JointOutOfRangeError", err)
	}

	// A raw tick far outside the recorded range raises on the read side,
	// reporting the nominal percentage.
	b2 := calibrationBus(t, Range0To100, MotorCalibration{RangeMin: 1000, RangeMax: 2000})
	m2 := b2.byName["joint"]
	_, err := b2.normalizeLocked(m2, "Present_Position", 2500)
	if !errors.As(err, &oob) {
		t.Fatalf("normalize(2500): got %v, want JointOutOfRangeError", err)
	}
	if oob.Motor != "joint" || oob.Value != 150 {
		t.Errorf("error contents: got motor %q value %v", oob.Motor, oob.Value)
	}
}

func TestSymmetricRange(t *testing.T) {
	b := calibrationBus(t, RangeM100To100, MotorCalibration{RangeMin: 0, RangeMax: 4095})
	m := b.byName["joint"]

	if raw, err := b.denormalizeLocked(m, "Goal_Position", -100); err != nil || raw != 0 {
		t.Errorf("denormalize(-100): got (%d, %v), want (0, nil)", raw, err)
	}
	if raw, err := b.denormalizeLocked(m, "Goal_Position", 100); err != nil || raw != 4095 {
		t.Errorf("denormalize(100): got (%d, %v), want (4095, nil)", raw, err)
	}
	if raw, err := b.denormalizeLocked(m, "Goal_Position", 0); err != nil || raw != 2048 {
		t.Errorf("denormalize(0): got (%d, %v), want (2048, nil)", raw, err)
	}

	v, err := b.normalizeLocked(m, "Present_Position", 0)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if v != -100 {
		t.Errorf("normalize(0): got %v, want -100", v)
	}
}

func stubRegisterWrite(mock *transports.MockTransport, id, addr int, data ...byte) {
	var h protocol.Feetech
	mock.Stub(h.Write(id, addr, data), feetechStatus(id))
}

func TestSetHalfTurnHomings(t *testing.T) {
	mock := transports.NewMockTransport()
	motors := []Motor{
		{Name: "shoulder", ID: 1, Model: "sts3215", NormMode: Degrees},
		{Name: "elbow", ID: 2, Model: "sts3215", NormMode: Degrees},
		{Name: "wrist", ID: 3, Model: "sts3215", NormMode: Degrees},
	}
	b := newTestBus(t, mock, FeetechSTS(), motors, -1)

	// Calibration reset: zero offset, limits to full scale.
	for id := 1; id <= 3; id++ {
		stubRegisterWrite(mock, id, 31, 0x00, 0x00)
		stubRegisterWrite(mock, id, 9, 0x00, 0x00)
		stubRegisterWrite(mock, id, 11, 0xFF, 0x0F)
	}

	// Positions with each joint held at its physical midpoint.
	var h protocol.Feetech
	resp := append(feetechStatus(1, 0x39, 0x05), feetechStatus(2, 0x2A, 0x00)...)
	resp = append(resp, feetechStatus(3, 0x58, 0x0E)...)
	mock.Stub(h.SyncRead(56, 2, []int{1, 2, 3}), resp)

	// Offsets in sign-magnitude form: -710, -2005, 1625.
	stubRegisterWrite(mock, 1, 31, 0xC6, 0x0A)
	stubRegisterWrite(mock, 2, 31, 0xD5, 0x0F)
	stubRegisterWrite(mock, 3, 31, 0x59, 0x06)

	offsets, err := b.SetHalfTurnHomings(context.Background())
	if err != nil {
		t.Fatalf("SetHalfTurnHomings failed: %v", err)
	}

	want := map[string]int{"shoulder": -710, "elbow": -2005, "wrist": 1625}
	for name, offset := range want {
		if offsets[name] != offset {
			t.Errorf("offset[%s]: got %d, want %d", name, offsets[name], offset)
		}
	}

	cal := b.Calibration()
	if cal["elbow"].HomingOffset != -2005 {
		t.Errorf("stored offset: got %d, want -2005", cal["elbow"].HomingOffset)
	}
	if cal["elbow"].RangeMin != 0 || cal["elbow"].RangeMax != 4095 {
		t.Errorf("stored range: got [%d, %d], want [0, 4095]", cal["elbow"].RangeMin, cal["elbow"].RangeMax)
	}
}

func TestRecordRangesOfMotion(t *testing.T) {
	mock := transports.NewMockTransport()
	motors := []Motor{{Name: "joint", ID: 1, Model: "sts3215", NormMode: Degrees}}
	b := newTestBus(t, mock, FeetechSTS(), motors, -1)

	var h protocol.Feetech
	mock.StubSeries(h.SyncRead(56, 2, []int{1}),
		feetechStatus(1, 0x5F, 0x01), // 351
		feetechStatus(1, 0x2A, 0x00), // 42
		feetechStatus(1, 0x39, 0x05), // 1337, held until stop
	)

	stop := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(stop)
	}()

	mins, maxes, err := b.RecordRangesOfMotion(context.Background(), nil, nil, stop)
	if err != nil {
		t.Fatalf("RecordRangesOfMotion failed: %v", err)
	}
	if mins["joint"] != 42 {
		t.Errorf("min: got %d, want 42", mins["joint"])
	}
	if maxes["joint"] != 1337 {
		t.Errorf("max: got %d, want 1337", maxes["joint"])
	}
}

func TestRecordRangesOfMotionFullTurn(t *testing.T) {
	mock := transports.NewMockTransport()
	b := newTestBus(t, mock, FeetechSTS(), twoMotors(), -1)

	// Only the tracked motor is sampled; the full-turn one is pinned.
	var h protocol.Feetech
	mock.Stub(h.SyncRead(56, 2, []int{1}), feetechStatus(1, 0xF4, 0x01))

	stop := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(stop)
	}()

	mins, maxes, err := b.RecordRangesOfMotion(context.Background(), nil, []string{"elbow"}, stop)
	if err != nil {
		t.Fatalf("RecordRangesOfMotion failed: %v", err)
	}
	if mins["shoulder"] != 500 || maxes["shoulder"] != 500 {
		t.Errorf("tracked motor: got [%d, %d], want [500, 500]", mins["shoulder"], maxes["shoulder"])
	}
	if mins["elbow"] != 0 || maxes["elbow"] != 4095 {
		t.Errorf("full-turn motor: got [%d, %d], want [0, 4095]", mins["elbow"], maxes["elbow"])
	}
}

func TestRecordRangesOfMotionCanceled(t *testing.T) {
	mock := transports.NewMockTransport()
	motors := []Motor{{Name: "joint", ID: 1, Model: "sts3215", NormMode: Degrees}}
	b := newTestBus(t, mock, FeetechSTS(), motors, -1)

	var h protocol.Feetech
	mock.Stub(h.SyncRead(56, 2, []int{1}), feetechStatus(1, 0x2A, 0x00))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, _, err := b.RecordRangesOfMotion(ctx, nil, nil, make(chan struct{}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestIsCalibrated(t *testing.T) {
	mock := transports.NewMockTransport()
	motors := []Motor{{Name: "joint", ID: 1, Model: "sts3215", NormMode: Degrees}}
	b := newTestBus(t, mock, FeetechSTS(), motors, -1)

	// No calibration loaded yet, no I/O needed to answer.
	ok, err := b.IsCalibrated(context.Background())
	if err != nil {
		t.Fatalf("IsCalibrated failed: %v", err)
	}
	if ok {
		t.Error("uncalibrated bus reported calibrated")
	}

	if err := b.SetCalibration(map[string]MotorCalibration{
		"joint": {HomingOffset: -710, RangeMin: 42, RangeMax: 1337},
	}); err != nil {
		t.Fatalf("SetCalibration failed: %v", err)
	}

	var h protocol.Feetech
	mock.Stub(h.Read(1, 31, 2), feetechStatus(1, 0xC6, 0x0A)) // -710 sign-magnitude
	mock.Stub(h.Read(1, 9, 2), feetechStatus(1, 0x2A, 0x00))
	mock.Stub(h.Read(1, 11, 2), feetechStatus(1, 0x39, 0x05))

	ok, err = b.IsCalibrated(context.Background())
	if err != nil {
		t.Fatalf("IsCalibrated failed: %v", err)
	}
	if !ok {
		t.Error("matching registers reported uncalibrated")
	}
}

func TestWriteCalibration(t *testing.T) {
	mock := transports.NewMockTransport()
	motors := []Motor{{Name: "joint", ID: 1, Model: "sts3215", NormMode: Degrees}}
	b := newTestBus(t, mock, FeetechSTS(), motors, -1)

	stubRegisterWrite(mock, 1, 31, 0xC6, 0x0A)
	stubRegisterWrite(mock, 1, 9, 0x2A, 0x00)
	stubRegisterWrite(mock, 1, 11, 0x39, 0x05)

	err := b.WriteCalibration(context.Background(), map[string]MotorCalibration{
		"joint": {HomingOffset: -710, RangeMin: 42, RangeMax: 1337},
	})
	if err != nil {
		t.Fatalf("WriteCalibration failed: %v", err)
	}
	if got := b.Calibration()["joint"].HomingOffset; got != -710 {
		t.Errorf("stored offset: got %d, want -710", got)
	}

	// The registers go out offset, min limit, max limit, every run.
	var h protocol.Feetech
	want := [][]byte{
		h.Write(1, 31, []byte{0xC6, 0x0A}),
		h.Write(1, 9, []byte{0x2A, 0x00}),
		h.Write(1, 11, []byte{0x39, 0x05}),
	}
	if len(mock.Writes) != len(want) {
		t.Fatalf("writes: got %d packets, want %d", len(mock.Writes), len(want))
	}
	for i, packet := range want {
		if !bytes.Equal(mock.Writes[i], packet) {
			t.Errorf("write %d: got % X, want % X", i, mock.Writes[i], packet)
		}
	}
}

func TestSetCalibrationValidation(t *testing.T) {
	b, err := NewBus(BusConfig{
		Family:    FeetechSTS(),
		Motors:    []Motor{{Name: "joint", ID: 1, Model: "sts3215"}},
		Transport: transports.NewMockTransport(),
	})
	if err != nil {
		t.Fatalf("NewBus failed: %v", err)
	}

	if err := b.SetCalibration(map[string]MotorCalibration{
		"joint": {RangeMin: 100, RangeMax: 100},
	}); err == nil {
		t.Error("expected error for empty range")
	}
	if err := b.SetCalibration(map[string]MotorCalibration{
		"ghost": {RangeMin: 0, RangeMax: 100},
	}); err == nil {
		t.Error("expected error for unknown motor")
	}
	if err := b.SetCalibration(map[string]MotorCalibration{
		"joint": {ID: 9, RangeMin: 0, RangeMax: 100},
	}); err == nil {
		t.Error("expected error for id mismatch")
	}
}
