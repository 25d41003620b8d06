package motorbus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lerobot-go/motorbus/protocol"
)

// conflictFamily has two models that disagree on the Goal_Position address,
// which a group transaction must reject before any wire I/O.
func conflictFamily() *Family {
	return newFamily(
		"conflict",
		protocol.Feetech{},
		Register{Address: 3, Width: 2},
		feetechBaudRates,
		[]*ModelSpec{
			{Name: "alpha", Number: 1, Resolution: 4096, Registers: map[string]Register{
				"Goal_Position":    {Address: 42, Width: 2},
				"Present_Position": {Address: 56, Width: 2},
			}},
			{Name: "beta", Number: 2, Resolution: 4096, Registers: map[string]Register{
				"Goal_Position":    {Address: 30, Width: 2},
				"Present_Position": {Address: 56, Width: 2},
			}},
		},
	)
}

func TestFamily_Resolve(t *testing.T) {
	f := FeetechSTS()

	reg, err := f.Resolve("Present_Position", "sts3215")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if reg.Address != 56 || reg.Width != 2 {
		t.Errorf("Present_Position: got (%d, %d), want (56, 2)", reg.Address, reg.Width)
	}

	var unknownErr *UnknownRegisterError
	if _, err := f.Resolve("Flux_Capacitor", "sts3215"); !errors.As(err, &unknownErr) {
		t.Errorf("unknown register: got %v, want UnknownRegisterError", err)
	}
	if _, err := f.Resolve("Present_Position", "mx-999"); err == nil {
		t.Error("unknown model: expected error")
	}
}

func TestFamily_ResolveUniform(t *testing.T) {
	f := conflictFamily()

	if _, err := f.ResolveUniform("Present_Position", []string{"alpha", "beta"}); err != nil {
		t.Errorf("agreeing register rejected: %v", err)
	}

	var mismatch *ControlTableMismatchError
	_, err := f.ResolveUniform("Goal_Position", []string{"alpha", "beta"})
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want ControlTableMismatchError", err)
	}
	if mismatch.Register != "Goal_Position" {
		t.Errorf("register in error: got %q", mismatch.Register)
	}
}

func TestFamily_SignMagnitudeRegister(t *testing.T) {
	f := FeetechSTS()
	reg, err := f.Resolve("Homing_Offset", "sts3215")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	data, err := f.EncodeRegisterValue(reg, -710)
	if err != nil {
		t.Fatalf("EncodeRegisterValue failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0xC6, 0x0A}) {
		t.Errorf("wire bytes: got %X, want C60A", data)
	}

	back, err := f.DecodeRegisterValue(reg, data)
	if err != nil {
		t.Fatalf("DecodeRegisterValue failed: %v", err)
	}
	if back != -710 {
		t.Errorf("round trip: got %d, want -710", back)
	}
}

func TestFamily_TwosComplementRegister(t *testing.T) {
	f := DynamixelX()
	reg, err := f.Resolve("Homing_Offset", "xl430-w250")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	data, err := f.EncodeRegisterValue(reg, -710)
	if err != nil {
		t.Fatalf("EncodeRegisterValue failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0x3A, 0xFD, 0xFF, 0xFF}) {
		t.Errorf("wire bytes: got %X, want 3AFDFFFF", data)
	}

	back, err := f.DecodeRegisterValue(reg, data)
	if err != nil {
		t.Fatalf("DecodeRegisterValue failed: %v", err)
	}
	if back != -710 {
		t.Errorf("round trip: got %d, want -710", back)
	}
}

func TestFamily_BaudRates(t *testing.T) {
	f := FeetechSTS()

	if v, ok := f.BaudRateValue(1000000); !ok || v != 0 {
		t.Errorf("BaudRateValue(1000000): got (%d, %v)", v, ok)
	}
	if _, ok := f.BaudRateValue(300); ok {
		t.Error("BaudRateValue(300): expected miss")
	}

	rates := f.BaudRates()
	if len(rates) != 8 || rates[0] != 1000000 || rates[len(rates)-1] != 19200 {
		t.Errorf("BaudRates: got %v", rates)
	}
}
