package motorbus

import (
	"fmt"
	"sort"

	"github.com/lerobot-go/motorbus/protocol"
)

// Register is one control-table entry: a wire address, a byte width, and the
// sign encoding used by values stored there.
type Register struct {
	Address int
	Width   int

	// SignBit, when nonzero, marks a sign-magnitude register with the sign
	// carried in that bit (Feetech style).
	SignBit int

	// Signed marks a two's-complement register over the full width
	// (Dynamixel style). Mutually exclusive with SignBit.
	Signed bool
}

// ModelSpec describes one servo model: its control table, encoder resolution
// and the model number it reports on ping.
type ModelSpec struct {
	Name       string
	Number     int
	Resolution int
	Registers  map[string]Register
}

// Family groups the models that share one protocol dialect and control-table
// layout. A bus talks to exactly one family.
type Family struct {
	name    string
	handler protocol.Handler

	// modelNumber locates the model-number register without knowing the
	// model, which is what discovery needs.
	modelNumber Register

	// baudRates maps the baud-rate register value to the line speed.
	baudRates map[int]int

	models   map[string]*ModelSpec
	byNumber map[int]*ModelSpec
}

func newFamily(name string, handler protocol.Handler, modelNumber Register, baudRates map[int]int, models []*ModelSpec) *Family {
	f := &Family{
		name:        name,
		handler:     handler,
		modelNumber: modelNumber,
		baudRates:   baudRates,
		models:      make(map[string]*ModelSpec, len(models)),
		byNumber:    make(map[int]*ModelSpec, len(models)),
	}
	for _, m := range models {
		f.models[m.Name] = m
		f.byNumber[m.Number] = m
	}
	return f
}

func (f *Family) Name() string { return f.name }

// Handler returns the wire dialect for this family.
func (f *Family) Handler() protocol.Handler { return f.handler }

// Models returns the family's model names, sorted.
func (f *Family) Models() []string {
	names := make([]string, 0, len(f.models))
	for name := range f.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model looks up a model spec by name.
func (f *Family) Model(name string) (*ModelSpec, error) {
	m, ok := f.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q in family %s", name, f.name)
	}
	return m, nil
}

// ModelByNumber looks up a model spec by its reported model number.
func (f *Family) ModelByNumber(number int) (*ModelSpec, bool) {
	m, ok := f.byNumber[number]
	return m, ok
}

// ModelNumberRegister returns the register holding the device's model number.
func (f *Family) ModelNumberRegister() Register { return f.modelNumber }

// BaudRates returns the supported line speeds, sorted descending.
func (f *Family) BaudRates() []int {
	rates := make([]int, 0, len(f.baudRates))
	for _, r := range f.baudRates {
		rates = append(rates, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rates)))
	return rates
}

// BaudRateValue returns the baud-rate register value for a line speed.
func (f *Family) BaudRateValue(baud int) (int, bool) {
	for v, r := range f.baudRates {
		if r == baud {
			return v, true
		}
	}
	return 0, false
}

// Resolve maps a register name to its control-table entry for one model.
func (f *Family) Resolve(register, model string) (Register, error) {
	m, err := f.Model(model)
	if err != nil {
		return Register{}, err
	}
	reg, ok := m.Registers[register]
	if !ok {
		return Register{}, &UnknownRegisterError{Register: register, Model: model}
	}
	return reg, nil
}

// ResolveUniform resolves a register across several models and verifies they
// all agree on address and width. Group transactions call this before
// building any packet.
func (f *Family) ResolveUniform(register string, models []string) (Register, error) {
	if len(models) == 0 {
		return Register{}, fmt.Errorf("no models given for register %q", register)
	}

	first, err := f.Resolve(register, models[0])
	if err != nil {
		return Register{}, err
	}
	for _, model := range models[1:] {
		reg, err := f.Resolve(register, model)
		if err != nil {
			return Register{}, err
		}
		if reg.Address != first.Address || reg.Width != first.Width {
			return Register{}, &ControlTableMismatchError{Register: register, Models: models}
		}
	}
	return first, nil
}

// EncodeRegisterValue converts a register value into its little-endian wire
// bytes, applying the family's sign encoding for signed registers.
func (f *Family) EncodeRegisterValue(reg Register, value int) ([]byte, error) {
	wire := int64(value)
	switch {
	case reg.SignBit > 0:
		v, err := EncodeSignMagnitude(wire, reg.SignBit)
		if err != nil {
			return nil, err
		}
		wire = v
	case reg.Signed:
		wire &= int64(1)<<(8*reg.Width) - 1
	}
	return encodeValue(wire, reg.Width)
}

// DecodeRegisterValue is the inverse of EncodeRegisterValue.
func (f *Family) DecodeRegisterValue(reg Register, data []byte) (int, error) {
	value, err := decodeValue(data)
	if err != nil {
		return 0, err
	}
	switch {
	case reg.SignBit > 0:
		value = DecodeSignMagnitude(value, reg.SignBit)
	case reg.Signed:
		if value&(int64(1)<<(8*reg.Width-1)) != 0 {
			value -= int64(1) << (8 * reg.Width)
		}
	}
	return int(value), nil
}
