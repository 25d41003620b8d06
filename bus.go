package motorbus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lerobot-go/motorbus/protocol"
	"github.com/lerobot-go/motorbus/transports"
)

const (
	DefaultBaudRate = 1000000

	// DefaultNumRetry is deliberately high: USB serial adapters drop
	// packets under load and a control loop would rather wait than fail.
	DefaultNumRetry = 20
)

// BusConfig configures a Bus. Zero values fall back to defaults where noted.
type BusConfig struct {
	// Port is the serial device node, e.g. "/dev/ttyUSB0".
	Port string

	// BaudRate defaults to 1000000.
	BaudRate int

	// Timeout bounds each low-level exchange. Defaults to one second.
	Timeout time.Duration

	// NumRetry is the number of retries after a failed transaction.
	// Zero means DefaultNumRetry; negative disables retries.
	NumRetry int

	// Family selects the device family (control tables + wire dialect).
	Family *Family

	// Motors registers the devices on the chain. Names and IDs must be
	// unique within one bus.
	Motors []Motor

	// Calibration preloads per-motor calibration, keyed by motor name.
	Calibration map[string]MotorCalibration

	// Transport, when set, replaces the serial port. Used by tests.
	Transport transports.Transport
}

// Bus is the facade over one servo chain: named-motor addressing, single and
// group transactions, calibrated reads and writes.
//
// A bus serializes its own operations with an internal lock; the serial line
// is half duplex and admits exactly one transaction at a time.
type Bus struct {
	mu sync.Mutex

	port     string
	baud     int
	timeout  time.Duration
	numRetry int
	family   *Family

	motors []Motor
	byName map[string]*Motor
	byID   map[int]*Motor

	calibration map[string]MotorCalibration

	transport transports.Transport
	session   *transports.Session

	// Group transaction caches keyed by register + participant names.
	// Cleared on disconnect, never shared across instances.
	readCache  map[string][]byte
	writeCache map[string][]protocol.SyncParam
}

// NewBus validates the configuration and returns an unconnected bus.
func NewBus(cfg BusConfig) (*Bus, error) {
	if cfg.Family == nil {
		return nil, errors.New("bus config needs a device family")
	}

	b := &Bus{
		port:        cfg.Port,
		baud:        cfg.BaudRate,
		timeout:     cfg.Timeout,
		numRetry:    cfg.NumRetry,
		family:      cfg.Family,
		motors:      make([]Motor, len(cfg.Motors)),
		byName:      make(map[string]*Motor, len(cfg.Motors)),
		byID:        make(map[int]*Motor, len(cfg.Motors)),
		calibration: make(map[string]MotorCalibration),
		transport:   cfg.Transport,
		readCache:   make(map[string][]byte),
		writeCache:  make(map[string][]protocol.SyncParam),
	}
	if b.baud == 0 {
		b.baud = DefaultBaudRate
	}
	switch {
	case b.numRetry == 0:
		b.numRetry = DefaultNumRetry
	case b.numRetry < 0:
		b.numRetry = 0
	}

	copy(b.motors, cfg.Motors)
	for i := range b.motors {
		m := &b.motors[i]
		if m.Name == "" {
			return nil, fmt.Errorf("motor id %d has no name", m.ID)
		}
		if m.ID < 1 || m.ID > protocol.MaxID {
			return nil, fmt.Errorf("motor %q id %d outside [1, %d]", m.Name, m.ID, protocol.MaxID)
		}
		if _, dup := b.byName[m.Name]; dup {
			return nil, fmt.Errorf("duplicate motor name %q", m.Name)
		}
		if _, dup := b.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate motor id %d", m.ID)
		}
		if _, err := cfg.Family.Model(m.Model); err != nil {
			return nil, err
		}
		b.byName[m.Name] = m
		b.byID[m.ID] = m
	}

	for name, cal := range cfg.Calibration {
		if err := b.setCalibrationEntry(name, cal); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Connect opens the transport session.
func (b *Bus) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectLocked(ctx)
}

// ConnectAssert opens the transport session and verifies that every
// registered motor answers a ping.
func (b *Bus) ConnectAssert(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectLocked(ctx); err != nil {
		return err
	}
	for i := range b.motors {
		m := &b.motors[i]
		if _, err := b.pingLocked(ctx, m.ID); err != nil {
			return fmt.Errorf("motor %q (id %d) did not answer: %w", m.Name, m.ID, err)
		}
	}
	return nil
}

func (b *Bus) connectLocked(ctx context.Context) error {
	if b.session != nil {
		return ErrAlreadyConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.transport != nil {
		b.session = transports.NewSession(b.transport, b.port, b.baud, b.timeout)
		return nil
	}

	session, err := transports.Open(b.port, b.baud, b.timeout)
	if err != nil {
		return err
	}
	b.session = session
	return nil
}

// Disconnect closes the session and drops the group transaction caches.
// Reconnecting creates a fresh session.
func (b *Bus) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNotConnected
	}
	err := b.session.Close()
	b.session = nil
	b.readCache = make(map[string][]byte)
	b.writeCache = make(map[string][]protocol.SyncParam)
	return err
}

// Close is the tolerant teardown path: safe on a never-connected or
// already-disconnected bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	err := b.session.Close()
	b.session = nil
	b.readCache = make(map[string][]byte)
	b.writeCache = make(map[string][]protocol.SyncParam)
	return err
}

// SetBaudRate switches the open session to another line speed. Rates outside
// the family's baud table are rejected before touching the transport.
func (b *Bus) SetBaudRate(baud int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	if _, ok := b.family.BaudRateValue(baud); !ok {
		return fmt.Errorf("baud rate %d not supported by family %s", baud, b.family.Name())
	}
	if err := b.session.SetBaudRate(baud); err != nil {
		return err
	}
	b.baud = baud
	return nil
}

// BaudRate returns the session's current line speed.
func (b *Bus) BaudRate() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.baud
}

// Connected reports whether the bus holds an open session.
func (b *Bus) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil
}

// Motors returns the registered motor names in registration order.
func (b *Bus) Motors() []string {
	names := make([]string, len(b.motors))
	for i := range b.motors {
		names[i] = b.motors[i].Name
	}
	return names
}

func (b *Bus) connectedLocked() error {
	if b.session == nil {
		return ErrNotConnected
	}
	return nil
}

// exchange sends one packet and parses one status response.
func (b *Bus) exchange(ctx context.Context, packet []byte, respLen int) (protocol.Status, error) {
	if err := b.session.WritePacket(packet); err != nil {
		return protocol.Status{}, err
	}
	buf, err := b.session.ReadBytes(ctx, respLen)
	if err != nil {
		return protocol.Status{}, err
	}
	st, _, err := b.family.Handler().ParseStatus(buf)
	return st, err
}

// Ping addresses one device and returns its model number.
func (b *Bus) Ping(ctx context.Context, id int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return 0, err
	}
	return b.pingLocked(ctx, id)
}

func (b *Bus) pingLocked(ctx context.Context, id int) (int, error) {
	h := b.family.Handler()

	st, err := b.exchange(ctx, h.Ping(id), h.PingStatusLength())
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &ConnectionError{Port: b.port, IDs: []int{id}, Op: "ping", Err: err}
	}
	if st.ID != id {
		return 0, &IDMismatchError{Expected: id, Got: st.ID}
	}

	// Dynamixel ping statuses carry the model number; Feetech ones do
	// not, so fall back to reading the model-number register.
	if len(st.Params) >= 2 {
		model, err := decodeValue(st.Params[:2])
		return int(model), err
	}
	return b.rawRead(ctx, id, b.family.ModelNumberRegister(), 0, "ping")
}

// BroadcastPing scans the chain and returns the responding id to model-number
// mapping. The scan ends when the bus goes silent for one timeout. A device
// that answered the ping but whose model number could not be read is reported
// with model 0.
func (b *Bus) BroadcastPing(ctx context.Context) (map[int]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return nil, err
	}

	h := b.family.Handler()
	if err := b.session.WritePacket(h.Ping(protocol.BroadcastID)); err != nil {
		return nil, &ConnectionError{Port: b.port, Op: "broadcast ping", Err: err}
	}

	// Devices answer back to back; one read may return several statuses,
	// so parse from a pending buffer and top it up until the bus goes
	// silent for one timeout.
	found := make(map[int]int)
	var pending []byte
	for {
		for len(pending) > 0 {
			st, n, err := h.ParseStatus(pending)
			if errors.Is(err, protocol.ErrPacketTooShort) {
				break // wait for the rest of the packet
			}
			if err != nil {
				pending = nil // corrupt tail, drop it
				break
			}
			pending = pending[n:]

			model := 0
			if len(st.Params) >= 2 {
				v, _ := decodeValue(st.Params[:2])
				model = int(v)
			}
			found[st.ID] = model
		}

		buf, err := b.session.ReadBytes(ctx, h.PingStatusLength())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			break // silence, every device has answered
		}
		pending = append(pending, buf...)
	}

	// Feetech devices answer pings without a model number.
	for id, model := range found {
		if model != 0 {
			continue
		}
		if v, err := b.rawRead(ctx, id, b.family.ModelNumberRegister(), 0, "ping"); err == nil {
			found[id] = v
		}
	}
	return found, nil
}

// rawRead reads one register from one device, retrying the exchange up to
// numRetry times before giving up with a ConnectionError.
func (b *Bus) rawRead(ctx context.Context, id int, reg Register, numRetry int, op string) (int, error) {
	h := b.family.Handler()
	packet := h.Read(id, reg.Address, reg.Width)

	var lastErr error
	for attempt := 0; attempt <= numRetry; attempt++ {
		st, err := b.exchange(ctx, packet, h.StatusLength(reg.Width))
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			lastErr = err
			continue
		}
		if st.ID != id {
			return 0, &IDMismatchError{Expected: id, Got: st.ID}
		}
		if len(st.Params) != reg.Width {
			lastErr = fmt.Errorf("short status: %d of %d payload bytes", len(st.Params), reg.Width)
			continue
		}
		return b.family.DecodeRegisterValue(reg, st.Params)
	}
	return 0, &ConnectionError{Port: b.port, IDs: []int{id}, Op: op, Err: lastErr}
}

// rawWrite writes one register on one device. Broadcast writes get no status
// response and are fire-and-forget.
func (b *Bus) rawWrite(ctx context.Context, id int, reg Register, value, numRetry int, op string) error {
	data, err := b.family.EncodeRegisterValue(reg, value)
	if err != nil {
		return err
	}
	h := b.family.Handler()
	packet := h.Write(id, reg.Address, data)

	if id == protocol.BroadcastID {
		if err := b.session.WritePacket(packet); err != nil {
			return &ConnectionError{Port: b.port, IDs: []int{id}, Op: op, Err: err}
		}
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= numRetry; attempt++ {
		st, err := b.exchange(ctx, packet, h.StatusLength(0))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		if st.ID != id {
			return &IDMismatchError{Expected: id, Got: st.ID}
		}
		return nil
	}
	return &ConnectionError{Port: b.port, IDs: []int{id}, Op: op, Err: lastErr}
}

// ReadWithIDs reads one register from several devices by raw id, one
// exchange per device. numRetry < 0 uses the bus default.
func (b *Bus) ReadWithIDs(ctx context.Context, register string, ids []int, numRetry int) (map[int]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return nil, err
	}
	if numRetry < 0 {
		numRetry = b.numRetry
	}

	reg, err := b.resolveForIDs(register, ids)
	if err != nil {
		return nil, err
	}

	values := make(map[int]int, len(ids))
	for _, id := range ids {
		v, err := b.rawRead(ctx, id, reg, numRetry, "read")
		if err != nil {
			return nil, err
		}
		values[id] = v
	}
	return values, nil
}

// WriteWithIDs writes one register on several devices by raw id.
func (b *Bus) WriteWithIDs(ctx context.Context, register string, ids, values []int, numRetry int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	if len(ids) != len(values) {
		return fmt.Errorf("%d ids but %d values", len(ids), len(values))
	}
	if numRetry < 0 {
		numRetry = b.numRetry
	}

	reg, err := b.resolveForIDs(register, ids)
	if err != nil {
		return err
	}

	for i, id := range ids {
		if err := b.rawWrite(ctx, id, reg, values[i], numRetry, "write"); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) resolveForIDs(register string, ids []int) (Register, error) {
	models := make([]string, 0, len(ids))
	for _, id := range ids {
		m, ok := b.byID[id]
		if !ok {
			return Register{}, fmt.Errorf("no motor registered with id %d", id)
		}
		models = append(models, m.Model)
	}
	return b.family.ResolveUniform(register, models)
}

// Read reads one register from one named motor. With normalize set, position
// registers come back in the motor's normalized unit.
func (b *Bus) Read(ctx context.Context, register, motor string, normalize bool) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return 0, err
	}
	m, ok := b.byName[motor]
	if !ok {
		return 0, fmt.Errorf("unknown motor %q", motor)
	}
	reg, err := b.family.Resolve(register, m.Model)
	if err != nil {
		return 0, err
	}

	raw, err := b.rawRead(ctx, m.ID, reg, b.numRetry, "read")
	if err != nil {
		return 0, err
	}
	if normalize && calibrationRequired[register] {
		return b.normalizeLocked(m, register, raw)
	}
	return float64(raw), nil
}

// Write writes one register on one named motor. With normalize set, position
// registers take values in the motor's normalized unit.
func (b *Bus) Write(ctx context.Context, register, motor string, value float64, normalize bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	m, ok := b.byName[motor]
	if !ok {
		return fmt.Errorf("unknown motor %q", motor)
	}
	reg, err := b.family.Resolve(register, m.Model)
	if err != nil {
		return err
	}

	raw := int(math.Round(value))
	if normalize && calibrationRequired[register] {
		raw, err = b.denormalizeLocked(m, register, value)
		if err != nil {
			return err
		}
	}
	return b.rawWrite(ctx, m.ID, reg, raw, b.numRetry, "write")
}

// SyncRead reads one register from several motors in a single group
// transaction. A nil motor list means every registered motor.
func (b *Bus) SyncRead(ctx context.Context, register string, motors []string, normalize bool) (map[string]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return nil, err
	}
	names, err := b.selectNames(motors)
	if err != nil {
		return nil, err
	}

	raw, err := b.syncReadRawLocked(ctx, register, names)
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(names))
	for _, name := range names {
		if normalize && calibrationRequired[register] {
			v, err := b.normalizeLocked(b.byName[name], register, raw[name])
			if err != nil {
				return nil, err
			}
			values[name] = v
		} else {
			values[name] = float64(raw[name])
		}
	}
	return values, nil
}

func (b *Bus) syncReadRawLocked(ctx context.Context, register string, names []string) (map[string]int, error) {
	reg, err := b.family.ResolveUniform(register, b.modelsOf(names))
	if err != nil {
		return nil, err
	}

	ids := b.idsOf(names)
	h := b.family.Handler()

	key := groupKey(register, names)
	packet, ok := b.readCache[key]
	if !ok {
		packet = h.SyncRead(reg.Address, reg.Width, ids)
		b.readCache[key] = packet
	}

	var lastErr error
	for attempt := 0; attempt <= b.numRetry; attempt++ {
		byID, err := b.syncReadOnce(ctx, packet, reg, ids)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		values := make(map[string]int, len(names))
		for i, name := range names {
			values[name] = byID[ids[i]]
		}
		return values, nil
	}
	return nil, &ConnectionError{Port: b.port, IDs: ids, Op: "sync read " + register, Err: lastErr}
}

// syncReadOnce runs one group read attempt. The result is all-or-nothing: a
// missing or corrupt per-device status fails the whole attempt.
func (b *Bus) syncReadOnce(ctx context.Context, packet []byte, reg Register, ids []int) (map[int]int, error) {
	if err := b.session.WritePacket(packet); err != nil {
		return nil, err
	}

	h := b.family.Handler()
	buf, err := b.session.ReadBytes(ctx, len(ids)*h.StatusLength(reg.Width))
	if err != nil {
		return nil, err
	}

	values := make(map[int]int, len(ids))
	offset := 0
	for range ids {
		st, n, err := h.ParseStatus(buf[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		if len(st.Params) != reg.Width {
			return nil, fmt.Errorf("short status from id %d", st.ID)
		}
		v, err := b.family.DecodeRegisterValue(reg, st.Params)
		if err != nil {
			return nil, err
		}
		values[st.ID] = v
	}
	for _, id := range ids {
		if _, ok := values[id]; !ok {
			return nil, fmt.Errorf("no status from id %d", id)
		}
	}
	return values, nil
}

// SyncWrite writes one register on several motors in a single broadcast
// packet. The value map's keys select the motors.
func (b *Bus) SyncWrite(ctx context.Context, register string, values map[string]float64, normalize bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	names, err := b.selectByKeys(values)
	if err != nil {
		return err
	}

	raws := make(map[string]int, len(names))
	for _, name := range names {
		value := values[name]
		if normalize && calibrationRequired[register] {
			raw, err := b.denormalizeLocked(b.byName[name], register, value)
			if err != nil {
				return err
			}
			raws[name] = raw
		} else {
			raws[name] = int(math.Round(value))
		}
	}
	return b.syncWriteRawLocked(ctx, register, names, raws)
}

func (b *Bus) syncWriteRawLocked(ctx context.Context, register string, names []string, raws map[string]int) error {
	reg, err := b.family.ResolveUniform(register, b.modelsOf(names))
	if err != nil {
		return err
	}

	ids := b.idsOf(names)
	h := b.family.Handler()

	// The cached param list keeps its per-device payload buffers; only
	// the value bytes change between calls.
	key := groupKey(register, names)
	params, ok := b.writeCache[key]
	if !ok {
		params = make([]protocol.SyncParam, len(ids))
		for i, id := range ids {
			params[i] = protocol.SyncParam{ID: id, Data: make([]byte, reg.Width)}
		}
		b.writeCache[key] = params
	}

	for i, name := range names {
		data, err := b.family.EncodeRegisterValue(reg, raws[name])
		if err != nil {
			return err
		}
		copy(params[i].Data, data)
	}

	packet := h.SyncWrite(reg.Address, reg.Width, params)

	var lastErr error
	for attempt := 0; attempt <= b.numRetry; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.session.WritePacket(packet); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return &ConnectionError{Port: b.port, IDs: ids, Op: "sync write " + register, Err: lastErr}
}

// EnableTorque enables torque on the given motors, or all of them when none
// are named.
func (b *Bus) EnableTorque(ctx context.Context, motors ...string) error {
	return b.writeAll(ctx, "Torque_Enable", 1, motors)
}

// DisableTorque disables torque on the given motors, or all of them when
// none are named.
func (b *Bus) DisableTorque(ctx context.Context, motors ...string) error {
	return b.writeAll(ctx, "Torque_Enable", 0, motors)
}

func (b *Bus) writeAll(ctx context.Context, register string, value int, motors []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	names, err := b.selectNames(motors)
	if err != nil {
		return err
	}

	raws := make(map[string]int, len(names))
	for _, name := range names {
		raws[name] = value
	}
	return b.syncWriteRawLocked(ctx, register, names, raws)
}

// Configure writes per-motor operating parameters: each named register is
// written with its value on every registered motor. Registers are written in
// sorted order for reproducibility.
func (b *Bus) Configure(ctx context.Context, settings map[string]int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	names, err := b.selectNames(nil)
	if err != nil {
		return err
	}

	registers := make([]string, 0, len(settings))
	for register := range settings {
		registers = append(registers, register)
	}
	sort.Strings(registers)

	for _, register := range registers {
		raws := make(map[string]int, len(names))
		for _, name := range names {
			raws[name] = settings[register]
		}
		if err := b.syncWriteRawLocked(ctx, register, names, raws); err != nil {
			return err
		}
	}
	return nil
}

// SetupMotorID reassigns a device's bus ID and verifies the new ID answers.
func (b *Bus) SetupMotorID(ctx context.Context, currentID, newID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connectedLocked(); err != nil {
		return err
	}
	if newID < 1 || newID > protocol.MaxID {
		return fmt.Errorf("id %d outside [1, %d]", newID, protocol.MaxID)
	}

	reg, err := b.family.ResolveUniform("ID", b.family.Models())
	if err != nil {
		return err
	}
	if err := b.rawWrite(ctx, currentID, reg, newID, 0, "set id"); err != nil {
		return err
	}
	_, err = b.pingLocked(ctx, newID)
	return err
}

// selectNames maps a motor selector to registered names: nil means all
// motors in registration order.
func (b *Bus) selectNames(motors []string) ([]string, error) {
	if motors == nil {
		return b.Motors(), nil
	}
	if len(motors) == 0 {
		return nil, errors.New("empty motor selection")
	}
	for _, name := range motors {
		if _, ok := b.byName[name]; !ok {
			return nil, fmt.Errorf("unknown motor %q", name)
		}
	}
	return motors, nil
}

// selectByKeys orders a value map's keys by motor registration order, so the
// derived group key is stable across calls.
func (b *Bus) selectByKeys(values map[string]float64) ([]string, error) {
	if len(values) == 0 {
		return nil, errors.New("empty motor selection")
	}
	for name := range values {
		if _, ok := b.byName[name]; !ok {
			return nil, fmt.Errorf("unknown motor %q", name)
		}
	}
	names := make([]string, 0, len(values))
	for i := range b.motors {
		if _, ok := values[b.motors[i].Name]; ok {
			names = append(names, b.motors[i].Name)
		}
	}
	return names, nil
}

func (b *Bus) modelsOf(names []string) []string {
	models := make([]string, len(names))
	for i, name := range names {
		models[i] = b.byName[name].Model
	}
	return models
}

func (b *Bus) idsOf(names []string) []int {
	ids := make([]int, len(names))
	for i, name := range names {
		ids[i] = b.byName[name].ID
	}
	return ids
}

func groupKey(register string, names []string) string {
	return register + "_" + strings.Join(names, "_")
}
