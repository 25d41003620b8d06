// Package protocol implements the wire framing used by daisy-chained serial
// servo buses. Two dialects are provided: the Feetech SCS/STS framing with an
// additive-complement checksum, and the Dynamixel Protocol 2.0 framing with a
// CRC16 trailer. Both share the same instruction set and the same
// request/status packet shape, which lets the transaction engine above treat
// them uniformly through the Handler interface.
package protocol

import "errors"

// Instruction codes, common to both dialects.
const (
	InstPing      byte = 0x01
	InstRead      byte = 0x02
	InstWrite     byte = 0x03
	InstSyncRead  byte = 0x82
	InstSyncWrite byte = 0x83
)

// BroadcastID addresses every device on the bus at once.
const BroadcastID = 0xFE

// MaxID is the highest assignable device ID.
const MaxID = 0xFC

var (
	ErrPacketTooShort = errors.New("packet too short")
	ErrHeaderNotFound = errors.New("packet header not found")
	ErrChecksum       = errors.New("checksum mismatch")
)

// Status is a parsed status (response) packet.
type Status struct {
	ID     int
	Err    byte
	Params []byte
}

// SyncParam carries one device's payload for a sync-write transaction.
type SyncParam struct {
	ID   int
	Data []byte
}

// Handler builds and parses packets for one protocol dialect. Implementations
// are stateless and safe for concurrent use.
type Handler interface {
	// Name identifies the dialect ("feetech", "dynamixel-v2").
	Name() string

	Ping(id int) []byte
	Read(id, addr, width int) []byte
	Write(id, addr int, data []byte) []byte
	SyncRead(addr, width int, ids []int) []byte
	SyncWrite(addr, width int, params []SyncParam) []byte

	// StatusLength reports the wire length of one status packet carrying
	// width payload bytes.
	StatusLength(width int) int

	// PingStatusLength reports the wire length of a ping status packet.
	PingStatusLength() int

	// ParseStatus parses the first complete status packet in buf and
	// returns it along with the number of bytes consumed.
	ParseStatus(buf []byte) (Status, int, error)
}
