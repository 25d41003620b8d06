package protocol

import "fmt"

// DynamixelV2 implements the Dynamixel Protocol 2.0 framing: a four-byte
// 0xFF 0xFF 0xFD 0x00 header, little-endian 16-bit length and addresses, and
// a CRC16 trailer over everything that precedes it. Status packets carry the
// 0x55 status instruction before the error byte.
//
// Byte stuffing of header sequences inside payloads is not implemented; the
// register widths used on this bus never produce the escape sequence.
type DynamixelV2 struct{}

const dxlStatusInst = 0x55

func (DynamixelV2) Name() string { return "dynamixel-v2" }

func (d DynamixelV2) encode(id int, inst byte, params []byte) []byte {
	length := len(params) + 3 // instruction + crc(2)
	buf := make([]byte, 0, 10+len(params))
	buf = append(buf, 0xFF, 0xFF, 0xFD, 0x00)
	buf = append(buf, byte(id))
	buf = append(buf, byte(length), byte(length>>8))
	buf = append(buf, inst)
	buf = append(buf, params...)
	crc := crc16(buf)
	buf = append(buf, byte(crc), byte(crc>>8))
	return buf
}

// crc16 is the CRC-16/BUYPASS used by Protocol 2.0: polynomial 0x8005,
// zero initial value, no reflection.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func (d DynamixelV2) Ping(id int) []byte {
	return d.encode(id, InstPing, nil)
}

func (d DynamixelV2) Read(id, addr, width int) []byte {
	return d.encode(id, InstRead, []byte{
		byte(addr), byte(addr >> 8),
		byte(width), byte(width >> 8),
	})
}

func (d DynamixelV2) Write(id, addr int, data []byte) []byte {
	params := make([]byte, 0, 2+len(data))
	params = append(params, byte(addr), byte(addr>>8))
	params = append(params, data...)
	return d.encode(id, InstWrite, params)
}

func (d DynamixelV2) SyncRead(addr, width int, ids []int) []byte {
	params := make([]byte, 0, 4+len(ids))
	params = append(params, byte(addr), byte(addr>>8))
	params = append(params, byte(width), byte(width>>8))
	for _, id := range ids {
		params = append(params, byte(id))
	}
	return d.encode(BroadcastID, InstSyncRead, params)
}

func (d DynamixelV2) SyncWrite(addr, width int, syncParams []SyncParam) []byte {
	params := make([]byte, 0, 4+len(syncParams)*(1+width))
	params = append(params, byte(addr), byte(addr>>8))
	params = append(params, byte(width), byte(width>>8))
	for _, p := range syncParams {
		params = append(params, byte(p.ID))
		params = append(params, p.Data...)
	}
	return d.encode(BroadcastID, InstSyncWrite, params)
}

// StatusLength: header(4) + id(1) + length(2) + instruction(1) + error(1) +
// data + crc(2).
func (DynamixelV2) StatusLength(width int) int { return 11 + width }

// PingStatusLength: a ping status carries model number (2) and firmware
// version (1) as parameters.
func (d DynamixelV2) PingStatusLength() int { return d.StatusLength(3) }

func (DynamixelV2) ParseStatus(buf []byte) (Status, int, error) {
	start := -1
	for i := 0; i+11 <= len(buf); i++ {
		if buf[i] == 0xFF && buf[i+1] == 0xFF && buf[i+2] == 0xFD && buf[i+3] == 0x00 {
			start = i
			break
		}
	}
	if start < 0 {
		return Status{}, 0, ErrHeaderNotFound
	}
	buf = buf[start:]

	id := buf[4]
	length := int(buf[5]) | int(buf[6])<<8
	total := 7 + length
	if len(buf) < total {
		return Status{}, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrPacketTooShort, total, len(buf))
	}
	if buf[7] != dxlStatusInst {
		return Status{}, 0, fmt.Errorf("unexpected instruction 0x%02X in status packet", buf[7])
	}

	wireCRC := uint16(buf[total-2]) | uint16(buf[total-1])<<8
	if want := crc16(buf[:total-2]); wireCRC != want {
		return Status{}, 0, fmt.Errorf("%w: got 0x%04X, want 0x%04X", ErrChecksum, wireCRC, want)
	}

	st := Status{ID: int(id), Err: buf[8]}
	if n := length - 4; n > 0 { // length covers inst + err + params + crc
		st.Params = make([]byte, n)
		copy(st.Params, buf[9:9+n])
	}
	return st, start + total, nil
}
