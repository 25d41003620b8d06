package protocol

import "fmt"

// Feetech implements the SCS/STS framing: a two-byte 0xFF 0xFF header,
// one-byte length and an additive-complement checksum over everything from
// the ID onward. Multi-byte values are little-endian on the STS series.
type Feetech struct{}

func (Feetech) Name() string { return "feetech" }

func (f Feetech) encode(id int, inst byte, params []byte) []byte {
	buf := make([]byte, 0, 6+len(params))
	buf = append(buf, 0xFF, 0xFF)
	buf = append(buf, byte(id))
	buf = append(buf, byte(len(params)+2)) // instruction + checksum
	buf = append(buf, inst)
	buf = append(buf, params...)
	buf = append(buf, feetechChecksum(buf[2:]))
	return buf
}

func feetechChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum
}

func (f Feetech) Ping(id int) []byte {
	return f.encode(id, InstPing, nil)
}

func (f Feetech) Read(id, addr, width int) []byte {
	return f.encode(id, InstRead, []byte{byte(addr), byte(width)})
}

func (f Feetech) Write(id, addr int, data []byte) []byte {
	params := make([]byte, 0, 1+len(data))
	params = append(params, byte(addr))
	params = append(params, data...)
	return f.encode(id, InstWrite, params)
}

func (f Feetech) SyncRead(addr, width int, ids []int) []byte {
	params := make([]byte, 0, 2+len(ids))
	params = append(params, byte(addr), byte(width))
	for _, id := range ids {
		params = append(params, byte(id))
	}
	return f.encode(BroadcastID, InstSyncRead, params)
}

func (f Feetech) SyncWrite(addr, width int, syncParams []SyncParam) []byte {
	params := make([]byte, 0, 2+len(syncParams)*(1+width))
	params = append(params, byte(addr), byte(width))
	for _, p := range syncParams {
		params = append(params, byte(p.ID))
		params = append(params, p.Data...)
	}
	return f.encode(BroadcastID, InstSyncWrite, params)
}

// StatusLength: header(2) + id(1) + length(1) + error(1) + data + checksum(1).
func (Feetech) StatusLength(width int) int { return 6 + width }

func (Feetech) PingStatusLength() int { return 6 }

func (Feetech) ParseStatus(buf []byte) (Status, int, error) {
	start := -1
	for i := 0; i+6 <= len(buf); i++ {
		if buf[i] == 0xFF && buf[i+1] == 0xFF {
			start = i
			break
		}
	}
	if start < 0 {
		return Status{}, 0, ErrHeaderNotFound
	}
	buf = buf[start:]

	id := buf[2]
	length := int(buf[3])
	total := 4 + length
	if len(buf) < total {
		return Status{}, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrPacketTooShort, total, len(buf))
	}

	if got, want := buf[total-1], feetechChecksum(buf[2:total-1]); got != want {
		return Status{}, 0, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksum, got, want)
	}

	st := Status{ID: int(id), Err: buf[4]}
	if n := length - 2; n > 0 {
		st.Params = make([]byte, n)
		copy(st.Params, buf[5:5+n])
	}
	return st, start + total, nil
}
