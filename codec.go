package motorbus

// encodeValue encodes a non-negative integer as width little-endian bytes.
// Signed register values must be converted to their wire form first; see
// EncodeSignMagnitude and Family.EncodeRegisterValue.
func encodeValue(value int64, width int) ([]byte, error) {
	switch width {
	case 1, 2, 4:
	default:
		return nil, &UnsupportedWidthError{Width: width}
	}

	if value < 0 || value > int64(1)<<(8*width)-1 {
		return nil, &RangeError{Value: value, Width: width}
	}

	data := make([]byte, width)
	for i := 0; i < width; i++ {
		data[i] = byte(value >> (8 * i))
	}
	return data, nil
}

// decodeValue decodes little-endian bytes into an unsigned integer.
func decodeValue(data []byte) (int64, error) {
	switch len(data) {
	case 1, 2, 4:
	default:
		return 0, &UnsupportedWidthError{Width: len(data)}
	}

	var value int64
	for i, b := range data {
		value |= int64(b) << (8 * i)
	}
	return value, nil
}

// EncodeSignMagnitude converts a signed value into sign-magnitude form with
// the sign carried in bit signBit. Feetech servos store Homing_Offset this
// way (11-bit magnitude) instead of two's complement.
func EncodeSignMagnitude(value int64, signBit int) (int64, error) {
	maxMagnitude := int64(1)<<signBit - 1
	magnitude := value
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if magnitude > maxMagnitude {
		return 0, &RangeError{Value: value, Width: signBit}
	}
	if value < 0 {
		return magnitude | int64(1)<<signBit, nil
	}
	return magnitude, nil
}

// DecodeSignMagnitude is the inverse of EncodeSignMagnitude.
func DecodeSignMagnitude(value int64, signBit int) int64 {
	magnitude := value & (int64(1)<<signBit - 1)
	if value&(int64(1)<<signBit) != 0 {
		return -magnitude
	}
	return magnitude
}
