package prefab

import "errors"

var errVarIntTooLong = errors.New("varint too long")

// readVarInt decodes one unsigned LEB128 value from buf and returns it
// with the number of bytes consumed.
func readVarInt(buf []byte) (int32, int, error) {
	var result uint32
	for n := 0; n < len(buf); n++ {
		if n >= 5 {
			return 0, n, errVarIntTooLong
		}
		b := buf[n]
		result |= uint32(b&0x7F) << (7 * n)
		if b&0x80 == 0 {
			return int32(result), n + 1, nil
		}
	}
	return 0, len(buf), errors.New("truncated varint")
}

// appendVarInt encodes v onto buf.
func appendVarInt(buf []byte, v int32) []byte {
	val := uint32(v)
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if val == 0 {
			return buf
		}
	}
}
