package metadata

import (
	"github.com/tetratelabs/wazero/api"
)

// WASM section ids used by the decoder and encoder.
const (
	sectionType   = 0x01
	sectionImport = 0x02
)

// Import kinds as encoded in the import section.
const (
	importKindFunc   = 0x00
	importKindTable  = 0x01
	importKindMemory = 0x02
	importKindGlobal = 0x03
)

// appendULEB128 appends an unsigned value in LEB128 format.
func appendULEB128(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// appendSLEB128 appends a signed value in LEB128 format.
func appendSLEB128(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// appendName appends a length-prefixed UTF-8 name.
func appendName(dst []byte, name string) []byte {
	dst = appendULEB128(dst, uint32(len(name)))
	return append(dst, name...)
}

// decodeULEB128 decodes an unsigned LEB128 value, returning the value and
// the number of bytes consumed. A zero byte count signals truncated or
// overlong input.
func decodeULEB128(data []byte) (uint32, int) {
	var result uint32
	var shift uint32
	for i, b := range data {
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
		if shift > 35 {
			return 0, 0
		}
	}
	return 0, 0
}

// valTypeToWasm converts a wazero value type to its WASM encoding.
func valTypeToWasm(t api.ValueType) byte {
	switch t {
	case api.ValueTypeI32:
		return 0x7f
	case api.ValueTypeI64:
		return 0x7e
	case api.ValueTypeF32:
		return 0x7d
	case api.ValueTypeF64:
		return 0x7c
	default:
		return 0x7f
	}
}

// parseValType converts a WASM value-type encoding to a wazero value type.
// The bool result is false for encodings outside the core number types.
func parseValType(b byte) (api.ValueType, bool) {
	switch b {
	case 0x7F:
		return api.ValueTypeI32, true
	case 0x7E:
		return api.ValueTypeI64, true
	case 0x7D:
		return api.ValueTypeF32, true
	case 0x7C:
		return api.ValueTypeF64, true
	default:
		return 0, false
	}
}

// ValTypeName returns the WAT-style name of a value type, for diagnostics.
func ValTypeName(t api.ValueType) string {
	switch t {
	case api.ValueTypeI32:
		return "i32"
	case api.ValueTypeI64:
		return "i64"
	case api.ValueTypeF32:
		return "f32"
	case api.ValueTypeF64:
		return "f64"
	default:
		return "unknown"
	}
}
