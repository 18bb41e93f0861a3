/*
Copyright © 2025 texneat contributors
*/
package sanitize

import "bytes"

// GetBOMInfo returns information about a byte order mark at the start of the
// stream, if any.
func GetBOMInfo(input []byte) (encoding string, bomSize int, found bool) {
	if len(input) == 0 {
		return "", 0, false
	}

	// UTF-32 variants first: their prefixes overlap the UTF-16 ones.
	if len(input) >= 4 && bytes.HasPrefix(input, []byte{0x00, 0x00, 0xFE, 0xFF}) {
		return "UTF-32BE", 4, true
	}
	if len(input) >= 4 && bytes.HasPrefix(input, []byte{0xFF, 0xFE, 0x00, 0x00}) {
		return "UTF-32LE", 4, true
	}
	if len(input) >= 3 && bytes.HasPrefix(input, []byte{0xEF, 0xBB, 0xBF}) {
		return "UTF-8", 3, true
	}
	if len(input) >= 2 && bytes.HasPrefix(input, []byte{0xFE, 0xFF}) {
		return "UTF-16BE", 2, true
	}
	if len(input) >= 2 && bytes.HasPrefix(input, []byte{0xFF, 0xFE}) {
		return "UTF-16LE", 2, true
	}
	return "", 0, false
}

// RemoveBOM strips a leading byte order mark of any supported encoding.
func RemoveBOM(input []byte) (out []byte, changed bool) {
	if _, size, found := GetBOMInfo(input); found {
		return input[size:], true
	}
	return input, false
}
