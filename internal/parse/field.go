// Package parse extracts delimiter-separated numeric fields from raw
// sensor messages without allocating per field. Callers locate a field as
// an (offset, length) window into the buffer they already own, then parse
// that window in place. All functions report validity with an ok flag; a
// false result means the current message is malformed or truncated and
// should be abandoned until the next message arrives.
package parse

import (
	"strconv"
	"unsafe"
)

// Field locates the index-th (0-based) sep-separated field of buf,
// counting from start. It returns the field's offset and length within
// buf. ok is false when the message holds fewer than index+1 fields.
// The returned window is only valid against the buffer snapshot it was
// computed from.
func Field(buf []byte, sep byte, start, index int) (off, n int, ok bool) {
	if start < 0 || start > len(buf) || index < 0 {
		return 0, 0, false
	}

	off = start
	for skipped := 0; skipped < index; skipped++ {
		i := indexByte(buf, sep, off)
		if i < 0 {
			return 0, 0, false
		}
		off = i + 1
	}

	end := indexByte(buf, sep, off)
	if end < 0 {
		end = len(buf)
	}
	return off, end - off, true
}

// Float64 parses the index-th field of buf as a float64. ok is false
// when the field is missing or not a valid number.
func Float64(buf []byte, sep byte, start, index int) (float64, bool) {
	off, n, ok := Field(buf, sep, start, index)
	if !ok || n == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(noCopyString(buf[off:off+n]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int64 parses the index-th field of buf as a signed integer. ok is
// false when the field is missing or not a valid integer.
func Int64(buf []byte, sep byte, start, index int) (int64, bool) {
	off, n, ok := Field(buf, sep, start, index)
	if !ok || n == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(noCopyString(buf[off:off+n]), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func indexByte(buf []byte, sep byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == sep {
			return i
		}
	}
	return -1
}

// noCopyString views b as a string without copying. The string must not
// outlive the current parse call; strconv does not retain its argument.
func noCopyString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
