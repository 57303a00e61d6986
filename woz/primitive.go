package woz

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"
)

// uint16At and uint32At read little-endian integers out of a byte slice at
// a given offset. The container format is little-endian throughout, so
// every chunk loader goes through these.
func uint16At(b []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(b[offset : offset+2])
}

func uint32At(b []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(b[offset : offset+4])
}

func putUint16(b []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(b[offset:offset+2], v)
}

func putUint32(b []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(b[offset:offset+4], v)
}

// validUTF8 reports whether b is valid UTF-8 containing none of the given
// forbidden runes (used both for the INFO creator field and META values).
func validUTF8(b []byte, forbidden string) bool {
	if !utf8.Valid(b) {
		return false
	}
	return !strings.ContainsAny(string(b), forbidden)
}
