// Package rwts decodes the GCR-encoded bitstream ("Moof RWTS") that the
// Apple 3.5" disk controller writes onto a woz.Track, recovering the
// logical 524-byte sectors (12 tag bytes + 512 data bytes) it protects.
package rwts

import "github.com/woztool/woz/woz"

// AddressPrologue, AddressEpilogue, DataPrologue and DataEpilogue are the
// fixed sync-byte sequences that bracket each field on a 3.5" GCR track.
var (
	AddressPrologue = []uint8{0xD5, 0xAA, 0x96}
	AddressEpilogue = []uint8{0xDE, 0xAA}
	DataPrologue    = []uint8{0xD5, 0xAA, 0xAD}
	DataEpilogue    = []uint8{0xDE, 0xAA}
)

// nibbleTranslateTable is the 6-and-2 GCR table: every valid on-disk
// nibble in [0x96,0xFF] maps to a 6-bit payload value. Nibbles absent from
// this table are not legal GCR bytes.
var nibbleTranslateTable = map[uint8]uint8{
	0x96: 0x00, 0x97: 0x01, 0x9A: 0x02, 0x9B: 0x03, 0x9D: 0x04, 0x9E: 0x05, 0x9F: 0x06, 0xA6: 0x07,
	0xA7: 0x08, 0xAB: 0x09, 0xAC: 0x0A, 0xAD: 0x0B, 0xAE: 0x0C, 0xAF: 0x0D, 0xB2: 0x0E, 0xB3: 0x0F,
	0xB4: 0x10, 0xB5: 0x11, 0xB6: 0x12, 0xB7: 0x13, 0xB9: 0x14, 0xBA: 0x15, 0xBB: 0x16, 0xBC: 0x17,
	0xBD: 0x18, 0xBE: 0x19, 0xBF: 0x1A, 0xCB: 0x1B, 0xCD: 0x1C, 0xCE: 0x1D, 0xCF: 0x1E, 0xD3: 0x1F,
	0xD6: 0x20, 0xD7: 0x21, 0xD9: 0x22, 0xDA: 0x23, 0xDB: 0x24, 0xDC: 0x25, 0xDD: 0x26, 0xDE: 0x27,
	0xDF: 0x28, 0xE5: 0x29, 0xE6: 0x2A, 0xE7: 0x2B, 0xE9: 0x2C, 0xEA: 0x2D, 0xEB: 0x2E, 0xEC: 0x2F,
	0xED: 0x30, 0xEE: 0x31, 0xEF: 0x32, 0xF2: 0x33, 0xF3: 0x34, 0xF4: 0x35, 0xF5: 0x36, 0xF6: 0x37,
	0xF7: 0x38, 0xF9: 0x39, 0xFA: 0x3A, 0xFB: 0x3B, 0xFC: 0x3C, 0xFD: 0x3D, 0xFE: 0x3E, 0xFF: 0x3F,
}

// e7Bytestream is the fixed 20-byte signature of a well-known copy
// protection scheme, looked for at data offset 0x18F.
var e7Bytestream = [20]byte{
	0x2B, 0x00, 0x2B, 0xFD, 0x83, 0x6F, 0x20, 0xE2,
	0x8D, 0x99, 0x49, 0x44, 0x47, 0x82, 0xD9, 0x26,
	0xFB, 0xC6, 0x03, 0xF8,
}

// pacePrologue is the protection sentinel: twelve 0xFF sync nibbles
// followed by AB CD EF EF.
var pacePrologue = []uint8{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xAB, 0xCD, 0xEF, 0xEF,
}

// sectorsPerTrack returns the expected sector count for a physical track
// ID, derived from the band it falls in (32 track-IDs per band, bands
// 0..4 hold 12,11,10,9,8 sectors respectively). ok is false for track IDs
// outside the defined bands.
func sectorsPerTrack(trackID int) (int, bool) {
	if trackID < 0 || trackID > 0x9F {
		return 0, false
	}
	band := trackID / 0x20
	return 12 - band, true
}

// translate looks up a raw disk nibble in the 6-and-2 table. ok is false
// for an invalid (non-GCR) nibble.
func translate(n uint8) (uint8, bool) {
	v, ok := nibbleTranslateTable[n]
	return v, ok
}

func nibble(t *woz.Track) (uint8, bool) {
	return translate(t.Nibble())
}
