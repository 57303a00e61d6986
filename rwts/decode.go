package rwts

import (
	"fmt"

	"github.com/woztool/woz/woz"
)

// MoofAddressField is the decoded address field preceding a sector's data.
type MoofAddressField struct {
	Valid    bool
	Volume   uint8
	TrackID  int
	SectorID int
}

// MoofDataField is the decoded, checksum-validated payload of a sector.
type MoofDataField struct {
	Valid    bool
	SectorID int
	Tags     [12]byte
	Data     [512]byte
}

// MoofBlock is one recovered logical sector.
type MoofBlock struct {
	AddressField MoofAddressField
	DataField    MoofDataField
}

// EventKind discriminates the recoverable, per-sector conditions
// Decode logs instead of aborting.
type EventKind string

const (
	EventAddressChecksum EventKind = "AddressChecksum"
	EventBadTrackId      EventKind = "BadTrackId"
	EventBadSectorId     EventKind = "BadSectorId"
	EventBadAddrEpilogue EventKind = "BadAddrEpilogue"
	EventDataChecksum    EventKind = "DataChecksum"
	EventSectorIdMismatch EventKind = "SectorIdMismatch"
	EventBadDataEpilogue EventKind = "BadDataEpilogue"
	EventInvalidNibble   EventKind = "InvalidNibble"
	EventSectorCountShort EventKind = "SectorCountShort"
	EventPaceKeyFound    EventKind = "PaceKeyFound"
	EventE7Found         EventKind = "E7Found"
)

// Event is a structured log entry emitted by Decode for conditions
// that don't abort decoding: a bad sector is skipped, not fatal.
type Event struct {
	Kind     EventKind
	TrackID  int
	SectorID int

	// Expected/Got are populated for SectorCountShort.
	Expected int
	Got      int

	// Key is populated for PaceKeyFound.
	Key string
}

func (e Event) String() string {
	switch e.Kind {
	case EventSectorCountShort:
		return fmt.Sprintf("T%#02x found %d sectors (expected %d)", e.TrackID, e.Got, e.Expected)
	case EventPaceKeyFound:
		return fmt.Sprintf("T%#02x,S%#02x found PACE protection, key=%s", e.TrackID, e.SectorID, e.Key)
	default:
		return fmt.Sprintf("T%#02x,S%#02x %s", e.TrackID, e.SectorID, e.Kind)
	}
}

// Decode runs the per-track sector-hunt state machine over t, returning
// every sector it could recover plus a log of skipped or otherwise
// notable conditions encountered along the way. The hunt stops when a
// sector ID repeats or after two revolutions of the track.
func Decode(t *woz.Track) ([]MoofBlock, []Event) {
	var blocks []MoofBlock
	var events []Event

	seen := map[int]bool{}
	trackID := -1
	startRevolutions := t.Revolutions

	for t.Revolutions < startRevolutions+2 {
		if !t.Find(AddressPrologue) {
			break
		}
		af, ok := readAddressField(t)
		if !ok {
			events = append(events, Event{Kind: EventInvalidNibble})
			continue
		}
		if !af.Valid {
			events = append(events, Event{Kind: EventAddressChecksum, TrackID: af.TrackID, SectorID: af.SectorID})
			continue
		}
		if af.TrackID < 0 || af.TrackID > 0x9F {
			events = append(events, Event{Kind: EventBadTrackId, TrackID: af.TrackID})
			continue
		}
		expected, ok := sectorsPerTrack(af.TrackID)
		if !ok || af.SectorID < 0 || af.SectorID >= expected {
			events = append(events, Event{Kind: EventBadSectorId, SectorID: af.SectorID})
			continue
		}
		if !verifyNibbles(t, AddressEpilogue) {
			events = append(events, Event{Kind: EventBadAddrEpilogue, TrackID: af.TrackID, SectorID: af.SectorID})
			continue
		}
		if seen[af.SectorID] {
			break // revolution complete
		}
		seen[af.SectorID] = true

		savedBitIndex := t.BitIndex()
		if !t.FindThisNotThat(DataPrologue, AddressPrologue) {
			if key, found := getPaceKeyAtPoint(t, savedBitIndex); found {
				events = append(events, Event{Kind: EventPaceKeyFound, TrackID: af.TrackID, SectorID: af.SectorID, Key: key})
			}
			continue
		}

		df, ok := readDataField(t)
		if !ok {
			events = append(events, Event{Kind: EventInvalidNibble, TrackID: af.TrackID, SectorID: af.SectorID})
			continue
		}
		if !df.Valid {
			events = append(events, Event{Kind: EventDataChecksum, TrackID: af.TrackID, SectorID: af.SectorID})
			continue
		}
		if df.SectorID != af.SectorID {
			events = append(events, Event{Kind: EventSectorIdMismatch, TrackID: af.TrackID, SectorID: af.SectorID})
			continue
		}
		if isE7Bitstream(df.Data) {
			events = append(events, Event{Kind: EventE7Found, TrackID: af.TrackID, SectorID: af.SectorID})
		}
		if !verifyNibbles(t, DataEpilogue) {
			events = append(events, Event{Kind: EventBadDataEpilogue, TrackID: af.TrackID, SectorID: af.SectorID})
			continue
		}

		trackID = af.TrackID
		blocks = append(blocks, MoofBlock{AddressField: af, DataField: df})
	}

	if trackID != -1 {
		expected, _ := sectorsPerTrack(trackID)
		if len(seen) < expected {
			events = append(events, Event{Kind: EventSectorCountShort, TrackID: trackID, Expected: expected, Got: len(seen)})
		}
	}

	return blocks, events
}

func isE7Bitstream(data [512]byte) bool {
	for i := 0; i < 0x18E; i++ {
		if data[i] != 0 {
			return false
		}
	}
	for i := 0; i < len(e7Bytestream); i++ {
		if data[0x18F+i] != e7Bytestream[i] {
			return false
		}
	}
	return true
}

// readAddressField reads the 5 translated nibbles following an address
// prologue and decodes volume/track/sector/checksum.
func readAddressField(t *woz.Track) (MoofAddressField, bool) {
	h0, ok := nibble(t)
	if !ok {
		return MoofAddressField{}, false
	}
	sectorID, ok := nibble(t)
	if !ok {
		return MoofAddressField{}, false
	}
	h2, ok := nibble(t)
	if !ok {
		return MoofAddressField{}, false
	}
	volume, ok := nibble(t)
	if !ok {
		return MoofAddressField{}, false
	}
	checksum, ok := nibble(t)
	if !ok {
		return MoofAddressField{}, false
	}
	valid := (h0 ^ sectorID ^ h2 ^ volume) == checksum
	trackID := (int(h0) << 1) | (int(h2&0b1) << 7) | (int(h2&0b100000) >> 5)
	return MoofAddressField{
		Valid:    valid,
		Volume:   volume,
		TrackID:  trackID,
		SectorID: int(sectorID),
	}, true
}

// verifyNibbles reads len(want) raw (untranslated) nibbles and checks them
// against want, used for the address/data epilogues and the PACE prologue.
// These sentinels live outside the 6-and-2 GCR alphabet, so they're
// compared against the raw on-disk nibble rather than a translated value.
func verifyNibbles(t *woz.Track, want []uint8) bool {
	for _, w := range want {
		if t.Nibble() != w {
			return false
		}
	}
	return true
}

// readDataField implements the three-way checksum GCR decode of the
// 524-byte (12 tag + 512 data) sector payload.
func readDataField(t *woz.Track) (MoofDataField, bool) {
	sectorID, ok := nibble(t)
	if !ok {
		return MoofDataField{}, false
	}

	type group struct{ a, b, c, d uint8 }
	groups := make([]group, 175)
	for i := range groups {
		a, ok1 := nibble(t)
		b, ok2 := nibble(t)
		c, ok3 := nibble(t)
		d, ok4 := nibble(t)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return MoofDataField{}, false
		}
		groups[i] = group{a, b, c, d}
	}

	var c1, c2, c3 int
	plain := make([]byte, 0, 524)
	emit := func(d0, d1, d2 uint8) {
		c1 = (c1 << 1) & 0x1FF
		if c1 > 0xFF {
			c1 -= 0xFF
			c3++
		}
		b0 := d0 ^ uint8(c1&0xFF)
		c3 += int(b0)
		plain = append(plain, b0)

		if c3 > 0xFF {
			c3 &= 0xFF
			c2++
		}
		b1 := d1 ^ uint8(c3&0xFF)
		c2 += int(b1)
		plain = append(plain, b1)

		if c2 > 0xFF {
			c2 &= 0xFF
			c1++
		}
		b2 := d2 ^ uint8(c2&0xFF)
		c1 += int(b2)
		plain = append(plain, b2)
	}
	for _, g := range groups {
		d0 := (g.b & 0x3F) | ((g.a << 2) & 0xC0)
		d1 := (g.c & 0x3F) | ((g.a << 4) & 0xC0)
		d2 := (g.d & 0x3F) | ((g.a << 6) & 0xC0)
		emit(d0, d1, d2)
	}

	valid := groups[174].d == finalChecksumNibble(c1, c2, c3)

	n1, ok1 := nibble(t)
	n2, ok2 := nibble(t)
	n3, ok3 := nibble(t)
	if !ok1 || !ok2 || !ok3 {
		return MoofDataField{}, false
	}
	valid = valid && n1 == uint8(c3&0x3F)
	valid = valid && n2 == uint8(c2&0x3F)
	valid = valid && n3 == uint8(c1&0x3F)

	var df MoofDataField
	df.Valid = valid
	df.SectorID = int(sectorID)
	copy(df.Tags[:], plain[:12])
	copy(df.Data[:], plain[12:524])
	return df, true
}

// finalChecksumNibble combines the high two bits of each running checksum
// into the 6-bit value the last group's 4th GCR nibble must equal for the
// data field to validate. Each term is masked to its top two bits before
// shifting down, not shifted first and masked after: the two only agree
// for c1 (bits 7:6 shifted to 1:0 either way), but c2 and c3's low nibble
// bits would otherwise leak into the result.
func finalChecksumNibble(c1, c2, c3 int) uint8 {
	return (uint8(c1&0xC0) >> 6) | (uint8(c2&0xC0) >> 4) | (uint8(c3&0xC0) >> 2)
}

// getPaceKeyAtPoint looks for the PACE protection sentinel at savedBitIndex
// (the cursor position just before the failed data-prologue search) and,
// if found, extracts and reports its key. The cursor is restored to
// t's current position afterward regardless of outcome.
func getPaceKeyAtPoint(t *woz.Track, savedBitIndex int) (string, bool) {
	resumeAt := t.BitIndex()
	t.SetBitIndex(savedBitIndex)
	defer t.SetBitIndex(resumeAt)

	if !verifyNibbles(t, pacePrologue) {
		return "", false
	}
	for i := 0; i < 4; i++ {
		t.Nibble()
	}
	var key [4]uint16
	for i := 0; i < 4; i++ {
		hi := t.Nibble()
		lo := t.Nibble()
		x := (uint16(hi) << 8) | uint16(lo)
		x &= 0x5555
		x = (x | (x >> 1)) & 0x3333
		x = (x | (x >> 2)) & 0x0F0F
		x = (x | (x >> 4)) & 0x00FF
		x = (x | (x >> 8)) & 0xFFFF
		key[i] = x
	}
	out := make([]byte, 0, 8)
	for i := 3; i >= 0; i-- {
		out = append(out, fmt.Sprintf("%02X", key[i])...)
	}
	return string(out), true
}
