package woz

import "testing"

func TestNibbleSkipsZeroBitsAndReadsEight(t *testing.T) {
	// A leading zero byte is self-sync padding; Nibble() should skip it
	// entirely and decode the following byte (1,0,0,1,0,1,1,0 = 0x96) as
	// the nibble, its first bit becoming the nibble's high bit.
	tr := NewTrack([]byte{0x00, 0x96}, 16)
	if got := tr.Nibble(); got != 0x96 {
		t.Fatalf("Nibble() = %#02x, want 0x96", got)
	}
}

func TestNibbleWrapsAndCountsRevolutions(t *testing.T) {
	tr := NewTrack([]byte{0x96}, 8)
	tr.Nibble()
	if tr.Revolutions != 1 {
		t.Fatalf("Revolutions = %d, want 1 after reading the only nibble on the track", tr.Revolutions)
	}
	if tr.BitIndex() != 0 {
		t.Fatalf("BitIndex() = %d, want 0 after wrap", tr.BitIndex())
	}
}

func TestFindLocatesSequence(t *testing.T) {
	// sync byte 0xFF (all the bits are 1, so any alignment reads as 0xFF),
	// then the three-nibble prologue 0xD5 0xAA 0x96.
	tr := NewTrack([]byte{0xFF, 0xD5, 0xAA, 0x96}, 32)
	if !tr.Find([]uint8{0xD5, 0xAA, 0x96}) {
		t.Fatal("Find did not locate the prologue")
	}
}

func TestFindThisNotThatFailsOnBadSeenFirst(t *testing.T) {
	// data prologue would come after an address prologue if we kept
	// reading, but FindThisNotThat must give up the moment it sees "bad".
	tr := NewTrack([]byte{0xD5, 0xAA, 0x96, 0xD5, 0xAA, 0xAD}, 48)
	good := []uint8{0xD5, 0xAA, 0xAD}
	bad := []uint8{0xD5, 0xAA, 0x96}
	if tr.FindThisNotThat(good, bad) {
		t.Fatal("FindThisNotThat should have failed: bad sequence precedes good")
	}
}

func TestFindThisNotThatSucceeds(t *testing.T) {
	tr := NewTrack([]byte{0xD5, 0xAA, 0xAD}, 24)
	good := []uint8{0xD5, 0xAA, 0xAD}
	bad := []uint8{0xD5, 0xAA, 0x96}
	if !tr.FindThisNotThat(good, bad) {
		t.Fatal("FindThisNotThat should have found the good sequence")
	}
}

func TestRewindBacksUpOneBitRegardlessOfArgument(t *testing.T) {
	tr := NewTrack([]byte{0x96}, 8)
	tr.Nibble()
	tr.Rewind(5) // deprecated argument; always backs up exactly one bit
	if tr.BitIndex() != 7 {
		t.Fatalf("BitIndex() = %d, want 7 after Rewind", tr.BitIndex())
	}
}
