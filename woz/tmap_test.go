package woz

import "testing"

func TestTrackNumToHalfPhase(t *testing.T) {
	cases := []struct {
		trackNum float64
		want     int
		wantErr  bool
	}{
		{0, 0, false},
		{0.25, 1, false},
		{0.5, 2, false},
		{0.75, 3, false},
		{35, 140, false},
		{40, 160, false}, // out of [0,159] range but in [0,40] input range: see below
		{-1, 0, true},
		{40.1, 0, true},
		{1.0 / 3, 0, true}, // not a quarter-track
	}
	for _, c := range cases {
		got, err := TrackNumToHalfPhase(c.trackNum)
		if c.trackNum == 40 {
			// 40.0 maps to half-phase 160, one past the 160-slot table;
			// wozardry callers never pass 40 itself (max valid track is
			// 39.75 = index 159), but TrackNumToHalfPhase only validates
			// the quarter-track arithmetic, not table bounds.
			if err != nil {
				t.Fatalf("TrackNumToHalfPhase(40): unexpected error %v", err)
			}
			if got != 160 {
				t.Fatalf("TrackNumToHalfPhase(40) = %d, want 160", got)
			}
			continue
		}
		if c.wantErr {
			if err == nil {
				t.Fatalf("TrackNumToHalfPhase(%v): expected error", c.trackNum)
			}
			continue
		}
		if err != nil {
			t.Fatalf("TrackNumToHalfPhase(%v): unexpected error %v", c.trackNum, err)
		}
		if got != c.want {
			t.Fatalf("TrackNumToHalfPhase(%v) = %d, want %d", c.trackNum, got, c.want)
		}
	}
}

func TestAddSeekRemove(t *testing.T) {
	d := New()
	tr := NewTrack([]byte{0xFF}, 8)
	if err := d.AddTrack(10, tr); err != nil {
		t.Fatal(err)
	}

	got, err := d.Seek(10)
	if err != nil {
		t.Fatal(err)
	}
	if got != tr {
		t.Fatal("Seek(10) did not return the added track")
	}
	// The adjacent quarter-phases should alias the same track.
	if got, _ := d.Seek(9.75); got != tr {
		t.Fatal("Seek(9.75) did not alias the added track")
	}
	if got, _ := d.Seek(10.25); got != tr {
		t.Fatal("Seek(10.25) did not alias the added track")
	}

	// Remove only clears the exact half-phase slot named: the two
	// straddling quarter-phases Add wired up still reference the track
	// until they too are cleared, so it survives Clean() in the meantime.
	removed, err := d.RemoveTrack(10)
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Fatal("RemoveTrack(10) reported nothing removed")
	}
	if got, _ := d.Seek(10); got != nil {
		t.Fatal("Seek(10) should be nil after removal")
	}
	if got, _ := d.Seek(9.75); got != tr {
		t.Fatal("Seek(9.75) should still alias the track: its slot wasn't removed")
	}
	if len(d.Tracks) != 1 {
		t.Fatalf("track should survive Clean() while still referenced from 9.75/10.25, got len %d", len(d.Tracks))
	}
}

func TestCleanCompactsIndices(t *testing.T) {
	d := New()
	t1 := NewTrack([]byte{0x01}, 8)
	t2 := NewTrack([]byte{0x02}, 8)
	t3 := NewTrack([]byte{0x03}, 8)
	d.Add(4, t1)   // wires tmap[3,4,5] = 0
	d.Add(8, t2)   // wires tmap[7,8,9] = 1
	d.Add(100, t3) // wires tmap[99,100,101] = 2

	// Clearing all three slots Add wired for t2 fully dereferences it.
	d.Remove(7)
	d.Remove(8)
	if len(d.Tracks) != 3 {
		t.Fatal("t2 should still be referenced via tmap[9]")
	}
	d.Remove(9)

	if len(d.Tracks) != 2 {
		t.Fatalf("expected 2 tracks after fully removing the middle one, got %d", len(d.Tracks))
	}
	if d.Tracks[0] != t1 || d.Tracks[1] != t3 {
		t.Fatal("Clean did not preserve relative order of surviving tracks")
	}
	if got, _ := d.Seek(1.0); got != t1 {
		t.Fatal("Seek(1.0) broken after compaction")
	}
	if got, _ := d.Seek(25.0); got != t3 {
		t.Fatal("Seek(25.0) broken after compaction (t3's index should have shifted down by one)")
	}
}
