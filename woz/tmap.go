package woz

import "math"

func dumpTMAPChunk(d *DiskImage) []byte {
	return dumpChunk("TMAP", d.TMap[:])
}

func dumpFluxChunk(d *DiskImage) []byte {
	return dumpChunk("FLUX", d.Flux[:])
}

// TrackNumToHalfPhase converts a quarter-track number (0..40, in steps of
// 0.25) into a TMap/Flux index, trackNum*4. Track numbers whose denominator
// (in lowest terms) isn't 1, 2 or 4 are invalid. Track 40 yields 160, one
// past the last slot of the 160-entry table; the table bound is not checked.
func TrackNumToHalfPhase(trackNum float64) (int, error) {
	if trackNum < 0.0 || trackNum > 40.0 {
		return 0, errf(KindInvalidTrack, "invalid track %v", trackNum)
	}
	quarter := trackNum * 4
	if math.Abs(quarter-math.Round(quarter)) > 1e-9 {
		return 0, errf(KindInvalidTrack, "invalid track %v", trackNum)
	}
	return int(math.Round(quarter)), nil
}

// AddTrack appends track to d.Tracks and wires it into the track map at
// the given quarter-track number, per TrackNumToHalfPhase.
func (d *DiskImage) AddTrack(trackNum float64, track *Track) error {
	hp, err := TrackNumToHalfPhase(trackNum)
	if err != nil {
		return err
	}
	d.Add(hp, track)
	return nil
}

// Add appends track and writes its index into tmap[halfPhase] and, when
// they exist, the adjacent quarter-phases (the drive head physically
// straddles them).
func (d *DiskImage) Add(halfPhase int, track *Track) {
	trkID := uint8(len(d.Tracks))
	d.Tracks = append(d.Tracks, track)
	d.TMap[halfPhase] = trkID
	if halfPhase > 0 {
		d.TMap[halfPhase-1] = trkID
	}
	if halfPhase < 159 {
		d.TMap[halfPhase+1] = trkID
	}
}

// RemoveTrack removes the track at the given quarter-track number. It
// returns true if anything was actually removed.
func (d *DiskImage) RemoveTrack(trackNum float64) (bool, error) {
	hp, err := TrackNumToHalfPhase(trackNum)
	if err != nil {
		return false, err
	}
	return d.Remove(hp), nil
}

// Remove clears tmap[halfPhase] and compacts the track list.
func (d *DiskImage) Remove(halfPhase int) bool {
	if d.TMap[halfPhase] == 0xFF {
		return false
	}
	d.TMap[halfPhase] = 0xFF
	d.Clean()
	return true
}

// Clean deletes any Track referenced from neither tmap nor flux, then
// decrements subsequent indices in both maps to stay consistent.
func (d *DiskImage) Clean() {
	i := 0
	for i < len(d.Tracks) {
		if !indexReferenced(d.TMap[:], i) && !(d.FluxPresent && indexReferenced(d.Flux[:], i)) {
			d.Tracks = append(d.Tracks[:i], d.Tracks[i+1:]...)
			decrementAbove(d.TMap[:], i)
			if d.FluxPresent {
				decrementAbove(d.Flux[:], i)
			}
		} else {
			i++
		}
	}
}

func indexReferenced(m []uint8, i int) bool {
	for _, v := range m {
		if v != 0xFF && int(v) == i {
			return true
		}
	}
	return false
}

func decrementAbove(m []uint8, i int) {
	for j, v := range m {
		if v != 0xFF && int(v) >= i {
			m[j] = v - 1
		}
	}
}

// Seek returns the Track at the given quarter-track number, or nil if no
// track is mapped there. When tmap has no entry and a FLUX map exists
// (version >= 3), it falls back to flux.
func (d *DiskImage) Seek(trackNum float64) (*Track, error) {
	hp, err := TrackNumToHalfPhase(trackNum)
	if err != nil {
		return nil, err
	}
	if idx := d.TMap[hp]; idx != 0xFF {
		return d.Tracks[idx], nil
	}
	if d.Info.Version >= 3 && d.FluxPresent {
		if idx := d.Flux[hp]; idx != 0xFF {
			return d.Tracks[idx], nil
		}
	}
	return nil, nil
}
