package woz

import "strings"

// DiskType is the INFO chunk's disk_type field. WOZ1/WOZ2 use 1 (5.25")
// or 2 (3.5"); MOOF uses a wider 0-3 range (see MoofDiskType).
type DiskType uint8

const (
	DiskType525 DiskType = 1
	DiskType35  DiskType = 2
)

// MoofDiskType values, valid only when ImageType == ImageTypeMOOF.
const (
	MoofDiskUnknown MoofDiskType = 0
	MoofDisk400K    MoofDiskType = 1
	MoofDisk800K    MoofDiskType = 2
	MoofDisk144M    MoofDiskType = 3
)

// MoofDiskType names DiskType's MOOF-specific range. It is an alias of
// DiskType, so its values compare freely with WOZ's DiskType525/DiskType35.
type MoofDiskType = DiskType

// defaultBitTiming mirrors kDefaultBitTiming: indexed by disk_type (index 0
// unused), giving the optimal_bit_timing a disk_type switch defaults to.
var defaultBitTiming = map[DiskType]uint8{
	DiskType525: 32,
	DiskType35:  16,
}

// Info is the INFO chunk's fields (spec §4.3), covering all three image
// variants; fields not meaningful for a given variant are left zero.
type Info struct {
	Version        uint8
	DiskType       DiskType
	WriteProtected bool
	Synchronized   bool

	// Cleaned is WOZ1/WOZ2 only; OptimalBitTiming doubles as byte 4 for
	// MOOF and byte 39 for WOZ2 (WOZ1 has neither).
	Cleaned          bool
	OptimalBitTiming uint8

	Creator string

	// WOZ2 only.
	DiskSides          uint8
	BootSectorFormat   uint8
	CompatibleHardware []string
	RequiredRAM        uint16
	LargestTrack       uint16

	// WOZ2/MOOF with a FLUX chunk present.
	FluxBlock        uint16
	LargestFluxTrack uint16
}

func (d *DiskImage) loadInfo(data []byte) error {
	if len(data) != 60 {
		return errf(KindBadChunkSize, "expected INFO chunk length of 60; got %d", len(data))
	}
	info := &d.Info

	version, err := d.validateVersion(data[0])
	if err != nil {
		return err
	}
	info.Version = version

	diskType, err := d.validateDiskType(data[1])
	if err != nil {
		return err
	}
	info.DiskType = diskType

	wp, err := validateBoolByte(data[2], KindBadWriteProtected, "write protected")
	if err != nil {
		return err
	}
	info.WriteProtected = wp

	sync, err := validateBoolByte(data[3], KindBadSynchronized, "synchronized")
	if err != nil {
		return err
	}
	info.Synchronized = sync

	if d.ImageType == ImageTypeMOOF {
		t, err := d.validateOptimalBitTiming(data[4])
		if err != nil {
			return err
		}
		info.OptimalBitTiming = t
	} else {
		cleaned, err := validateBoolByte(data[4], KindBadCleaned, "cleaned")
		if err != nil {
			return err
		}
		info.Cleaned = cleaned
	}

	creator, err := validateCreatorBytes(data[5:37])
	if err != nil {
		return err
	}
	info.Creator = creator

	if d.ImageType == ImageTypeWOZ1 {
		return nil
	}

	if d.ImageType == ImageTypeMOOF {
		// byte 37 is unused; largest_track/flux_block/largest_flux_track
		// immediately follow.
		info.LargestTrack = uint16At(data, 38)
		info.FluxBlock = uint16At(data, 40)
		info.LargestFluxTrack = uint16At(data, 42)
		return nil
	}

	sides, err := d.validateDiskSides(data[37])
	if err != nil {
		return err
	}
	info.DiskSides = sides

	boot, err := d.validateBootSectorFormat(data[38])
	if err != nil {
		return err
	}
	info.BootSectorFormat = boot

	t, err := d.validateOptimalBitTiming(data[39])
	if err != nil {
		return err
	}
	info.OptimalBitTiming = t

	bitfield, err := validateCompatibleHardware(uint16At(data, 40))
	if err != nil {
		return err
	}
	info.CompatibleHardware = expandCompatibleHardware(bitfield)

	info.RequiredRAM = uint16At(data, 42)
	info.LargestTrack = uint16At(data, 44)
	info.FluxBlock = uint16At(data, 46)
	info.LargestFluxTrack = uint16At(data, 48)

	return nil
}

func (d *DiskImage) validateVersion(b byte) (uint8, error) {
	v := b
	switch d.ImageType {
	case ImageTypeWOZ1:
		if v != 1 {
			return 0, errf(KindBadVersion, "expected version 1, found %d", v)
		}
	case ImageTypeWOZ2:
		if v < 2 {
			return 0, errf(KindBadVersion, "expected version 2 or more, found %d", v)
		}
	case ImageTypeMOOF:
		if v != 1 {
			return 0, errf(KindBadVersion, "expected version 1, found %d", v)
		}
	}
	return v, nil
}

func (d *DiskImage) validateDiskType(b byte) (DiskType, error) {
	dt := DiskType(b)
	if d.ImageType == ImageTypeMOOF {
		if dt > 3 {
			return 0, errf(KindBadDiskType, "expected 0-3, found %d", b)
		}
		return dt, nil
	}
	if dt != DiskType525 && dt != DiskType35 {
		return 0, errf(KindBadDiskType, "expected 1 or 2, found %d", b)
	}
	return dt, nil
}

func validateBoolByte(b byte, kind Kind, name string) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errf(kind, "expected boolean value for %s, found %d", name, b)
	}
}

func validateCreatorBytes(b []byte) (string, error) {
	if !validUTF8(b, "") {
		return "", errf(KindBadCreator, "creator is not valid UTF-8")
	}
	return strings.TrimRight(string(b), " "), nil
}

func (d *DiskImage) validateDiskSides(b byte) (uint8, error) {
	switch d.Info.DiskType {
	case DiskType525:
		if b != 1 {
			return 0, errf(KindBadDiskSides, "expected 1 for a 5.25-inch disk, found %d", b)
		}
	case DiskType35:
		if b != 1 && b != 2 {
			return 0, errf(KindBadDiskSides, "expected 1 or 2 for a 3.5-inch disk, found %d", b)
		}
	}
	return b, nil
}

func (d *DiskImage) validateBootSectorFormat(b byte) (uint8, error) {
	switch d.Info.DiskType {
	case DiskType525:
		if b > 3 {
			return 0, errf(KindBadBootSectorFormat, "expected 0-3 for a 5.25-inch disk, found %d", b)
		}
	case DiskType35:
		if b != 0 {
			return 0, errf(KindBadBootSectorFormat, "expected 0 for a 3.5-inch disk, found %d", b)
		}
	}
	return b, nil
}

func (d *DiskImage) validateOptimalBitTiming(b byte) (uint8, error) {
	if d.ImageType == ImageTypeMOOF {
		if b != 8 && b != 16 {
			return 0, errf(KindBadOptimalBitTiming, "expected 8 or 16, found %d", b)
		}
		return b, nil
	}
	switch d.Info.DiskType {
	case DiskType525:
		if b < 24 || b > 40 {
			return 0, errf(KindBadOptimalBitTiming, "expected 24-40 for a 5.25-inch disk, found %d", b)
		}
	case DiskType35:
		if b < 8 || b > 24 {
			return 0, errf(KindBadOptimalBitTiming, "expected 8-24 for a 3.5-inch disk, found %d", b)
		}
	}
	return b, nil
}

func validateCompatibleHardware(bitfield uint16) (uint16, error) {
	if bitfield&0xFE00 != 0 {
		return 0, errf(KindBadCompatibleHarware, "7 high bits must be 0 but some were 1")
	}
	return bitfield, nil
}

func expandCompatibleHardware(bitfield uint16) []string {
	var list []string
	for offset := 0; offset < len(RequiredMachines); offset++ {
		if bitfield&(1<<uint(offset)) != 0 {
			list = append(list, RequiredMachines[offset])
		}
	}
	return list
}

func compressCompatibleHardware(list []string) uint16 {
	var bitfield uint16
	for offset, name := range RequiredMachines {
		if contains(list, name) {
			bitfield |= 1 << uint(offset)
		}
	}
	return bitfield
}

// dumpInfoChunk recomputes the derived fields (largest_track, flux_block,
// largest_flux_track) in one pass before emitting INFO, per spec §4.7's
// "compute in one pass over tracks before emitting INFO" note.
func dumpInfoChunk(d *DiskImage, tmapTrksLen int) ([]byte, error) {
	info := &d.Info
	chunk := make([]byte, 0, 68)
	chunk = append(chunk, "INFO"...)
	chunk = append(chunk, 0, 0, 0, 0)
	putUint32(chunk, 4, 60)

	if _, err := d.validateVersion(info.Version); err != nil {
		return nil, err
	}
	chunk = append(chunk, info.Version)

	if _, err := d.validateDiskType(byte(info.DiskType)); err != nil {
		return nil, err
	}
	chunk = append(chunk, byte(info.DiskType))

	chunk = append(chunk, boolByte(info.WriteProtected))
	chunk = append(chunk, boolByte(info.Synchronized))

	if d.ImageType == ImageTypeMOOF {
		if _, err := d.validateOptimalBitTiming(info.OptimalBitTiming); err != nil {
			return nil, err
		}
		chunk = append(chunk, info.OptimalBitTiming)
	} else {
		chunk = append(chunk, boolByte(info.Cleaned))
	}

	creatorRaw := padCreator(info.Creator)
	if _, err := validateCreatorBytes(creatorRaw); err != nil {
		return nil, err
	}
	chunk = append(chunk, creatorRaw...)

	if d.ImageType == ImageTypeWOZ1 {
		chunk = append(chunk, make([]byte, 23)...)
		return chunk, nil
	}

	largestTrack := computeLargestTrackBlocks(d, d.TMap[:])
	var fluxBlock, largestFluxTrack uint16
	if d.FluxPresent {
		fluxBlock = uint16((tmapTrksLen + 511) / 512)
		largestFluxTrack = computeLargestTrackBlocksFlux(d)
	}

	if d.ImageType == ImageTypeMOOF {
		chunk = append(chunk, 0) // unused
	} else {
		if _, err := d.validateDiskSides(info.DiskSides); err != nil {
			return nil, err
		}
		chunk = append(chunk, info.DiskSides)

		if _, err := d.validateBootSectorFormat(info.BootSectorFormat); err != nil {
			return nil, err
		}
		chunk = append(chunk, info.BootSectorFormat)

		if _, err := d.validateOptimalBitTiming(info.OptimalBitTiming); err != nil {
			return nil, err
		}
		chunk = append(chunk, info.OptimalBitTiming)

		bitfield := compressCompatibleHardware(info.CompatibleHardware)
		var bfBuf [2]byte
		putUint16(bfBuf[:], 0, bitfield)
		chunk = append(chunk, bfBuf[:]...)

		var ramBuf [2]byte
		putUint16(ramBuf[:], 0, info.RequiredRAM)
		chunk = append(chunk, ramBuf[:]...)
	}

	var buf [2]byte
	putUint16(buf[:], 0, largestTrack)
	chunk = append(chunk, buf[:]...)
	putUint16(buf[:], 0, fluxBlock)
	chunk = append(chunk, buf[:]...)
	putUint16(buf[:], 0, largestFluxTrack)
	chunk = append(chunk, buf[:]...)

	if len(chunk) < 68 {
		chunk = append(chunk, make([]byte, 68-len(chunk))...)
	}
	return chunk, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func padCreator(s string) []byte {
	b := []byte(s)
	if len(b) > 32 {
		b = b[:32]
	}
	for len(b) < 32 {
		b = append(b, ' ')
	}
	return b
}

// blockCount returns the number of 512-byte blocks a bitstream of the
// given bit count occupies: ceil(ceil(rawCount/8)/512).
func blockCount(rawCount int) int {
	if rawCount <= 0 {
		return 0
	}
	bytesNeeded := (rawCount + 7) / 8
	return (bytesNeeded + 511) / 512
}

func computeLargestTrackBlocks(d *DiskImage, tmap []uint8) uint16 {
	max := 0
	for _, idx := range tmap {
		if idx == 0xFF {
			continue
		}
		if int(idx) >= len(d.Tracks) {
			continue
		}
		bc := blockCount(d.Tracks[idx].RawCount)
		if bc > max {
			max = bc
		}
	}
	return uint16(max)
}

func computeLargestTrackBlocksFlux(d *DiskImage) uint16 {
	max := 0
	for _, idx := range d.Flux {
		if idx == 0xFF || int(idx) >= len(d.Tracks) {
			continue
		}
		bytesNeeded := (d.Tracks[idx].RawCount + 511) / 512
		if bytesNeeded > max {
			max = bytesNeeded
		}
	}
	return uint16(max)
}

func (i *Info) asMap() map[string]interface{} {
	m := map[string]interface{}{
		"version":         i.Version,
		"disk_type":       uint8(i.DiskType),
		"write_protected": i.WriteProtected,
		"synchronized":    i.Synchronized,
		"creator":         i.Creator,
	}
	if i.CompatibleHardware != nil || i.RequiredRAM != 0 || i.DiskSides != 0 {
		m["cleaned"] = i.Cleaned
		m["disk_sides"] = i.DiskSides
		m["boot_sector_format"] = i.BootSectorFormat
		m["optimal_bit_timing"] = i.OptimalBitTiming
		m["compatible_hardware"] = i.CompatibleHardware
		m["required_ram"] = i.RequiredRAM
		m["largest_track"] = i.LargestTrack
	} else {
		m["optimal_bit_timing"] = i.OptimalBitTiming
	}
	return m
}
