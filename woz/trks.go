package woz

// bitstreamLengthV1 is the fixed raw-bitstream size embedded in each WOZ1
// TRK record.
const bitstreamLengthV1 = 6646

// trkRecordSizeV1 is the full size of one WOZ1 TRK record: bitstream +
// bytes_used + bit_count + splice_point + splice_nibble + splice_bit_count
// + 3 reserved bytes.
const trkRecordSizeV1 = bitstreamLengthV1 + 2 + 2 + 2 + 1 + 1 + 3 // 6657

// trkDescriptorSize is one V2 TRK descriptor: starting_block, block_count,
// bit_count.
const trkDescriptorSize = 8

// trkTableSizeV2 is the 160-entry fixed descriptor table at the start of
// a V2 TRKS payload.
const trkTableSizeV2 = 160 * trkDescriptorSize

func (d *DiskImage) loadTRKS(data []byte) error {
	if d.ImageType == ImageTypeWOZ1 {
		return d.loadTRKSv1(data)
	}
	return d.loadTRKSv2(data)
}

func (d *DiskImage) loadTRKSv1(data []byte) error {
	for i := 0; i+trkRecordSizeV1 <= len(data); i += trkRecordSizeV1 {
		rec := data[i : i+trkRecordSizeV1]
		rawBytes := make([]byte, bitstreamLengthV1)
		copy(rawBytes, rec[:bitstreamLengthV1])

		bytesUsed := uint16At(rec, bitstreamLengthV1)
		if bytesUsed > bitstreamLengthV1 {
			return errf(KindBadTRKS, "TRKS chunk %d bytes_used is out of range", len(d.Tracks))
		}
		bitCount := uint16At(rec, bitstreamLengthV1+2)
		splicePoint := uint16At(rec, bitstreamLengthV1+4)
		if splicePoint != 0xFFFF {
			if splicePoint > bitCount {
				return errf(KindBadTRKS, "TRKS chunk %d splice_point is out of range", len(d.Tracks))
			}
			spliceBitCount := rec[bitstreamLengthV1+7]
			if spliceBitCount != 8 && spliceBitCount != 9 && spliceBitCount != 10 {
				return errf(KindBadTRKS, "TRKS chunk %d splice_bit_count is out of range", len(d.Tracks))
			}
		}
		d.Tracks = append(d.Tracks, NewTrack(rawBytes, int(bitCount)))
	}
	if len(data)%trkRecordSizeV1 != 0 {
		return errf(KindEOF, "unexpected EOF")
	}
	return nil
}

func (d *DiskImage) loadTRKSv2(data []byte) error {
	for trk := 0; trk < 160; trk++ {
		i := trk * trkDescriptorSize
		if i+trkDescriptorSize > len(data) {
			return errf(KindEOF, "unexpected EOF")
		}
		startingBlock := uint16At(data, i)
		if startingBlock == 1 || startingBlock == 2 {
			return errf(KindBadStartingBlock, "TRK %d starting_block out of range (expected 3+ or 0, found %d)", trk, startingBlock)
		}
		blockCount := uint16At(data, i+2)
		bitCount := uint32At(data, i+4)

		if startingBlock == 0 {
			if blockCount != 0 {
				return errf(KindBadBlockCount, "unused TRK %d block_count must be 0 (found %d)", trk, blockCount)
			}
			if bitCount != 0 {
				return errf(KindBadBitCount, "unused TRK %d bit_count must be 0 (found %d)", trk, bitCount)
			}
			break
		}

		bitsOffset := trkTableSizeV2 + (int(startingBlock)-3)*512
		if bitsOffset < 0 || bitsOffset >= len(data) {
			return errf(KindBadStartingBlock, "unexpected EOF")
		}
		end := bitsOffset + int(blockCount)*512
		if end > len(data) {
			return errf(KindBadBlockCount, "unexpected EOF")
		}
		rawBytes := make([]byte, int(blockCount)*512)
		copy(rawBytes, data[bitsOffset:end])
		d.Tracks = append(d.Tracks, NewTrack(rawBytes, int(bitCount)))
	}
	return nil
}

func dumpTRKSChunk(d *DiskImage) ([]byte, error) {
	if d.ImageType == ImageTypeWOZ1 {
		return dumpTRKSv1(d), nil
	}
	return dumpTRKSv2(d), nil
}

func dumpTRKSv1(d *DiskImage) []byte {
	payload := make([]byte, 0, len(d.Tracks)*trkRecordSizeV1)
	for _, t := range d.Tracks {
		rec := make([]byte, trkRecordSizeV1)
		copy(rec, t.RawBytes)
		putUint16(rec, bitstreamLengthV1, uint16(len(t.RawBytes)))
		putUint16(rec, bitstreamLengthV1+2, uint16(t.RawCount))
		putUint16(rec, bitstreamLengthV1+4, 0xFFFF) // splice point: none
		rec[bitstreamLengthV1+6] = 0xFF              // splice nibble: none
		rec[bitstreamLengthV1+7] = 0xFF              // splice bit count: none
		payload = append(payload, rec...)
	}
	return dumpChunk("TRKS", payload)
}

func dumpTRKSv2(d *DiskImage) []byte {
	table := make([]byte, trkTableSizeV2)
	var bits []byte
	startingBlock := uint16(3)
	for i, t := range d.Tracks {
		padded := make([]byte, len(t.RawBytes))
		copy(padded, t.RawBytes)
		if len(padded)%512 != 0 {
			padded = append(padded, make([]byte, 512-len(padded)%512)...)
		}
		off := i * trkDescriptorSize
		putUint16(table, off, startingBlock)
		blocks := uint16(len(padded) / 512)
		startingBlock += blocks
		putUint16(table, off+2, blocks)
		putUint32(table, off+4, uint32(t.RawCount))
		bits = append(bits, padded...)
	}
	payload := make([]byte, 0, len(table)+len(bits))
	payload = append(payload, table...)
	payload = append(payload, bits...)
	return dumpChunk("TRKS", payload)
}
