// Package woz reads, validates, edits, and re-serializes WOZ1/WOZ2/MOOF
// disk image containers: the chunked file format Applesauce and friends
// use to preserve Apple II and Macintosh floppy media bit-for-bit.
package woz

import (
	"bytes"
	"encoding/json"
	"hash/crc32"
	"io"
	"strconv"
)

// DiskImage is the in-memory representation of a .woz or .moof container.
type DiskImage struct {
	ImageType ImageType
	Info      Info
	TMap      [160]uint8 // track index, or 0xFF for "no track at this quarter-phase"
	Tracks    []*Track
	Flux      [160]uint8 // only meaningful when FluxPresent
	FluxPresent bool
	Writ      []byte // opaque, round-tripped verbatim
	Meta      *Metadata

	// Chunks with IDs this package doesn't interpret, kept in load order
	// (WRIT has its own field instead). Dump does not write them back out.
	Unknowns []UnknownChunk
}

// UnknownChunk is a chunk whose ID this package doesn't interpret.
type UnknownChunk struct {
	ID   string
	Data []byte
}

// New returns a fresh, empty WOZ2 image with the same defaults
// wozardry.py's WozDiskImage.reset() sets.
func New() *DiskImage {
	d := &DiskImage{
		ImageType: ImageTypeWOZ2,
		Info: Info{
			Version:          2,
			DiskType:         DiskType525,
			Creator:          defaultCreator,
			DiskSides:        1,
			OptimalBitTiming: 32,
		},
		Meta: NewMetadata(),
	}
	for i := range d.TMap {
		d.TMap[i] = 0xFF
		d.Flux[i] = 0xFF
	}
	return d
}

// defaultCreator mirrors wozardry.py's tDefaultCreator: the tool's name
// plus version, truncated/padded to 32 bytes at write time by padCreator.
const defaultCreator = "woztool 1.0"

// Load reads a disk image from r, validating it per spec §4.2-§4.6.
func Load(r io.Reader) (*DiskImage, error) {
	p := &parser{r: r, d: New()}
	return p.load()
}

type parser struct {
	r io.Reader
	d *DiskImage

	crc      uint32
	crcWant  uint32
	seenInfo bool
	seenTMap bool
	body     bytes.Buffer // everything after the 12-byte header, for CRC
}

func (p *parser) readFull(n int) ([]byte, error) {
	b := make([]byte, n)
	got, err := io.ReadFull(p.r, b)
	if got == n {
		return b, nil
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF || err == nil {
		return nil, errf(KindEOF, "unexpected EOF")
	}
	return nil, err
}

func (p *parser) load() (*DiskImage, error) {
	header, err := p.readFull(8)
	if err != nil {
		return nil, err
	}
	var magic [4]byte
	copy(magic[:], header[:4])
	imageType, err := parseMagic(magic)
	if err != nil {
		return nil, err
	}
	p.d.ImageType = imageType
	if header[4] != 0xFF {
		return nil, errf(KindNoFF, "magic byte 0xFF not present at offset 4")
	}
	if !bytes.Equal(header[5:8], headerTail[1:]) {
		return nil, errf(KindNoLF, "magic bytes 0x0A0D0A not present at offset 5")
	}

	crcRaw, err := p.readFull(4)
	if err != nil {
		return nil, err
	}
	p.crcWant = uint32At(crcRaw, 0)

	for {
		done, err := p.parseChunk()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	if !p.seenInfo {
		return nil, errf(KindMissingINFOChunk, "expected INFO chunk at offset 20")
	}
	if !p.seenTMap {
		return nil, errf(KindMissingTMAPChunk, "expected TMAP chunk at offset 88")
	}

	if err := p.d.validateTrackRefs(); err != nil {
		return nil, err
	}

	if p.crcWant != 0 {
		if got := crc32.ChecksumIEEE(p.body.Bytes()); got != p.crcWant {
			return nil, errf(KindCRC, "declared=%d; computed=%d", p.crcWant, got)
		}
	}

	return p.d, nil
}

// parseChunk reads one chunk header + payload, dispatches it, and returns
// done=true at a clean EOF.
func (p *parser) parseChunk() (done bool, err error) {
	idBuf := make([]byte, 4)
	n, err := io.ReadFull(p.r, idBuf)
	if n == 0 && err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, errf(KindEOF, "unexpected EOF reading chunk id")
	}
	lenBuf, err := p.readFull(4)
	if err != nil {
		return false, err
	}
	length := uint32At(lenBuf, 0)
	payload, err := p.readFull(int(length))
	if err != nil {
		return false, err
	}

	p.body.Write(idBuf)
	p.body.Write(lenBuf)
	p.body.Write(payload)

	id := string(idBuf)

	if id == "INFO" {
		if err := p.d.loadInfo(payload); err != nil {
			return false, err
		}
		p.seenInfo = true
		return false, nil
	}
	if !p.seenInfo {
		return false, errf(KindMissingINFOChunk, "expected INFO chunk at offset 20")
	}

	if id == "TMAP" {
		if len(payload) != 160 {
			return false, errf(KindBadChunkSize, "TMAP chunk must be 160 bytes, got %d", len(payload))
		}
		copy(p.d.TMap[:], payload)
		p.seenTMap = true
		return false, nil
	}
	if !p.seenTMap {
		return false, errf(KindMissingTMAPChunk, "expected TMAP chunk at offset 88")
	}

	switch id {
	case "TRKS":
		if err := p.d.loadTRKS(payload); err != nil {
			return false, err
		}
	case "FLUX":
		if len(payload) != 160 {
			return false, errf(KindBadChunkSize, "FLUX chunk must be 160 bytes, got %d", len(payload))
		}
		copy(p.d.Flux[:], payload)
		p.d.FluxPresent = true
	case "WRIT":
		p.d.Writ = payload
	case "META":
		m, err := parseMetadata(payload)
		if err != nil {
			return false, err
		}
		p.d.Meta = m
	default:
		p.d.Unknowns = append(p.d.Unknowns, UnknownChunk{ID: id, Data: payload})
	}
	return false, nil
}

// validateTrackRefs checks every non-0xFF TMap/Flux entry indexes into
// Tracks.
func (d *DiskImage) validateTrackRefs() error {
	n := len(d.Tracks)
	for i, idx := range d.TMap {
		if idx != 0xFF && int(idx) >= n {
			return errf(KindBadTRKS, "invalid TMAP entry: track %s points to non-existent TRKS chunk %d", quarterTrackLabel(i), idx)
		}
	}
	if d.FluxPresent {
		for i, idx := range d.Flux {
			if idx != 0xFF && int(idx) >= n {
				return errf(KindBadTRKS, "invalid FLUX entry: track %s points to non-existent TRKS chunk %d", quarterTrackLabel(i), idx)
			}
		}
	}
	return nil
}

var quarters = [4]string{".00", ".25", ".50", ".75"}

func quarterTrackLabel(i int) string {
	return strconv.Itoa(i/4) + quarters[i%4]
}

// Dump serializes d to bytes in canonical chunk order: header, INFO, TMAP,
// TRKS, then optional FLUX, WRIT, META. The result is deterministic:
// identical inputs always produce identical bytes.
func Dump(d *DiskImage) ([]byte, error) {
	var body bytes.Buffer

	tmapChunk := dumpTMAPChunk(d)
	trksChunk, err := dumpTRKSChunk(d)
	if err != nil {
		return nil, err
	}

	infoChunk, err := dumpInfoChunk(d, len(tmapChunk)+len(trksChunk))
	if err != nil {
		return nil, err
	}

	body.Write(infoChunk)
	body.Write(tmapChunk)
	body.Write(trksChunk)
	if d.FluxPresent {
		body.Write(dumpFluxChunk(d))
	}
	if d.Writ != nil {
		body.Write(dumpChunk("WRIT", d.Writ))
	}
	if d.Meta != nil && !d.Meta.Empty() {
		metaBytes, err := dumpMetadata(d.Meta)
		if err != nil {
			return nil, err
		}
		body.Write(dumpChunk("META", metaBytes))
	}

	crc := crc32.ChecksumIEEE(body.Bytes())

	var out bytes.Buffer
	out.WriteString(string(d.ImageType))
	out.Write(headerTail[:])
	var crcBuf [4]byte
	putUint32(crcBuf[:], 0, crc)
	out.Write(crcBuf[:])
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func dumpChunk(id string, payload []byte) []byte {
	b := make([]byte, 8+len(payload))
	copy(b[0:4], id)
	putUint32(b, 4, uint32(len(payload)))
	copy(b[8:], payload)
	return b
}

// DumpChecked serializes d and then re-parses the result as a self-check:
// if the freshly written bytes fail to reload, that's an InternalError —
// a bug in this package, never something a conformant caller can trigger.
func DumpChecked(d *DiskImage) ([]byte, error) {
	out, err := Dump(d)
	if err != nil {
		return nil, err
	}
	if _, err := Load(bytes.NewReader(out)); err != nil {
		return nil, errf(KindInternalError, "refusing to return an invalid file: %v", err)
	}
	return out, nil
}

// jsonRoot mirrors the `{"woz": {"info": ..., "meta": ...}}` shape spec §6
// describes for to_json/from_json.
type jsonRoot struct {
	Woz jsonBody `json:"woz"`
}

type jsonBody struct {
	Info interface{}       `json:"info"`
	Meta map[string]interface{} `json:"meta"`
}

// ToJSON renders d's info and metadata as JSON, in the `{"woz": {...}}`
// shape. JSON encoding itself is delegated to encoding/json, per spec
// scope ("JSON import/export of metadata (delegated to any JSON
// library)").
func ToJSON(d *DiskImage) (string, error) {
	root := jsonRoot{Woz: jsonBody{
		Info: d.Info.asMap(),
		Meta: d.Meta.asMap(),
	}}
	b, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FromJSON updates only d.Meta from the given JSON string, per spec §6
// ("only meta is updated by from_json").
func FromJSON(d *DiskImage, s string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return err
	}
	// Root key is conventionally "woz" but spec only promises "one key";
	// mirror wozardry.py's `[x for x in j.keys()].pop()`.
	var body jsonBody
	for _, v := range raw {
		if err := json.Unmarshal(v, &body); err != nil {
			return err
		}
		break
	}
	if body.Meta == nil {
		return nil
	}
	if d.Meta == nil {
		d.Meta = NewMetadata()
	}
	for k, v := range body.Meta {
		switch tv := v.(type) {
		case string:
			d.Meta.Set(k, []string{tv})
		case []interface{}:
			vals := make([]string, 0, len(tv))
			for _, item := range tv {
				if s, ok := item.(string); ok {
					vals = append(vals, s)
				}
			}
			d.Meta.Set(k, vals)
		}
	}
	return nil
}
