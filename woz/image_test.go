package woz

import (
	"bytes"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func minimalWOZ2(t *testing.T) *DiskImage {
	t.Helper()
	d := New()
	d.Info.Creator = "test suite"
	if err := d.AddTrack(0, NewTrack([]byte{0x96, 0x96, 0x96, 0x96}, 32)); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDumpLoadRoundTrip(t *testing.T) {
	d := minimalWOZ2(t)
	out, err := Dump(d)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Load(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if got.ImageType != ImageTypeWOZ2 {
		t.Fatalf("ImageType = %v, want WOZ2", got.ImageType)
	}
	if got.Info.Creator != "test suite" {
		t.Fatalf("Creator = %q, want %q", got.Info.Creator, "test suite")
	}
	if len(got.Tracks) != 1 || got.Tracks[0].RawCount != 32 {
		t.Fatalf("Tracks = %#v", got.Tracks)
	}
}

func TestDumpCheckedRejectsBadVersion(t *testing.T) {
	d := minimalWOZ2(t)
	d.ImageType = ImageTypeWOZ1
	d.Info.Version = 2 // WOZ1 requires version == 1
	if _, err := DumpChecked(d); err == nil {
		t.Fatal("expected an error serializing a WOZ1 image with version 2")
	}
}

func TestLoadRejectsBadWOZ1Version(t *testing.T) {
	d := minimalWOZ2(t)
	d.ImageType = ImageTypeWOZ1
	d.Info.Version = 1
	out, err := Dump(d)
	if err != nil {
		t.Fatal(err)
	}

	// Flip the on-disk version byte to 0: INFO's payload starts after the
	// 12-byte file header (8-byte magic/header-tail + 4-byte CRC) and the
	// 8-byte chunk id/length, so its first data byte is at offset 20.
	out[20] = 0
	var crcAdjusted = adjustCRCForInfoByte(t, out)
	if _, err := Load(bytes.NewReader(crcAdjusted)); !IsKind(err, KindBadVersion) {
		t.Fatalf("got %v, want KindBadVersion", err)
	}
}

// adjustCRCForInfoByte recomputes and rewrites the CRC32 field after a
// direct byte-level edit to the body, so the version-byte test exercises
// the version check rather than tripping the (unrelated) CRC check first.
func adjustCRCForInfoByte(t *testing.T, raw []byte) []byte {
	t.Helper()
	out := append([]byte(nil), raw...)
	body := out[12:]
	crc := crc32.ChecksumIEEE(body)
	putUint32(out, 8, crc)
	return out
}

func TestValidateTrackRefsCatchesDanglingTMAP(t *testing.T) {
	d := minimalWOZ2(t)
	d.TMap[50] = 5 // no such TRKS chunk
	out, err := Dump(d)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bytes.NewReader(out)); !IsKind(err, KindBadTRKS) {
		t.Fatalf("got %v, want KindBadTRKS", err)
	}
}

func TestToJSONFromJSONOnlyTouchesMeta(t *testing.T) {
	d := minimalWOZ2(t)
	d.Meta.Set("title", []string{"Original"})

	d2 := minimalWOZ2(t)
	d2.Info.Creator = "unrelated creator"

	payload := `{"woz": {"info": {"creator": "should be ignored"}, "meta": {"title": "Updated", "language": ["English", "French"]}}}`
	if err := FromJSON(d2, payload); err != nil {
		t.Fatal(err)
	}
	if d2.Info.Creator != "unrelated creator" {
		t.Fatalf("FromJSON must not touch Info, but Creator = %q", d2.Info.Creator)
	}
	if v, _ := d2.Meta.Get("title"); strings.Join(v, "|") != "Updated" {
		t.Fatalf("title = %v, want [Updated]", v)
	}
	if v, _ := d2.Meta.Get("language"); strings.Join(v, "|") != "English|French" {
		t.Fatalf("language = %v, want [English French]", v)
	}

	out, err := ToJSON(d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"title": "Original"`) {
		t.Fatalf("ToJSON output missing title: %s", out)
	}
}

func TestMetadataAsMapDiff(t *testing.T) {
	m1 := NewMetadata()
	m1.Set("title", []string{"A"})
	m2 := NewMetadata()
	m2.Set("title", []string{"B"})
	diff := pretty.Diff(m1.asMap(), m2.asMap())
	if len(diff) == 0 {
		t.Fatal("expected a diff between differing metadata maps")
	}
}
