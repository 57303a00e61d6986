package woz

import (
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func TestMetadataRoundTrip(t *testing.T) {
	src := "language\tEnglish|French\nrequires_ram\t128K\ntitle\tSample Disk\n"
	m, err := parseMetadata([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"language", "requires_ram", "title"}
	if got := m.Keys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("keys out of order: got %v, want %v", got, want)
	}
	if v, ok := m.Get("language"); !ok || strings.Join(v, "|") != "English|French" {
		t.Fatalf("language: got %v", v)
	}

	out, err := dumpMetadata(m)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := parseMetadata(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m.asMap(), m2.asMap()); len(diff) > 0 {
		t.Fatalf("round trip mismatch: %s", strings.Join(diff, "; "))
	}
}

func TestMetadataDuplicateKey(t *testing.T) {
	_, err := parseMetadata([]byte("title\tA\ntitle\tB\n"))
	if !IsKind(err, KindDuplicateKey) {
		t.Fatalf("got %v, want KindDuplicateKey", err)
	}
}

func TestMetadataBadTabCount(t *testing.T) {
	if _, err := parseMetadata([]byte("notabs\n")); !IsKind(err, KindNotEnoughTabs) {
		t.Fatalf("got %v, want KindNotEnoughTabs", err)
	}
	if _, err := parseMetadata([]byte("a\tb\tc\n")); !IsKind(err, KindTooManyTabs) {
		t.Fatalf("got %v, want KindTooManyTabs", err)
	}
}

func TestMetadataBadLanguage(t *testing.T) {
	_, err := parseMetadata([]byte("language\tKlingon\n"))
	if !IsKind(err, KindBadLanguage) {
		t.Fatalf("got %v, want KindBadLanguage", err)
	}
}

func TestMetadataSetDeletesOnEmpty(t *testing.T) {
	m := NewMetadata()
	m.Set("title", []string{"A"})
	if m.Empty() {
		t.Fatal("expected non-empty after Set")
	}
	m.Set("title", nil)
	if !m.Empty() {
		t.Fatal("expected empty after Set with no values")
	}
}

func TestMetadataDumpRejectsBadValue(t *testing.T) {
	m := NewMetadata()
	m.Set("title", []string{"has\ttab"})
	if _, err := dumpMetadata(m); !IsKind(err, KindBadValue) {
		t.Fatalf("got %v, want KindBadValue", err)
	}
}

func TestMetadataSortedKeysIgnoresInsertionOrder(t *testing.T) {
	m := NewMetadata()
	m.Set("title", []string{"A"})
	m.Set("author", []string{"B"})
	want := []string{"author", "title"}
	if got := m.sortedKeys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := m.Keys(); strings.Join(got, ",") == strings.Join(want, ",") {
		t.Fatal("insertion order accidentally matches sorted order; test is not exercising sortedKeys")
	}
}
