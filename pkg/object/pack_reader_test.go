package object

import (
	"bytes"
	"testing"
)

func buildSimplePack(t *testing.T, objs [][2]any) ([]byte, ObjectId) {
	t.Helper()
	var buf bytes.Buffer
	pw, err := NewPackWriter(&buf, uint32(len(objs)))
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}
	for _, o := range objs {
		if err := pw.Add(o[0].(ObjectType), o[1].([]byte)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	checksum, err := pw.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes(), checksum
}

func TestReadPackRoundTrip(t *testing.T) {
	data, checksum := buildSimplePack(t, [][2]any{
		{TypeBlob, []byte("first")},
		{TypeBlob, []byte("second")},
	})

	pf, err := ReadPack(data)
	if err != nil {
		t.Fatalf("ReadPack: %v", err)
	}
	if pf.Checksum != checksum {
		t.Fatalf("Checksum = %s, want %s", pf.Checksum, checksum)
	}
	if len(pf.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(pf.Entries))
	}
	if string(pf.Entries[0].Payload) != "first" {
		t.Fatalf("Entries[0].Payload = %q", pf.Entries[0].Payload)
	}
}

func TestReadPackRejectsCorruptChecksum(t *testing.T) {
	data, _ := buildSimplePack(t, [][2]any{{TypeBlob, []byte("x")}})
	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-1] ^= 0xff

	if _, err := ReadPack(corrupt); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestResolverRejectsCycles(t *testing.T) {
	// Two REF_DELTA entries whose bases point at each other: neither is
	// a real base object, so resolution must detect the cycle rather
	// than recurse forever.
	idA := HashObject(TypeBlob, []byte("a"))
	idB := HashObject(TypeBlob, []byte("b"))

	entryA := RawPackEntry{Offset: 0, Type: PackRefDelta, BaseID: idB, Payload: []byte{0, 0}}
	entryB := RawPackEntry{Offset: 100, Type: PackRefDelta, BaseID: idA, Payload: []byte{0, 0}}

	byID := func(id ObjectId) (*RawPackEntry, bool) {
		switch id {
		case idA:
			return &entryA, true
		case idB:
			return &entryB, true
		}
		return nil, false
	}

	res := newResolver([]RawPackEntry{entryA, entryB}, byID, DefaultMaxDeltaChainDepth)
	if _, _, err := res.resolveOffset(0); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestResolverRejectsExcessiveChainDepth(t *testing.T) {
	base := RawPackEntry{Offset: 0, Type: PackBlob, Payload: []byte("base")}
	entries := []RawPackEntry{base}

	// Chain N deltas atop the base, each one OFS_DELTA pointing to the
	// previous offset, forcing depth = N during resolution.
	const chainLen = 5
	for i := 1; i <= chainLen; i++ {
		prev := entries[i-1]
		entries = append(entries, RawPackEntry{
			Offset:     uint64(i * 10),
			Type:       PackOfsDelta,
			BaseOffset: prev.Offset,
			Payload:    []byte{0, 0},
		})
	}

	res := newResolver(entries, nil, 2)
	if _, _, err := res.resolveOffset(entries[len(entries)-1].Offset); err == nil {
		t.Fatal("expected max-depth error")
	}
}
