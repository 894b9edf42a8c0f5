package object

import (
	"bytes"
	"testing"
)

func TestPackWriterSingleBlob(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewPackWriter(&buf, 1)
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}

	blobData := []byte("hello world")
	if err := pw.Add(TypeBlob, blobData); err != nil {
		t.Fatalf("Add: %v", err)
	}

	checksum, err := pw.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if checksum.IsZero() {
		t.Fatal("expected non-zero checksum")
	}

	data := buf.Bytes()
	if len(data) <= packHeaderSize+IDSize {
		t.Fatalf("pack output too short: %d", len(data))
	}

	header, err := UnmarshalPackHeader(data[:packHeaderSize])
	if err != nil {
		t.Fatalf("UnmarshalPackHeader: %v", err)
	}
	if header.NumObjects != 1 {
		t.Fatalf("NumObjects = %d, want 1", header.NumObjects)
	}

	entries := pw.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(Entries()) = %d, want 1", len(entries))
	}
	if entries[0].ID != HashObject(TypeBlob, blobData) {
		t.Fatal("recorded entry id does not match hash of written blob")
	}
}

func TestPackWriterMultipleObjects(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewPackWriter(&buf, 3)
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := pw.Add(TypeBlob, []byte{byte(i)}); err != nil {
			t.Fatalf("Add[%d]: %v", i, err)
		}
	}

	if _, err := pw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(pw.Entries()) != 3 {
		t.Fatalf("len(Entries()) = %d, want 3", len(pw.Entries()))
	}
}

func TestPackWriterCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewPackWriter(&buf, 2)
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}
	if err := pw.Add(TypeBlob, []byte("one")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := pw.Close(); err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestPackWriterRejectsWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewPackWriter(&buf, 1)
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}
	if err := pw.Add(TypeBlob, []byte("one")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := pw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := pw.Add(TypeBlob, []byte("two")); err == nil {
		t.Fatal("expected write-after-close to be rejected")
	}
}

func TestPackWriterRoundTripThroughReadPack(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewPackWriter(&buf, 2)
	if err != nil {
		t.Fatalf("NewPackWriter: %v", err)
	}
	blob := []byte("round trip me")
	tree := []byte{}
	if err := pw.Add(TypeBlob, blob); err != nil {
		t.Fatalf("Add blob: %v", err)
	}
	if err := pw.Add(TypeTree, tree); err != nil {
		t.Fatalf("Add tree: %v", err)
	}
	checksum, err := pw.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	pf, err := ReadPack(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadPack: %v", err)
	}
	if pf.Checksum != checksum {
		t.Fatalf("Checksum = %s, want %s", pf.Checksum, checksum)
	}
	if len(pf.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(pf.Entries))
	}
	if string(pf.Entries[0].Payload) != string(blob) {
		t.Fatalf("Entries[0].Payload = %q, want %q", pf.Entries[0].Payload, blob)
	}
}
