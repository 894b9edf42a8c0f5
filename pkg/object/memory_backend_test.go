package object

import "testing"

func TestMemoryBackendInsertFlushVisibility(t *testing.T) {
	b := NewMemoryBackend()
	ins := b.NewInserter()

	blob := []byte("hello memory backend")
	id, err := ins.Insert(TypeBlob, blob)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if ok, _ := b.Has(id); ok {
		t.Fatal("object should not be visible before Flush")
	}

	if err := ins.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	ok, err := b.Has(id)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Fatal("object should be visible after Flush")
	}

	loader, err := b.Open(id, TypeBlob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := loader.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != string(blob) {
		t.Fatalf("Bytes() = %q, want %q", data, blob)
	}
}

func TestMemoryBackendOpenWrongTypeHint(t *testing.T) {
	b := NewMemoryBackend()
	ins := b.NewInserter()
	id, err := ins.Insert(TypeBlob, []byte("x"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := ins.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if _, err := b.Open(id, TypeTree); err == nil {
		t.Fatal("expected IncorrectTypeError")
	} else if _, ok := err.(*IncorrectTypeError); !ok {
		t.Fatalf("got %T, want *IncorrectTypeError", err)
	}
}

func TestMemoryBackendCloseWithoutFlushDiscards(t *testing.T) {
	b := NewMemoryBackend()
	ins := b.NewInserter()
	id, err := ins.Insert(TypeBlob, []byte("discarded"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := ins.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if ok, _ := b.Has(id); ok {
		t.Fatal("object should not be visible after Close without Flush")
	}
}

func TestMemoryBackendMultipleCommitsAccumulate(t *testing.T) {
	b := NewMemoryBackend()

	ins1 := b.NewInserter()
	id1, _ := ins1.Insert(TypeBlob, []byte("first"))
	if err := ins1.Flush(); err != nil {
		t.Fatalf("Flush 1: %v", err)
	}

	ins2 := b.NewInserter()
	id2, _ := ins2.Insert(TypeBlob, []byte("second"))
	if err := ins2.Flush(); err != nil {
		t.Fatalf("Flush 2: %v", err)
	}

	for _, id := range []ObjectId{id1, id2} {
		if ok, _ := b.Has(id); !ok {
			t.Fatalf("expected %s to be visible across pack generations", id)
		}
	}
}

func TestMemoryBackendResolveAbbreviation(t *testing.T) {
	b := NewMemoryBackend()
	ins := b.NewInserter()
	id, err := ins.Insert(TypeBlob, []byte("abbrev me"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := ins.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	abbrev, err := ParseAbbreviatedId(id.String()[:8])
	if err != nil {
		t.Fatalf("ParseAbbreviatedId: %v", err)
	}
	matches, err := b.Resolve(abbrev)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 || matches[0] != id {
		t.Fatalf("Resolve() = %v, want [%s]", matches, id)
	}
}

func TestMemoryBackendRollbackPack(t *testing.T) {
	b := NewMemoryBackend()
	ins := b.NewInserter()
	id, _ := ins.Insert(TypeBlob, []byte("rolled back"))
	if err := ins.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	checksum := b.packs[len(b.packs)-1].checksum
	if err := b.rollbackPack(checksum); err != nil {
		t.Fatalf("rollbackPack: %v", err)
	}

	if ok, _ := b.Has(id); ok {
		t.Fatal("object should be gone after rollbackPack")
	}
	if err := b.rollbackPack(checksum); err == nil {
		t.Fatal("expected error rolling back an already-removed pack")
	}
}
