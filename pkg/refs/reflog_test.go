package refs

import (
	"testing"

	"github.com/vcsdb/gitkernel/pkg/object"
)

func TestAppendAndReadReflogNewestFirst(t *testing.T) {
	gitDir := newTestGitDir(t)
	db := NewDatabase(gitDir, nil)

	ids := []object.ObjectId{idFor(1), idFor(2), idFor(3)}
	zero := object.ObjectId{}

	if err := db.appendReflog("refs/heads/main", zero, ids[0], "commit: initial"); err != nil {
		t.Fatalf("appendReflog 1: %v", err)
	}
	if err := db.appendReflog("refs/heads/main", ids[0], ids[1], "commit: second"); err != nil {
		t.Fatalf("appendReflog 2: %v", err)
	}
	if err := db.appendReflog("refs/heads/main", ids[1], ids[2], "commit: third"); err != nil {
		t.Fatalf("appendReflog 3: %v", err)
	}

	entries, err := db.ReadReflog("refs/heads/main", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].NewID != ids[2] || entries[2].NewID != ids[0] {
		t.Fatalf("entries not newest-first: %+v", entries)
	}
}

func TestReadReflogMissingFileReturnsEmpty(t *testing.T) {
	gitDir := newTestGitDir(t)
	db := NewDatabase(gitDir, nil)

	entries, err := db.ReadReflog("refs/heads/nonexistent", 0)
	if err != nil {
		t.Fatalf("ReadReflog(missing): %v", err)
	}
	if entries != nil {
		t.Fatalf("expected nil entries, got %+v", entries)
	}
}

func TestEntryAtIndexesFromNewest(t *testing.T) {
	gitDir := newTestGitDir(t)
	db := NewDatabase(gitDir, nil)

	zero := object.ObjectId{}
	ids := []object.ObjectId{idFor(1), idFor(2)}
	if err := db.appendReflog("refs/heads/main", zero, ids[0], "commit: first"); err != nil {
		t.Fatalf("appendReflog 1: %v", err)
	}
	if err := db.appendReflog("refs/heads/main", ids[0], ids[1], "commit: second"); err != nil {
		t.Fatalf("appendReflog 2: %v", err)
	}

	e, err := db.EntryAt("refs/heads/main", 0)
	if err != nil {
		t.Fatalf("EntryAt(0): %v", err)
	}
	if e.NewID != ids[1] {
		t.Fatalf("EntryAt(0) = %+v, want newest entry", e)
	}

	e, err = db.EntryAt("refs/heads/main", 1)
	if err != nil {
		t.Fatalf("EntryAt(1): %v", err)
	}
	if e.NewID != ids[0] {
		t.Fatalf("EntryAt(1) = %+v, want oldest entry", e)
	}

	if _, err := db.EntryAt("refs/heads/main", 2); err == nil {
		t.Fatalf("EntryAt(2) should fail: only 2 entries exist")
	}
}

func TestPreviousCheckoutScansHeadReflog(t *testing.T) {
	gitDir := newTestGitDir(t)
	db := NewDatabase(gitDir, nil)

	id := idFor(1)
	if err := db.appendReflog("HEAD", object.ObjectId{}, id, "commit: initial"); err != nil {
		t.Fatalf("appendReflog: %v", err)
	}
	if err := db.appendReflog("HEAD", id, id, "checkout: moving from main to feature"); err != nil {
		t.Fatalf("appendReflog checkout 1: %v", err)
	}
	if err := db.appendReflog("HEAD", id, id, "checkout: moving from feature to hotfix"); err != nil {
		t.Fatalf("appendReflog checkout 2: %v", err)
	}

	from, err := db.PreviousCheckout(0)
	if err != nil {
		t.Fatalf("PreviousCheckout(0): %v", err)
	}
	if from != "feature" {
		t.Fatalf("PreviousCheckout(0) = %q, want %q", from, "feature")
	}

	from, err = db.PreviousCheckout(1)
	if err != nil {
		t.Fatalf("PreviousCheckout(1): %v", err)
	}
	if from != "main" {
		t.Fatalf("PreviousCheckout(1) = %q, want %q", from, "main")
	}

	if _, err := db.PreviousCheckout(2); err == nil {
		t.Fatalf("PreviousCheckout(2) should fail: only 2 checkout entries exist")
	}
}

func TestParseCheckoutReason(t *testing.T) {
	from, ok := parseCheckoutReason("checkout: moving from main to feature/x")
	if !ok || from != "main" {
		t.Fatalf("parseCheckoutReason = (%q, %v), want (\"main\", true)", from, ok)
	}
	if _, ok := parseCheckoutReason("commit: add feature"); ok {
		t.Fatalf("parseCheckoutReason should reject non-checkout reason")
	}
}
