package object

import (
	"bytes"
	"testing"
)

func TestBlobRoundTrip(t *testing.T) {
	b := &Blob{Data: []byte("hello blob")}
	got, err := UnmarshalBlob(MarshalBlob(b))
	if err != nil {
		t.Fatalf("UnmarshalBlob: %v", err)
	}
	if !bytes.Equal(got.Data, b.Data) {
		t.Fatalf("Data = %q, want %q", got.Data, b.Data)
	}
}

func TestTreeRoundTripSortsDirsAsSlashSuffixed(t *testing.T) {
	fileID := HashObject(TypeBlob, []byte("file"))
	dirID := HashObject(TypeTree, nil)

	tree := &Tree{Entries: []TreeEntry{
		{Name: "bob", Mode: ModeFile, ID: fileID},
		{Name: "bob.txt", Mode: ModeFile, ID: fileID},
		{Name: "bob", Mode: ModeDir, ID: dirID},
	}}

	encoded := MarshalTree(tree)
	got, err := UnmarshalTree(encoded)
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(got.Entries))
	}
	// Git compares the directory as "bob/"; '/' (0x2F) sorts after '.'
	// (0x2E), so the directory comes after both "bob" and "bob.txt".
	order := []string{got.Entries[0].Name, got.Entries[1].Name, got.Entries[2].Name}
	want := []string{"bob", "bob.txt", "bob"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("entry[%d].Name = %q, want %q (full order %v)", i, order[i], want[i], order)
		}
	}
	if got.Entries[2].Mode != ModeDir {
		t.Fatalf("expected directory entry third, got mode %s", got.Entries[2].Mode)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	treeID := HashObject(TypeTree, nil)
	parentID := HashObject(TypeCommit, []byte("parent"))
	sig := Signature{Name: "Ada Lovelace", Email: "ada@example.com", When: 1700000000, TZOffset: "+0000"}

	c := &Commit{
		Tree:      treeID,
		Parents:   []ObjectId{parentID},
		Author:    sig,
		Committer: sig,
		Message:   "initial commit\n",
	}

	got, err := UnmarshalCommit(MarshalCommit(c))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if got.Tree != c.Tree {
		t.Fatalf("Tree = %s, want %s", got.Tree, c.Tree)
	}
	if len(got.Parents) != 1 || got.Parents[0] != parentID {
		t.Fatalf("Parents = %v, want [%s]", got.Parents, parentID)
	}
	if got.Author != sig {
		t.Fatalf("Author = %+v, want %+v", got.Author, sig)
	}
	if got.Message != c.Message {
		t.Fatalf("Message = %q, want %q", got.Message, c.Message)
	}
}

func TestUnmarshalCommitIgnoresUnknownHeaders(t *testing.T) {
	treeID := HashObject(TypeTree, nil)
	sig := Signature{Name: "A", Email: "a@b.c", When: 1, TZOffset: "+0000"}
	raw := "tree " + treeID.String() + "\n" +
		"author " + formatSignature(sig) + "\n" +
		"committer " + formatSignature(sig) + "\n" +
		"gpgsig -----BEGIN PGP SIGNATURE-----\n" +
		"\nmessage body\n"

	c, err := UnmarshalCommit([]byte(raw))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if c.Tree != treeID {
		t.Fatalf("Tree = %s, want %s", c.Tree, treeID)
	}
}

func TestUnmarshalCommitRejectsMissingTree(t *testing.T) {
	sig := Signature{Name: "A", Email: "a@b.c", When: 1, TZOffset: "+0000"}
	raw := "author " + formatSignature(sig) + "\n" +
		"committer " + formatSignature(sig) + "\n\nmsg\n"
	if _, err := UnmarshalCommit([]byte(raw)); err == nil {
		t.Fatal("expected error for missing tree header")
	}
}

func TestTagRoundTrip(t *testing.T) {
	objID := HashObject(TypeCommit, []byte("target"))
	sig := Signature{Name: "Tagger", Email: "tag@example.com", When: 42, TZOffset: "-0500"}

	tag := &Tag{
		Object:  objID,
		Type:    TypeCommit,
		Name:    "v1.0.0",
		Tagger:  sig,
		Message: "release\n",
	}

	got, err := UnmarshalTag(MarshalTag(tag))
	if err != nil {
		t.Fatalf("UnmarshalTag: %v", err)
	}
	if got.Object != objID {
		t.Fatalf("Object = %s, want %s", got.Object, objID)
	}
	if got.Type != TypeCommit {
		t.Fatalf("Type = %s, want %s", got.Type, TypeCommit)
	}
	if got.Name != "v1.0.0" {
		t.Fatalf("Name = %q, want v1.0.0", got.Name)
	}
	if got.Tagger != sig {
		t.Fatalf("Tagger = %+v, want %+v", got.Tagger, sig)
	}
}
