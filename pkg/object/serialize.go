package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob returns the blob's raw bytes (identity encoding).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob wraps raw bytes as a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree: binary "<mode> <name>\0<20-byte id>" entries, sorted by name.
// ---------------------------------------------------------------------------

// MarshalTree serializes a Tree to Git's canonical binary tree encoding.
// Entries are re-sorted by name to guarantee a deterministic id.
func MarshalTree(t *Tree) []byte {
	entries := make([]TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool { return treeEntrySortKey(entries[i]) < treeEntrySortKey(entries[j]) })

	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s %s\x00", e.Mode, e.Name)
		buf.Write(e.ID[:])
	}
	return buf.Bytes()
}

// treeEntrySortKey mirrors Git's tree sort order: directory entries sort
// as if their name carried a trailing "/".
func treeEntrySortKey(e TreeEntry) string {
	if e.Mode == ModeDir {
		return e.Name + "/"
	}
	return e.Name
}

// UnmarshalTree parses Git's canonical binary tree encoding.
func UnmarshalTree(data []byte) (*Tree, error) {
	var entries []TreeEntry
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: missing mode separator")
		}
		mode := string(data[:sp])
		rest := data[sp+1:]

		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: missing name terminator")
		}
		name := string(rest[:nul])
		rest = rest[nul+1:]

		if len(rest) < IDSize {
			return nil, fmt.Errorf("unmarshal tree: truncated entry id for %q", name)
		}
		id, err := ObjectIdFromBytes(rest[:IDSize])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		entries = append(entries, TreeEntry{Name: name, Mode: mode, ID: id})
		data = rest[IDSize:]
	}
	return &Tree{Entries: entries}, nil
}

// ---------------------------------------------------------------------------
// Commit: text header block + blank line + message, Git-compatible.
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit to Git's canonical text encoding.
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree.String())
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p.String())
	}
	fmt.Fprintf(&buf, "author %s\n", formatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", formatSignature(c.Committer))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses Git's canonical commit text encoding.
func UnmarshalCommit(data []byte) (*Commit, error) {
	header, message, err := splitHeaderBody(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal commit: %w", err)
	}

	c := &Commit{Message: message}
	treeSeen := false
	for _, line := range strings.Split(header, "\n") {
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			id, err := ParseObjectId(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: tree: %w", err)
			}
			c.Tree = id
			treeSeen = true
		case "parent":
			id, err := ParseObjectId(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: parent: %w", err)
			}
			c.Parents = append(c.Parents, id)
		case "author":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = sig
		default:
			// Forward-compatible: ignore unknown header lines (e.g. gpgsig).
		}
	}
	if !treeSeen {
		return nil, fmt.Errorf("unmarshal commit: missing tree header")
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Tag: text header block + blank line + message, Git-compatible.
// ---------------------------------------------------------------------------

// MarshalTag serializes an annotated Tag to Git's canonical text encoding.
func MarshalTag(t *Tag) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.Object.String())
	fmt.Fprintf(&buf, "type %s\n", t.Type)
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	fmt.Fprintf(&buf, "tagger %s\n", formatSignature(t.Tagger))
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes()
}

// UnmarshalTag parses Git's canonical annotated tag text encoding.
func UnmarshalTag(data []byte) (*Tag, error) {
	header, message, err := splitHeaderBody(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal tag: %w", err)
	}

	t := &Tag{Message: message}
	objectSeen := false
	for _, line := range strings.Split(header, "\n") {
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal tag: malformed header line %q", line)
		}
		switch key {
		case "object":
			id, err := ParseObjectId(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal tag: object: %w", err)
			}
			t.Object = id
			objectSeen = true
		case "type":
			t.Type = ObjectType(val)
		case "tag":
			t.Name = val
		case "tagger":
			sig, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal tag: tagger: %w", err)
			}
			t.Tagger = sig
		}
	}
	if !objectSeen {
		return nil, fmt.Errorf("unmarshal tag: missing object header")
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func splitHeaderBody(data []byte) (header, body string, err error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return "", "", fmt.Errorf("missing header/body separator")
	}
	return string(data[:idx]), string(data[idx+2:]), nil
}

func formatSignature(s Signature) string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When, s.TZOffset)
}

func parseSignature(val string) (Signature, error) {
	// "<name> <email> <unix-ts> <tz-offset>"
	gt := strings.LastIndex(val, ">")
	if gt < 0 {
		return Signature{}, fmt.Errorf("malformed signature %q", val)
	}
	lt := strings.LastIndex(val[:gt], "<")
	if lt < 0 {
		return Signature{}, fmt.Errorf("malformed signature %q", val)
	}
	name := strings.TrimSpace(val[:lt])
	email := val[lt+1 : gt]
	rest := strings.TrimSpace(val[gt+1:])
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return Signature{}, fmt.Errorf("malformed signature timestamp %q", rest)
	}
	when, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("malformed signature timestamp %q: %w", parts[0], err)
	}
	return Signature{Name: name, Email: email, When: when, TZOffset: parts[1]}, nil
}
