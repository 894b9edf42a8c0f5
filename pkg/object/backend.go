package object

import (
	"bytes"
	"io"
)

// Loader yields an object's type and size immediately, and its bytes on
// demand. Large objects may stream; callers that only need metadata
// should avoid calling Bytes/Reader until necessary.
type Loader interface {
	Type() ObjectType
	Size() int64
	// Bytes materializes the full object content. No size limit is
	// applied: neither the file nor the memory backend returns a
	// *LargeObjectError.
	Bytes() ([]byte, error)
	// Reader streams the object content without a full materialization.
	Reader() (io.ReadCloser, error)
}

// Inserter stages new objects and atomically publishes them on Flush.
// Concurrent inserters are safe to run against the same Backend;
// duplicate writes of the same id are no-ops.
type Inserter interface {
	// Insert stages an object and returns its id. The object is not
	// guaranteed visible to readers until Flush succeeds.
	Insert(objType ObjectType, data []byte) (ObjectId, error)
	// Flush publishes all staged objects atomically.
	Flush() error
	// Close releases resources. Calling Close without Flush discards
	// anything staged but not yet published.
	Close() error
}

// Backend is the storage contract shared by the on-disk (loose+pack) and
// in-memory (DFS) object store variants. A Backend never mutates or
// deletes a previously-published object.
type Backend interface {
	// Has reports whether id is present in this backend alone (callers
	// wanting alternates-aware lookup should use the Database façade).
	Has(id ObjectId) (bool, error)
	// Open looks up id, validating against typeHint unless it is TypeAny.
	Open(id ObjectId, typeHint ObjectType) (Loader, error)
	// Resolve returns every id matching the abbreviation, searching only
	// this backend's own object space.
	Resolve(abbrev AbbreviatedId) ([]ObjectId, error)
	// NewInserter returns a fresh staging handle for writes.
	NewInserter() Inserter
	// Close releases backend-held resources (mmaps, file handles).
	Close() error
}

// memLoader is a Loader backed by an in-memory byte slice, shared by both
// backend variants for small/medium objects.
type memLoader struct {
	objType ObjectType
	data    []byte
}

func newMemLoader(objType ObjectType, data []byte) *memLoader {
	return &memLoader{objType: objType, data: data}
}

func (l *memLoader) Type() ObjectType { return l.objType }
func (l *memLoader) Size() int64      { return int64(len(l.data)) }

func (l *memLoader) Bytes() ([]byte, error) {
	out := make([]byte, len(l.data))
	copy(out, l.data)
	return out, nil
}

func (l *memLoader) Reader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.data)), nil
}
