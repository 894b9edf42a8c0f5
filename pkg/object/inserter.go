package object

import (
	"fmt"
	"os"
)

// stagedObject is one not-yet-published write: content already hashed,
// bytes already deflated to a temp file, but not yet renamed into its
// final loose-object path.
type stagedObject struct {
	id      ObjectId
	tmpPath string
	dest    string
}

// fileInserter batches writes against a FileBackend's loose store. Objects
// that already exist are idempotent no-ops and are never staged. Staged
// objects become visible only on Flush, matching the spec's "inserters
// must be explicitly flushed before ids are externally announced".
type fileInserter struct {
	loose   *looseStore
	staged  []stagedObject
	flushed bool
}

func newFileInserter(loose *looseStore) *fileInserter {
	return &fileInserter{loose: loose}
}

func (ins *fileInserter) Insert(objType ObjectType, data []byte) (ObjectId, error) {
	id := HashObject(objType, data)
	if ins.loose.has(id) {
		return id, nil
	}
	for _, s := range ins.staged {
		if s.id == id {
			return id, nil
		}
	}

	tmpPath, err := ins.loose.stage(objType, data)
	if err != nil {
		return id, err
	}
	ins.staged = append(ins.staged, stagedObject{id: id, tmpPath: tmpPath, dest: ins.loose.path(id)})
	return id, nil
}

func (ins *fileInserter) Flush() error {
	for _, s := range ins.staged {
		if err := ins.loose.publish(s.tmpPath, s.dest); err != nil {
			return fmt.Errorf("inserter flush: %w", err)
		}
	}
	ins.staged = nil
	ins.flushed = true
	return nil
}

func (ins *fileInserter) Close() error {
	if !ins.flushed {
		for _, s := range ins.staged {
			_ = os.Remove(s.tmpPath)
		}
	}
	ins.staged = nil
	return nil
}

// memInserter batches writes against a MemoryBackend's staged pack.
type memInserter struct {
	backend *MemoryBackend
	staged  map[ObjectId]stagedMemObject
	flushed bool
}

type stagedMemObject struct {
	objType ObjectType
	data    []byte
}

func newMemInserter(backend *MemoryBackend) *memInserter {
	return &memInserter{backend: backend, staged: make(map[ObjectId]stagedMemObject)}
}

func (ins *memInserter) Insert(objType ObjectType, data []byte) (ObjectId, error) {
	id := HashObject(objType, data)
	if ins.backend.hasCommitted(id) {
		return id, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	ins.staged[id] = stagedMemObject{objType: objType, data: cp}
	return id, nil
}

func (ins *memInserter) Flush() error {
	if err := ins.backend.commitPack(ins.staged); err != nil {
		return err
	}
	ins.staged = make(map[ObjectId]stagedMemObject)
	ins.flushed = true
	return nil
}

func (ins *memInserter) Close() error {
	ins.staged = make(map[ObjectId]stagedMemObject)
	return nil
}
