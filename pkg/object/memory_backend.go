package object

import (
	"bytes"
	"fmt"
	"sync"
)

// memPackDescription is one committed generation of objects, held as a
// pair of zstd-compressed buffers the way a real pack directory holds a
// .pack/.idx pair — except both buffers live in memory instead of on
// disk. The parsed index is cached alongside for fast lookups without
// re-inflating idxZstd on every Has/Open call.
type memPackDescription struct {
	checksum ObjectId
	packZstd []byte
	idxZstd  []byte
	idx      *PackIndex
}

// MemoryBackend is the in-memory object backend ("DFS" in JGit's
// terminology): objects are held as a list of committed pack descriptions
// rather than loose files, useful for tests and for repositories that
// never touch disk. Writers stage objects into a memInserter, which
// commits them as one new pack description on Flush; nothing is visible
// to Has/Open/Resolve until that commit lands.
type MemoryBackend struct {
	mu    sync.RWMutex
	packs []*memPackDescription
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) snapshot() []*memPackDescription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*memPackDescription, len(b.packs))
	copy(out, b.packs)
	return out
}

func (b *MemoryBackend) hasCommitted(id ObjectId) bool {
	for _, desc := range b.snapshot() {
		if _, ok := desc.idx.Find(id); ok {
			return true
		}
	}
	return false
}

// commitPack builds a new pack description from a batch of staged objects
// and atomically appends it to the committed list (copy-on-write, same
// pattern as FileBackend's pack snapshot). A no-op for an empty batch.
func (b *MemoryBackend) commitPack(staged map[ObjectId]stagedMemObject) error {
	if len(staged) == 0 {
		return nil
	}

	ids := make([]ObjectId, 0, len(staged))
	for id := range staged {
		ids = append(ids, id)
	}
	SortObjectIds(ids)

	var packBuf bytes.Buffer
	pw, err := NewPackWriter(&packBuf, uint32(len(ids)))
	if err != nil {
		return fmt.Errorf("memory backend: start pack: %w", err)
	}
	for _, id := range ids {
		obj := staged[id]
		if err := pw.Add(obj.objType, obj.data); err != nil {
			return fmt.Errorf("memory backend: add object: %w", err)
		}
	}
	checksum, err := pw.Close()
	if err != nil {
		return fmt.Errorf("memory backend: close pack: %w", err)
	}

	var idxBuf bytes.Buffer
	if _, err := WritePackIndex(&idxBuf, pw.Entries(), checksum); err != nil {
		return fmt.Errorf("memory backend: write index: %w", err)
	}
	idx, err := ReadPackIndex(idxBuf.Bytes())
	if err != nil {
		return fmt.Errorf("memory backend: parse index: %w", err)
	}

	packZstd, err := compressZstd(packBuf.Bytes())
	if err != nil {
		return fmt.Errorf("memory backend: compress pack: %w", err)
	}
	idxZstd, err := compressZstd(idxBuf.Bytes())
	if err != nil {
		return fmt.Errorf("memory backend: compress index: %w", err)
	}

	desc := &memPackDescription{checksum: checksum, packZstd: packZstd, idxZstd: idxZstd, idx: idx}

	b.mu.Lock()
	next := make([]*memPackDescription, len(b.packs), len(b.packs)+1)
	copy(next, b.packs)
	b.packs = append(next, desc)
	b.mu.Unlock()

	return nil
}

// rollbackPack removes a previously committed pack description, identified
// by its checksum — e.g. to undo a consolidation that a later step aborted.
func (b *MemoryBackend) rollbackPack(checksum ObjectId) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i, desc := range b.packs {
		if desc.checksum == checksum {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("memory backend: no committed pack with checksum %s", checksum)
	}
	next := make([]*memPackDescription, 0, len(b.packs)-1)
	next = append(next, b.packs[:idx]...)
	next = append(next, b.packs[idx+1:]...)
	b.packs = next
	return nil
}

func (b *MemoryBackend) Has(id ObjectId) (bool, error) {
	return b.hasCommitted(id), nil
}

func (b *MemoryBackend) Open(id ObjectId, typeHint ObjectType) (Loader, error) {
	for _, desc := range b.snapshot() {
		entry, ok := desc.idx.Find(id)
		if !ok {
			continue
		}
		packData, err := decompressZstd(desc.packZstd)
		if err != nil {
			return nil, &CorruptError{ID: id, Reason: fmt.Sprintf("decompress pack: %v", err)}
		}
		pf, err := ReadPack(packData)
		if err != nil {
			return nil, &CorruptError{ID: id, Reason: err.Error()}
		}
		byID := func(want ObjectId) (*RawPackEntry, bool) {
			if e, ok := desc.idx.Find(want); ok {
				for i := range pf.Entries {
					if pf.Entries[i].Offset == e.Offset {
						return &pf.Entries[i], true
					}
				}
			}
			return nil, false
		}
		res := newResolver(pf.Entries, byID, DefaultMaxDeltaChainDepth)
		objType, data, err := res.resolveOffset(entry.Offset)
		if err != nil {
			return nil, &CorruptError{ID: id, Reason: err.Error()}
		}
		if typeHint != TypeAny && objType != typeHint {
			return nil, &IncorrectTypeError{ID: id, Expected: typeHint, Actual: objType}
		}
		return newMemLoader(objType, data), nil
	}
	return nil, &MissingError{ID: id}
}

func (b *MemoryBackend) Resolve(abbrev AbbreviatedId) ([]ObjectId, error) {
	seen := make(map[ObjectId]struct{})
	var out []ObjectId
	for _, desc := range b.snapshot() {
		for _, id := range desc.idx.ResolveAbbrev(abbrev) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (b *MemoryBackend) NewInserter() Inserter {
	return newMemInserter(b)
}

func (b *MemoryBackend) Close() error { return nil }
