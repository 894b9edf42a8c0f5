package object

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
)

// openPack is one mapped (fully-read) pack file plus its parsed index.
type openPack struct {
	checksum ObjectId
	data     []byte
	index    *PackIndex
	path     string
}

// packSnapshot is an immutable, atomically-swappable view of the pack
// directory's contents (the "copy-on-write list + atomic swap" pattern
// design note 9 calls for).
type packSnapshot struct {
	packs    []*openPack
	dirMTime int64
	fileList string // sorted, joined pack basenames; cheap change fingerprint
}

// FileBackend is the on-disk object backend: loose objects under
// objects/xx/<38-hex>, plus zero or more pack files under objects/pack/.
type FileBackend struct {
	objectsDir string
	packDir    string
	loose      *looseStore

	snapshot atomic.Pointer[packSnapshot]
	refresh  sync.Mutex
}

// NewFileBackend opens (lazily) the object store rooted at objectsDir,
// the "objects/" directory of a git-dir.
func NewFileBackend(objectsDir string) *FileBackend {
	b := &FileBackend{
		objectsDir: objectsDir,
		packDir:    filepath.Join(objectsDir, "pack"),
		loose:      newLooseStore(objectsDir),
	}
	b.snapshot.Store(&packSnapshot{})
	return b
}

// currentPacks returns the current pack snapshot, reloading from disk if
// the pack directory's mtime or file list has changed since last load.
func (b *FileBackend) currentPacks() (*packSnapshot, error) {
	info, err := os.Stat(b.packDir)
	if os.IsNotExist(err) {
		empty := &packSnapshot{}
		b.snapshot.Store(empty)
		return empty, nil
	}
	if err != nil {
		return nil, &IOError{Op: "stat pack dir", Err: err}
	}

	entries, err := os.ReadDir(b.packDir)
	if err != nil {
		return nil, &IOError{Op: "read pack dir", Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	fileList := fmt.Sprint(names)
	mtime := info.ModTime().UnixNano()

	cur := b.snapshot.Load()
	if cur != nil && cur.dirMTime == mtime && cur.fileList == fileList {
		return cur, nil
	}

	b.refresh.Lock()
	defer b.refresh.Unlock()

	cur = b.snapshot.Load()
	if cur != nil && cur.dirMTime == mtime && cur.fileList == fileList {
		return cur, nil
	}

	packs, err := b.loadPacks(names)
	if err != nil {
		return nil, err
	}
	next := &packSnapshot{packs: packs, dirMTime: mtime, fileList: fileList}
	b.snapshot.Store(next)
	return next, nil
}

func (b *FileBackend) loadPacks(names []string) ([]*openPack, error) {
	var packs []*openPack
	for _, name := range names {
		if filepath.Ext(name) != ".pack" {
			continue
		}
		packPath := filepath.Join(b.packDir, name)
		idxPath := packPath[:len(packPath)-len(".pack")] + ".idx"

		packData, err := os.ReadFile(packPath)
		if err != nil {
			return nil, &IOError{Op: "read pack", Err: err}
		}
		idxData, err := os.ReadFile(idxPath)
		if err != nil {
			return nil, &IOError{Op: "read pack index", Err: err}
		}
		idx, err := ReadPackIndex(idxData)
		if err != nil {
			return nil, &CorruptError{Reason: fmt.Sprintf("pack index %s: %v", name, err)}
		}
		packs = append(packs, &openPack{checksum: idx.PackChecksum, data: packData, index: idx, path: packPath})
	}
	return packs, nil
}

func (b *FileBackend) Has(id ObjectId) (bool, error) {
	if b.loose.has(id) {
		return true, nil
	}
	snap, err := b.currentPacks()
	if err != nil {
		return false, err
	}
	for _, p := range snap.packs {
		if _, ok := p.index.Find(id); ok {
			return true, nil
		}
	}
	return false, nil
}

func (b *FileBackend) Open(id ObjectId, typeHint ObjectType) (Loader, error) {
	if b.loose.has(id) {
		objType, data, err := b.loose.read(id)
		if err != nil {
			return nil, err
		}
		if typeHint != TypeAny && objType != typeHint {
			return nil, &IncorrectTypeError{ID: id, Expected: typeHint, Actual: objType}
		}
		return newMemLoader(objType, data), nil
	}

	snap, err := b.currentPacks()
	if err != nil {
		return nil, err
	}
	for _, p := range snap.packs {
		entry, ok := p.index.Find(id)
		if !ok {
			continue
		}
		pf, err := ReadPack(p.data)
		if err != nil {
			return nil, &CorruptError{ID: id, Reason: err.Error()}
		}
		byID := func(want ObjectId) (*RawPackEntry, bool) {
			if e, ok := p.index.Find(want); ok {
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

func (b *FileBackend) Resolve(abbrev AbbreviatedId) ([]ObjectId, error) {
	seen := make(map[ObjectId]struct{})
	var out []ObjectId

	looseIDs, err := b.loose.listIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range looseIDs {
		if abbrev.Matches(id) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}

	snap, err := b.currentPacks()
	if err != nil {
		return nil, err
	}
	for _, p := range snap.packs {
		for _, id := range p.index.ResolveAbbrev(abbrev) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (b *FileBackend) NewInserter() Inserter {
	return newFileInserter(b.loose)
}

func (b *FileBackend) Close() error { return nil }
