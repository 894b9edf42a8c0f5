package refs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vcsdb/gitkernel/pkg/object"
)

// MaxSymbolicChainDepth bounds symbolic ref resolution (HEAD -> a -> b ->
// ...), treating a longer chain as corruption rather than looping.
const MaxSymbolicChainDepth = 8

// maxPeelDepth bounds annotated-tag dereferencing (tag -> tag -> ... ->
// commit/blob/tree).
const maxPeelDepth = 8

// packedRefsSnapshot is an immutable, atomically-swappable parse of the
// packed-refs file — the same copy-on-write-plus-fingerprint pattern
// object.FileBackend uses for its pack directory.
type packedRefsSnapshot struct {
	entries map[string]Ref
	mtime   int64
	size    int64
}

// Database is the reference database: a loose refs/ directory layered
// over an optional packed-refs file, with an optional object database
// for peeling annotated tags.
type Database struct {
	gitDir string
	objDB  *object.Database

	snapshot atomic.Pointer[packedRefsSnapshot]
	refresh  sync.Mutex
}

// NewDatabase opens the reference database rooted at gitDir (the
// directory containing HEAD, refs/, logs/, and packed-refs). objDB may
// be nil if Peel will never be called.
func NewDatabase(gitDir string, objDB *object.Database) *Database {
	db := &Database{gitDir: gitDir, objDB: objDB}
	db.snapshot.Store(&packedRefsSnapshot{entries: map[string]Ref{}})
	return db
}

func (db *Database) looseRefPath(name string) string {
	return filepath.Join(db.gitDir, filepath.FromSlash(name))
}

func (db *Database) packedRefsPath() string {
	return filepath.Join(db.gitDir, "packed-refs")
}

// readLooseRef reads a single loose ref file, returning ok=false (no
// error) if it does not exist.
func (db *Database) readLooseRef(name string) (Ref, bool, error) {
	data, err := os.ReadFile(db.looseRefPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Ref{}, false, nil
		}
		return Ref{}, false, fmt.Errorf("read ref %q: %w", name, err)
	}
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		return Ref{Name: name, Tier: Loose, SymbolicTarget: strings.TrimSpace(target)}, true, nil
	}
	id, err := object.ParseObjectId(content)
	if err != nil {
		return Ref{}, false, fmt.Errorf("ref %q: malformed content %q: %w", name, content, err)
	}
	return Ref{Name: name, Tier: Loose, ObjectID: id}, true, nil
}

// currentPackedRefs returns the cached parse of packed-refs, reloading
// when the file's mtime or size has changed.
func (db *Database) currentPackedRefs() (*packedRefsSnapshot, error) {
	info, err := os.Stat(db.packedRefsPath())
	if os.IsNotExist(err) {
		empty := &packedRefsSnapshot{entries: map[string]Ref{}}
		db.snapshot.Store(empty)
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat packed-refs: %w", err)
	}

	cur := db.snapshot.Load()
	if cur != nil && cur.mtime == info.ModTime().UnixNano() && cur.size == info.Size() {
		return cur, nil
	}

	db.refresh.Lock()
	defer db.refresh.Unlock()

	cur = db.snapshot.Load()
	if cur != nil && cur.mtime == info.ModTime().UnixNano() && cur.size == info.Size() {
		return cur, nil
	}

	entries, err := db.parsePackedRefs(db.packedRefsPath())
	if err != nil {
		return nil, err
	}
	next := &packedRefsSnapshot{entries: entries, mtime: info.ModTime().UnixNano(), size: info.Size()}
	db.snapshot.Store(next)
	return next, nil
}

func (db *Database) parsePackedRefs(path string) (map[string]Ref, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open packed-refs: %w", err)
	}
	defer f.Close()

	entries := make(map[string]Ref)
	var lastName string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "^") {
			peeled, err := object.ParseObjectId(line[1:])
			if err != nil || lastName == "" {
				continue
			}
			ref := entries[lastName]
			ref.IsPeeled = true
			ref.PeeledID = peeled
			entries[lastName] = ref
			continue
		}
		idStr, name, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		id, err := object.ParseObjectId(idStr)
		if err != nil {
			continue
		}
		entries[name] = Ref{Name: name, Tier: Packed, ObjectID: id}
		lastName = name
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan packed-refs: %w", err)
	}
	return entries, nil
}

// ExactRef returns the ref record for an exact name, without resolving
// symbolic targets. A loose definition shadows a packed one.
func (db *Database) ExactRef(name string) (*Ref, error) {
	loose, looseOK, err := db.readLooseRef(name)
	if err != nil {
		return nil, err
	}
	packedSnap, err := db.currentPackedRefs()
	if err != nil {
		return nil, err
	}
	packed, packedOK := packedSnap.entries[name]

	switch {
	case looseOK && packedOK:
		loose.Tier = LoosePacked
		return &loose, nil
	case looseOK:
		return &loose, nil
	case packedOK:
		return &packed, nil
	default:
		return nil, &MissingRefError{Name: name}
	}
}

// FindRef resolves name through its full symbolic chain down to a direct
// ref, bounded by MaxSymbolicChainDepth.
func (db *Database) FindRef(name string) (*Ref, error) {
	cur := name
	for depth := 0; depth < MaxSymbolicChainDepth; depth++ {
		ref, err := db.ExactRef(cur)
		if err != nil {
			return nil, err
		}
		if !ref.IsSymbolic() {
			return ref, nil
		}
		cur = ref.SymbolicTarget
	}
	return nil, ErrSymbolicChainTooDeep
}

// shortNameCandidates lists, in order, the fully-qualified names a short
// name expands to: heads before tags before remotes (the explicit
// decision recorded in DESIGN.md for the ambiguous heads-vs-tags case).
func shortNameCandidates(short string) []string {
	return []string{
		short,
		"refs/" + short,
		"refs/heads/" + short,
		"refs/tags/" + short,
		"refs/remotes/" + short,
		"refs/remotes/" + short + "/HEAD",
	}
}

// FindShort expands a short ref name against shortNameCandidates, in
// order, returning the first candidate that exists (following its
// symbolic chain, if any).
func (db *Database) FindShort(short string) (*Ref, error) {
	var lastErr error
	for _, candidate := range shortNameCandidates(short) {
		ref, err := db.FindRef(candidate)
		if err == nil {
			return ref, nil
		}
		if _, ok := err.(*MissingRefError); ok {
			continue
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &MissingRefError{Name: short}
}

// Resolve resolves name to its final object id, following any symbolic
// chain.
func (db *Database) Resolve(name string) (object.ObjectId, error) {
	ref, err := db.FindRef(name)
	if err != nil {
		return object.ObjectId{}, err
	}
	return ref.ObjectID, nil
}

// GetRefs returns every ref whose name has the given prefix (pass "" for
// all refs, which also includes HEAD), merging loose and packed tiers
// with loose shadowing packed.
func (db *Database) GetRefs(prefix string) (map[string]Ref, error) {
	out := make(map[string]Ref)

	if prefix == "" {
		if head, ok, err := db.readLooseRef("HEAD"); err != nil {
			return nil, err
		} else if ok {
			out["HEAD"] = head
		}
	}

	packedSnap, err := db.currentPackedRefs()
	if err != nil {
		return nil, err
	}
	for name, ref := range packedSnap.entries {
		if strings.HasPrefix(name, prefix) {
			out[name] = ref
		}
	}

	root := filepath.Join(db.gitDir, "refs")
	walkRoot := root
	if prefix != "" {
		// Only descend as far as the prefix can reach; if the prefix
		// names a file directly, walk its parent and filter instead.
		candidate := filepath.Join(db.gitDir, filepath.FromSlash(prefix))
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			walkRoot = candidate
		}
	}

	err = filepath.WalkDir(walkRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(db.gitDir, path)
		if relErr != nil {
			return relErr
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		ref, ok, readErr := db.readLooseRef(name)
		if readErr != nil {
			return readErr
		}
		if !ok {
			return nil
		}
		if _, wasPacked := out[name]; wasPacked {
			ref.Tier = LoosePacked
		}
		out[name] = ref
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk refs: %w", err)
	}
	return out, nil
}

// Peel resolves name down to the non-tag object it ultimately refers to,
// using a cached packed-refs peel value when available and otherwise
// walking annotated tag objects through the object database.
func (db *Database) Peel(name string) (object.ObjectId, error) {
	ref, err := db.FindRef(name)
	if err != nil {
		return object.ObjectId{}, err
	}
	if ref.IsPeeled {
		return ref.PeeledID, nil
	}
	if db.objDB == nil {
		return ref.ObjectID, nil
	}

	peeled, _, err := peelIfTag(db.objDB, ref.ObjectID)
	if err != nil {
		return object.ObjectId{}, fmt.Errorf("peel %q: %w", name, err)
	}
	return peeled, nil
}

// peelIfTag walks id through an annotated-tag chain (bounded by
// maxPeelDepth), returning the first non-tag object reached and whether id
// itself named a tag. A non-tag id is returned unchanged with wasTag ==
// false. Shared by Peel and BatchUpdate's object-existence validation
// (spec.md §4.4 batch step 1's "annotated-tag targets are peeled for the
// resulting ref record").
func peelIfTag(objDB *object.Database, id object.ObjectId) (peeled object.ObjectId, wasTag bool, err error) {
	cur := id
	for depth := 0; depth < maxPeelDepth; depth++ {
		loader, err := objDB.Open(cur, object.TypeAny)
		if err != nil {
			return object.ObjectId{}, false, err
		}
		if loader.Type() != object.TypeTag {
			return cur, wasTag, nil
		}
		wasTag = true
		data, err := loader.Bytes()
		if err != nil {
			return object.ObjectId{}, false, err
		}
		tag, err := object.UnmarshalTag(data)
		if err != nil {
			return object.ObjectId{}, false, err
		}
		cur = tag.Object
	}
	return object.ObjectId{}, false, fmt.Errorf("id %s: tag chain exceeds max depth %d", id, maxPeelDepth)
}
