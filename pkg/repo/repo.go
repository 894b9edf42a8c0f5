// Package repo implements the repository façade (spec.md §4.7): it binds
// an object database, a reference database, and repository configuration
// into one handle, with use-counted lifetime and directory-path,
// repository-state, and derived-ref-view accessors.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/vcsdb/gitkernel/pkg/object"
	"github.com/vcsdb/gitkernel/pkg/refs"
	"github.com/vcsdb/gitkernel/pkg/revision"
)

// Repository is an opened Git repository: a git directory, an optional
// work tree, and the object/ref databases rooted there.
type Repository struct {
	gitDir   string
	workTree string // "" for a bare repository
	bare     bool

	objects  *object.Database
	refs     *refs.Database
	resolver *revision.Resolver

	configMu sync.Mutex
	config   *Config

	useCount atomic.Int32
}

// Open binds a Repository to an existing git directory without creating
// anything on disk. gitDir must already contain an objects/ directory;
// workTree == "" marks a bare repository.
func Open(gitDir, workTree string) (*Repository, error) {
	objDB, err := object.NewFileDatabase(filepath.Join(gitDir, "objects"))
	if err != nil {
		return nil, fmt.Errorf("open repository %q: %w", gitDir, err)
	}
	cfg, err := ReadConfig(gitDir)
	if err != nil {
		objDB.Close()
		return nil, fmt.Errorf("open repository %q: %w", gitDir, err)
	}

	r := &Repository{
		gitDir:   gitDir,
		workTree: workTree,
		bare:     workTree == "",
		objects:  objDB,
		config:   cfg,
	}
	r.refs = refs.NewDatabase(gitDir, objDB)
	r.resolver = &revision.Resolver{Objects: objDB, Refs: r.refs, Upstream: r}
	r.useCount.Store(1)
	return r, nil
}

// Init creates a new git directory at gitDir (bare if workTree == "") with
// the minimal layout the file-backed object and ref databases expect, then
// opens it. gitDir may already exist as a directory; Init fails if it
// already holds a HEAD file.
func Init(gitDir, workTree string) (*Repository, error) {
	if exists(filepath.Join(gitDir, "HEAD")) {
		return nil, fmt.Errorf("init: %q already contains a repository", gitDir)
	}
	dirs := []string{
		filepath.Join(gitDir, "objects", "pack"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
		filepath.Join(gitDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}
	headPath := filepath.Join(gitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}
	return Open(gitDir, workTree)
}

// Upstream satisfies revision.UpstreamLookup by delegating to the
// repository's config.
func (r *Repository) Upstream(branchShortName string) (string, bool) {
	r.configMu.Lock()
	defer r.configMu.Unlock()
	return r.config.Upstream(branchShortName)
}

// Retain increments the use count. Paired Close calls release the
// underlying databases once the count returns to zero.
func (r *Repository) Retain() {
	r.useCount.Add(1)
}

// Close decrements the use count, releasing the object database's open
// file handles once it reaches zero. Safe to call more times than Retain;
// extra calls are no-ops once already released.
func (r *Repository) Close() error {
	n := r.useCount.Add(-1)
	if n != 0 {
		return nil
	}
	return r.objects.Close()
}

// GitDir returns the repository's git directory (e.g. ".git" or a bare
// repository's root).
func (r *Repository) GitDir() string { return r.gitDir }

// WorkTree returns the work tree root, or a *NoWorkTreeError for a bare
// repository.
func (r *Repository) WorkTree() (string, error) {
	if r.bare {
		return "", &NoWorkTreeError{GitDir: r.gitDir}
	}
	return r.workTree, nil
}

// IndexFile returns the path to the index/dircache file, or a
// *NoWorkTreeError for a bare repository. The index format itself is out
// of scope (spec.md Non-goals); this only resolves the path other tooling
// would use.
func (r *Repository) IndexFile() (string, error) {
	if r.bare {
		return "", &NoWorkTreeError{GitDir: r.gitDir}
	}
	return filepath.Join(r.gitDir, "index"), nil
}

// IsBare reports whether this repository has no work tree.
func (r *Repository) IsBare() bool { return r.bare }

// Objects returns the bound object database.
func (r *Repository) Objects() *object.Database { return r.objects }

// Refs returns the bound reference database.
func (r *Repository) Refs() *refs.Database { return r.refs }

// Config returns the repository's configuration. The returned pointer is
// shared; call SetConfig to persist edits.
func (r *Repository) Config() *Config {
	r.configMu.Lock()
	defer r.configMu.Unlock()
	return r.config
}

// SetConfig atomically persists cfg as the repository's configuration.
func (r *Repository) SetConfig(cfg *Config) error {
	r.configMu.Lock()
	defer r.configMu.Unlock()
	if err := WriteConfig(r.gitDir, cfg); err != nil {
		return err
	}
	r.config = cfg
	return nil
}

// Resolve evaluates a revision expression (spec.md §4.6) against this
// repository's object and ref databases.
func (r *Repository) Resolve(rev string) (object.ObjectId, error) {
	return r.resolver.Resolve(rev)
}

// GetBranch returns the short name of HEAD's target (e.g. "main"), or ""
// with ok == false when HEAD is detached or unresolvable.
func (r *Repository) GetBranch() (name string, ok bool) {
	head, err := r.refs.ExactRef("HEAD")
	if err != nil || !head.IsSymbolic() {
		return "", false
	}
	return Simplify(head.SymbolicTarget), true
}

// simplifiablePrefixes are the well-known ref namespaces Simplify strips,
// checked longest-first so "refs/remotes/origin/HEAD" doesn't match the
// bare "refs/" prefix before the more specific one gets a chance.
var simplifiablePrefixes = []string{
	"refs/remotes/",
	"refs/heads/",
	"refs/tags/",
	"refs/",
}

// Simplify shortens a fully-qualified ref name to the form
// refs.Database.FindShort would re-expand it from, e.g.
// "refs/heads/main" -> "main". Names outside any well-known namespace are
// returned unchanged. This is the inverse of the candidate expansion
// FindShort performs.
func Simplify(name string) string {
	for _, prefix := range simplifiablePrefixes {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			return name[len(prefix):]
		}
	}
	return name
}
