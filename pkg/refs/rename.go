package refs

import (
	"fmt"
	"os"
	"path/filepath"
)

// RenameRef atomically renames ref from to to: the ref's current object id
// is retained, its reflog is moved forward where one exists, and a
// "renamed from X to Y" entry is appended to it (spec.md §4.4 "Rename").
//
// An empty from means "the branch HEAD currently points at" — the
// convenience form used to rename the checked-out branch without naming
// it. If HEAD does not resolve to a branch in that case (it is detached),
// RenameRef fails with *DetachedHeadError rather than guessing which ref
// to rename (scenario S6); HEAD is left unchanged.
func (db *Database) RenameRef(from, to string) (Result, error) {
	if from == "" {
		head, err := db.ExactRef("HEAD")
		if err != nil {
			return ResultIOFailure, err
		}
		if !head.IsSymbolic() {
			return ResultLockFailure, &DetachedHeadError{}
		}
		from = head.SymbolicTarget
	}

	fromRef, err := db.ExactRef(from)
	if err != nil {
		return ResultIOFailure, err
	}
	if fromRef.IsSymbolic() {
		return ResultIOFailure, fmt.Errorf("rename ref %q: cannot rename a symbolic ref", from)
	}

	if existing, err := db.ExactRef(to); err == nil {
		return ResultLockFailure, fmt.Errorf("rename ref %q to %q: %q already exists", from, to, existing.Name)
	} else if _, ok := err.(*MissingRefError); !ok {
		return ResultIOFailure, err
	}

	toPath := db.looseRefPath(to)
	toLockPath := toPath + ".lock"
	if err := os.MkdirAll(parentDir(toPath), 0o755); err != nil {
		return ResultIOFailure, fmt.Errorf("rename ref %q: mkdir: %w", to, err)
	}
	lockFile, err := acquireLock(toLockPath)
	if err != nil {
		return ResultLockFailure, fmt.Errorf("rename ref %q: %w", to, err)
	}
	committed := false
	defer func() {
		if !committed {
			releaseLock(lockFile, toLockPath)
		}
	}()

	if _, err := lockFile.WriteString(fromRef.ObjectID.String() + "\n"); err != nil {
		return ResultIOFailure, fmt.Errorf("rename ref %q: write: %w", to, err)
	}
	if err := lockFile.Sync(); err != nil {
		return ResultIOFailure, fmt.Errorf("rename ref %q: sync: %w", to, err)
	}
	if err := lockFile.Close(); err != nil {
		return ResultIOFailure, fmt.Errorf("rename ref %q: close: %w", to, err)
	}
	if err := os.Rename(toLockPath, toPath); err != nil {
		return ResultIOFailure, fmt.Errorf("rename ref %q: rename: %w", to, err)
	}
	committed = true

	db.moveReflog(from, to)

	reason := fmt.Sprintf("renamed from %s to %s", from, to)
	if err := db.appendReflog(to, fromRef.ObjectID, fromRef.ObjectID, reason); err != nil {
		return ResultRenamed, &ReflogAppendError{Ref: to, Err: err}
	}

	if err := os.Remove(db.looseRefPath(from)); err != nil && !os.IsNotExist(err) {
		return ResultRenamed, fmt.Errorf("rename ref %q: remove old ref: %w", from, err)
	}

	if head, err := db.ExactRef("HEAD"); err == nil && head.IsSymbolic() && head.SymbolicTarget == from {
		if err := db.setSymbolicRef("HEAD", to); err != nil {
			return ResultRenamed, fmt.Errorf("rename ref %q: repoint HEAD: %w", from, err)
		}
	}

	return ResultRenamed, nil
}

// moveReflog relocates from's reflog file to to's path, best-effort: spec.md
// §4.4 only requires the reflog to move "where possible" (a from with no
// reflog yet, e.g. a freshly packed ref, has nothing to move).
func (db *Database) moveReflog(from, to string) {
	oldPath := db.reflogPath(from)
	newPath := db.reflogPath(to)
	if _, err := os.Stat(oldPath); err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return
	}
	_ = os.Rename(oldPath, newPath)
}

// setSymbolicRef overwrites name's loose file with a symbolic pointer at
// target, the same direct-write approach cmd/gitcore's symbolic-ref
// subcommand uses.
func (db *Database) setSymbolicRef(name, target string) error {
	path := db.looseRefPath(name)
	if err := os.MkdirAll(parentDir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("ref: "+target+"\n"), 0o644)
}
