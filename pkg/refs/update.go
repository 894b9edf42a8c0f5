package refs

import (
	"fmt"
	"os"

	"github.com/vcsdb/gitkernel/pkg/object"
)

// Result classifies the outcome of a ref update, matching the taxonomy
// real git's RefUpdate.Result exposes to porcelain.
type Result int

const (
	ResultNew Result = iota
	ResultNoChange
	ResultFastForward
	ResultForced
	ResultRejected
	ResultLockFailure
	ResultIOFailure
	ResultRenamed
	// ResultRejectedMissingObject means a batch command's new-id does not
	// exist in the object database (spec.md §4.4 batch step 1).
	ResultRejectedMissingObject
	// ResultTransactionAborted marks a peer command in an atomic batch
	// whose own preconditions held, but which was not applied because a
	// different command in the same batch failed (spec.md §4.4 batch
	// step 2, P5).
	ResultTransactionAborted
)

func (r Result) String() string {
	switch r {
	case ResultNew:
		return "new"
	case ResultNoChange:
		return "no-change"
	case ResultFastForward:
		return "fast-forward"
	case ResultForced:
		return "forced"
	case ResultRejected:
		return "rejected"
	case ResultLockFailure:
		return "lock-failure"
	case ResultIOFailure:
		return "io-failure"
	case ResultRenamed:
		return "renamed"
	case ResultRejectedMissingObject:
		return "rejected-missing-object"
	case ResultTransactionAborted:
		return "transaction-aborted"
	default:
		return "unknown"
	}
}

// maxAncestryWalk bounds the fast-forward ancestry search so a corrupt or
// enormous history degrades to "rejected" instead of hanging.
const maxAncestryWalk = 100000

// Update describes one ref pointer change.
type Update struct {
	db *Database

	Name      string
	NewID     object.ObjectId
	ExpectOld bool
	OldID     object.ObjectId
	Force     bool
	Reason    string
}

// NewUpdate starts a pointer update against db for the named ref.
func NewUpdate(db *Database, name string, newID object.ObjectId) *Update {
	return &Update{db: db, Name: name, NewID: newID}
}

// WithExpectedOld constrains the update to succeed only if the ref's
// current value equals old (compare-and-swap semantics).
func (u *Update) WithExpectedOld(old object.ObjectId) *Update {
	u.ExpectOld = true
	u.OldID = old
	return u
}

// WithForce allows a non-fast-forward move.
func (u *Update) WithForce(force bool) *Update {
	u.Force = force
	return u
}

// WithReason sets the reflog reason recorded for this update.
func (u *Update) WithReason(reason string) *Update {
	u.Reason = reason
	return u
}

// Execute performs the update: lock, validate, write, reflog, unlock.
func (u *Update) Execute() (Result, error) {
	db := u.db
	refPath := db.looseRefPath(u.Name)
	lockPath := refPath + ".lock"

	if err := os.MkdirAll(parentDir(refPath), 0o755); err != nil {
		return ResultIOFailure, fmt.Errorf("update ref %q: mkdir: %w", u.Name, err)
	}

	lockFile, err := acquireLock(lockPath)
	if err != nil {
		return ResultLockFailure, fmt.Errorf("update ref %q: %w", u.Name, err)
	}
	committed := false
	defer func() {
		if !committed {
			releaseLock(lockFile, lockPath)
		}
	}()

	current, currentErr := db.ExactRef(u.Name)
	var oldID object.ObjectId
	if currentErr == nil {
		oldID = current.ObjectID
	} else if _, ok := currentErr.(*MissingRefError); !ok {
		return ResultIOFailure, currentErr
	}

	if u.ExpectOld && oldID != u.OldID {
		return ResultLockFailure, &CASMismatchError{Ref: u.Name, Expected: u.OldID, Actual: oldID}
	}

	if oldID == u.NewID {
		return ResultNoChange, nil
	}

	var result Result
	switch {
	case oldID.IsZero():
		result = ResultNew
	case u.Force:
		result = ResultForced
	default:
		ff, err := db.isAncestor(oldID, u.NewID)
		if err != nil {
			return ResultIOFailure, err
		}
		if !ff {
			return ResultRejected, fmt.Errorf("update ref %q: non-fast-forward (old %s not an ancestor of new %s)", u.Name, oldID, u.NewID)
		}
		result = ResultFastForward
	}

	if _, err := lockFile.WriteString(u.NewID.String() + "\n"); err != nil {
		return ResultIOFailure, fmt.Errorf("update ref %q: write: %w", u.Name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return ResultIOFailure, fmt.Errorf("update ref %q: sync: %w", u.Name, err)
	}
	if err := lockFile.Close(); err != nil {
		return ResultIOFailure, fmt.Errorf("update ref %q: close: %w", u.Name, err)
	}
	if err := os.Rename(lockPath, refPath); err != nil {
		return ResultIOFailure, fmt.Errorf("update ref %q: rename: %w", u.Name, err)
	}
	committed = true

	if err := db.appendReflog(u.Name, oldID, u.NewID, u.Reason); err != nil {
		return result, &ReflogAppendError{Ref: u.Name, Err: err}
	}
	return result, nil
}

// isAncestor reports whether candidate is reachable by walking new's
// parent chain, bounded by maxAncestryWalk commits.
func (db *Database) isAncestor(candidate, newID object.ObjectId) (bool, error) {
	if db.objDB == nil {
		// No object database wired in: cannot determine ancestry, so
		// fail closed rather than silently accepting a non-fast-forward.
		return false, nil
	}
	if candidate.IsZero() {
		return true, nil
	}

	visited := make(map[object.ObjectId]bool)
	queue := []object.ObjectId{newID}
	steps := 0

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == candidate {
			return true, nil
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		steps++
		if steps > maxAncestryWalk {
			return false, nil
		}

		loader, err := db.objDB.Open(id, object.TypeCommit)
		if err != nil {
			continue
		}
		data, err := loader.Bytes()
		if err != nil {
			continue
		}
		commit, err := object.UnmarshalCommit(data)
		if err != nil {
			continue
		}
		queue = append(queue, commit.Parents...)
	}
	return false, nil
}

func parentDir(path string) string {
	idx := len(path) - 1
	for idx >= 0 && path[idx] != '/' && path[idx] != '\\' {
		idx--
	}
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
