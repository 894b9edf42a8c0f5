package refs

import (
	"fmt"
	"os"
	"sort"

	"github.com/vcsdb/gitkernel/pkg/object"
)

// CommandKind classifies one entry of a batch ref update, mirroring the
// receive-pack command verbs a push negotiates.
type CommandKind int

const (
	CmdCreate CommandKind = iota
	CmdUpdate
	CmdUpdateNonFastForward
	CmdDelete
)

// Command is one ref change within a BatchUpdate.
type Command struct {
	Kind   CommandKind
	Name   string
	OldID  object.ObjectId
	NewID  object.ObjectId
	Reason string
}

// CommandResult pairs a submitted command with its outcome. PeeledID is
// populated when NewID names an annotated tag (spec.md §4.4 batch step 1),
// giving the resulting ref record its peeled value without a second walk.
type CommandResult struct {
	Command  Command
	Result   Result
	Err      error
	PeeledID object.ObjectId
}

// BatchUpdate validates and applies a set of ref changes as a single
// atomic unit: every command's ref is locked and checked against the
// current ref state before any ref is written, and the whole batch is
// rejected if one command fails validation.
type BatchUpdate struct {
	db       *Database
	commands []Command
}

// NewBatchUpdate starts an empty batch against db.
func NewBatchUpdate(db *Database) *BatchUpdate {
	return &BatchUpdate{db: db}
}

// Add appends one command to the batch.
func (b *BatchUpdate) Add(cmd Command) *BatchUpdate {
	b.commands = append(b.commands, cmd)
	return b
}

// Execute validates every command, then applies them all. If validation
// rejects any command, no ref in the batch is modified: the offending
// command's result names the specific cause (RejectedMissingObject,
// LockFailure, or Rejected) and every other command's result becomes
// TransactionAborted. Locks are acquired in sorted ref-name order to avoid
// deadlocking against a concurrent batch touching the same refs.
func (b *BatchUpdate) Execute() ([]CommandResult, error) {
	results := make([]CommandResult, len(b.commands))
	for i, cmd := range b.commands {
		results[i] = CommandResult{Command: cmd}
	}

	order := make([]int, len(b.commands))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return b.commands[order[i]].Name < b.commands[order[j]].Name
	})

	type locked struct {
		idx      int
		refPath  string
		lockPath string
		file     *os.File
	}
	var held []locked

	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			releaseLock(held[i].file, held[i].lockPath)
		}
	}

	for _, idx := range order {
		cmd := b.commands[idx]
		refPath := b.db.looseRefPath(cmd.Name)
		lockPath := refPath + ".lock"

		if err := os.MkdirAll(parentDir(refPath), 0o755); err != nil {
			results[idx].Result = ResultIOFailure
			results[idx].Err = err
			releaseAll()
			return abortPeers(results, idx), fmt.Errorf("batch ref update: mkdir %q: %w", cmd.Name, err)
		}

		f, err := acquireLock(lockPath)
		if err != nil {
			results[idx].Result = ResultLockFailure
			results[idx].Err = err
			releaseAll()
			return abortPeers(results, idx), fmt.Errorf("batch ref update: lock %q: %w", cmd.Name, err)
		}
		held = append(held, locked{idx: idx, refPath: refPath, lockPath: lockPath, file: f})

		failResult, peeled, err := b.validate(cmd)
		if err != nil {
			results[idx].Result = failResult
			results[idx].Err = err
			releaseAll()
			return abortPeers(results, idx), fmt.Errorf("batch ref update: %w", err)
		}
		results[idx].PeeledID = peeled
	}

	committed := make(map[int]bool)
	defer func() {
		for _, l := range held {
			if !committed[l.idx] {
				releaseLock(l.file, l.lockPath)
			}
		}
	}()

	for _, l := range held {
		cmd := b.commands[l.idx]
		result, err := b.apply(cmd, l.file, l.refPath, l.lockPath)
		results[l.idx].Result = result
		results[l.idx].Err = err
		if err == nil {
			committed[l.idx] = true
		}
	}

	return results, nil
}

// abortPeers marks every command that had not yet failed or run as
// TRANSACTION_ABORTED: its own preconditions were never disproved, but the
// atomic batch cannot proceed because a sibling command (failedAt) did
// fail (spec.md §4.4 step 2, P5).
func abortPeers(results []CommandResult, failedAt int) []CommandResult {
	for i := range results {
		if i != failedAt && results[i].Result == Result(0) && results[i].Err == nil {
			results[i].Result = ResultTransactionAborted
			results[i].Err = fmt.Errorf("batch ref update: aborted by failure of %q", results[failedAt].Command.Name)
		}
	}
	return results
}

// validate runs both batch-update precondition steps for cmd: step 1
// (spec.md §4.4) checks that a non-delete command's new-id exists in the
// object database, peeling it if it names an annotated tag; step 2 checks
// the current ref state against the command's expectations. On failure it
// returns the specific Result the offending command should report
// (RejectedMissingObject or LockFailure/Rejected); on success it returns
// the peeled id, if any, for the resulting ref record.
func (b *BatchUpdate) validate(cmd Command) (Result, object.ObjectId, error) {
	var peeled object.ObjectId

	if cmd.Kind != CmdDelete && !cmd.NewID.IsZero() && b.db.objDB != nil {
		has, err := b.db.objDB.Has(cmd.NewID)
		if err != nil {
			return ResultIOFailure, peeled, err
		}
		if !has {
			return ResultRejectedMissingObject, peeled, fmt.Errorf("%q: new id %s not found in object database", cmd.Name, cmd.NewID)
		}
		p, wasTag, err := peelIfTag(b.db.objDB, cmd.NewID)
		if err != nil {
			return ResultIOFailure, peeled, err
		}
		if wasTag {
			peeled = p
		}
	}

	current, err := b.db.ExactRef(cmd.Name)
	var curID object.ObjectId
	if err == nil {
		curID = current.ObjectID
	} else if _, ok := err.(*MissingRefError); !ok {
		return ResultIOFailure, peeled, err
	}

	switch cmd.Kind {
	case CmdCreate:
		if !curID.IsZero() {
			return ResultLockFailure, peeled, fmt.Errorf("create %q: ref already exists", cmd.Name)
		}
	case CmdDelete:
		if curID != cmd.OldID {
			return ResultLockFailure, peeled, &CASMismatchError{Ref: cmd.Name, Expected: cmd.OldID, Actual: curID}
		}
	case CmdUpdate:
		if curID != cmd.OldID {
			return ResultLockFailure, peeled, &CASMismatchError{Ref: cmd.Name, Expected: cmd.OldID, Actual: curID}
		}
		if !curID.IsZero() {
			ff, err := b.db.isAncestor(curID, cmd.NewID)
			if err != nil {
				return ResultIOFailure, peeled, err
			}
			if !ff {
				return ResultRejected, peeled, fmt.Errorf("update %q: non-fast-forward", cmd.Name)
			}
		}
	case CmdUpdateNonFastForward:
		if curID != cmd.OldID {
			return ResultLockFailure, peeled, &CASMismatchError{Ref: cmd.Name, Expected: cmd.OldID, Actual: curID}
		}
	default:
		return ResultIOFailure, peeled, fmt.Errorf("unknown command kind %d for %q", cmd.Kind, cmd.Name)
	}
	return 0, peeled, nil
}

func (b *BatchUpdate) apply(cmd Command, lockFile *os.File, refPath, lockPath string) (Result, error) {
	if cmd.Kind == CmdDelete {
		if err := os.Remove(refPath); err != nil && !os.IsNotExist(err) {
			return ResultIOFailure, fmt.Errorf("delete ref %q: %w", cmd.Name, err)
		}
		_ = os.Remove(lockPath)
		if err := b.db.appendReflog(cmd.Name, cmd.OldID, object.ObjectId{}, cmd.Reason); err != nil {
			return ResultNoChange, &ReflogAppendError{Ref: cmd.Name, Err: err}
		}
		return ResultNoChange, nil
	}

	if _, err := lockFile.WriteString(cmd.NewID.String() + "\n"); err != nil {
		return ResultIOFailure, fmt.Errorf("write ref %q: %w", cmd.Name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return ResultIOFailure, fmt.Errorf("sync ref %q: %w", cmd.Name, err)
	}
	if err := lockFile.Close(); err != nil {
		return ResultIOFailure, fmt.Errorf("close ref %q: %w", cmd.Name, err)
	}
	if err := os.Rename(lockPath, refPath); err != nil {
		return ResultIOFailure, fmt.Errorf("rename ref %q: %w", cmd.Name, err)
	}

	result := ResultForced
	switch cmd.Kind {
	case CmdCreate:
		result = ResultNew
	case CmdUpdate:
		result = ResultFastForward
	case CmdUpdateNonFastForward:
		result = ResultForced
	}

	if err := b.db.appendReflog(cmd.Name, cmd.OldID, cmd.NewID, cmd.Reason); err != nil {
		return result, &ReflogAppendError{Ref: cmd.Name, Err: err}
	}
	return result, nil
}
