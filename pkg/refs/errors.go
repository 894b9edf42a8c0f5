package refs

import (
	"errors"
	"fmt"

	"github.com/vcsdb/gitkernel/pkg/object"
)

// ErrCASMismatch is returned (wrapped) when a ref update's expected old
// value does not match the ref's current value.
var ErrCASMismatch = errors.New("ref compare-and-swap mismatch")

// ErrSymbolicChainTooDeep guards against symbolic ref cycles: HEAD -> a ->
// b -> a would otherwise recurse forever.
var ErrSymbolicChainTooDeep = errors.New("symbolic ref chain too deep")

// ErrLockTimeout is returned when a ref lockfile could not be acquired
// before the configured wait limit elapsed.
var ErrLockTimeout = errors.New("ref lock timeout")

// CASMismatchError carries the expected/actual values of a failed
// compare-and-swap ref update.
type CASMismatchError struct {
	Ref      string
	Expected object.ObjectId
	Actual   object.ObjectId
}

func (e *CASMismatchError) Error() string {
	return fmt.Sprintf("update ref %q: %s (expected %s, found %s)", e.Ref, ErrCASMismatch, e.Expected, e.Actual)
}

func (e *CASMismatchError) Is(target error) bool { return target == ErrCASMismatch }

// ReflogAppendError indicates the ref's pointer update committed but its
// reflog entry failed to append — the ref update is not rolled back.
type ReflogAppendError struct {
	Ref string
	Err error
}

func (e *ReflogAppendError) Error() string {
	return fmt.Sprintf("ref %q updated but reflog append failed: %v", e.Ref, e.Err)
}

func (e *ReflogAppendError) Unwrap() error { return e.Err }

// MissingRefError reports that a named ref has no loose or packed
// definition.
type MissingRefError struct {
	Name string
}

func (e *MissingRefError) Error() string { return fmt.Sprintf("ref %q not found", e.Name) }

// ErrDetachedHead is wrapped by DetachedHeadError; exported so callers can
// match it with errors.Is without depending on the struct shape.
var ErrDetachedHead = errors.New("HEAD is detached")

// DetachedHeadError is returned by RenameRef when no explicit source name
// is given and HEAD does not point at a branch to infer one from
// (spec.md §4.4 "Rename", scenario S6).
type DetachedHeadError struct{}

func (e *DetachedHeadError) Error() string { return ErrDetachedHead.Error() }

func (e *DetachedHeadError) Is(target error) bool { return target == ErrDetachedHead }
