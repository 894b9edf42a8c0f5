package repo

import (
	"os"
	"path/filepath"
)

// RepositoryState classifies what mid-operation state the repository is in,
// derived purely from the presence of marker files under the git directory
// (spec.md §4.7). gitkernel never writes these markers itself (porcelain
// like merge/rebase/cherry-pick is out of scope) but must still report them
// faithfully when another tool left them behind.
type RepositoryState int

const (
	StateBare RepositoryState = iota
	StateSafe
	StateMerging
	StateMergingResolved
	StateRebasing
	StateRebasingInteractive
	StateRebasingMerge
	StateApply
	StateBisecting
	StateCherryPicking
	StateCherryPickingResolved
	StateReverting
	StateRevertingResolved
)

func (s RepositoryState) String() string {
	switch s {
	case StateBare:
		return "BARE"
	case StateSafe:
		return "SAFE"
	case StateMerging:
		return "MERGING"
	case StateMergingResolved:
		return "MERGING_RESOLVED"
	case StateRebasing:
		return "REBASING"
	case StateRebasingInteractive:
		return "REBASING_INTERACTIVE"
	case StateRebasingMerge:
		return "REBASING_MERGE"
	case StateApply:
		return "APPLY"
	case StateBisecting:
		return "BISECTING"
	case StateCherryPicking:
		return "CHERRY_PICKING"
	case StateCherryPickingResolved:
		return "CHERRY_PICKING_RESOLVED"
	case StateReverting:
		return "REVERTING"
	case StateRevertingResolved:
		return "REVERTING_RESOLVED"
	default:
		return "UNKNOWN"
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetRepositoryState inspects marker files under gitDir and returns the
// current mid-operation state.
func (r *Repository) GetRepositoryState() RepositoryState {
	if r.bare {
		return StateBare
	}
	gd := r.gitDir

	if exists(filepath.Join(gd, "BISECT_LOG")) {
		return StateBisecting
	}
	if exists(filepath.Join(gd, "rebase-merge")) {
		if exists(filepath.Join(gd, "rebase-merge", "interactive")) {
			return StateRebasingInteractive
		}
		return StateRebasingMerge
	}
	if exists(filepath.Join(gd, "rebase-apply")) {
		if exists(filepath.Join(gd, "rebase-apply", "rebasing")) {
			return StateRebasing
		}
		return StateApply
	}
	if exists(filepath.Join(gd, "CHERRY_PICK_HEAD")) {
		if exists(filepath.Join(gd, "MERGE_MSG")) {
			return StateCherryPickingResolved
		}
		return StateCherryPicking
	}
	if exists(filepath.Join(gd, "REVERT_HEAD")) {
		if exists(filepath.Join(gd, "MERGE_MSG")) {
			return StateRevertingResolved
		}
		return StateReverting
	}
	if exists(filepath.Join(gd, "MERGE_HEAD")) {
		if exists(filepath.Join(gd, "MERGE_MSG")) {
			return StateMergingResolved
		}
		return StateMerging
	}
	return StateSafe
}

// scalarFile names the small git-dir files the façade exposes typed
// read/write helpers for.
type scalarFile string

const (
	FileMergeHead       scalarFile = "MERGE_HEAD"
	FileOrigHead        scalarFile = "ORIG_HEAD"
	FileCherryPickHead  scalarFile = "CHERRY_PICK_HEAD"
	FileRevertHead      scalarFile = "REVERT_HEAD"
	FileMergeMsg        scalarFile = "MERGE_MSG"
	FileSquashMsg       scalarFile = "SQUASH_MSG"
	FileCommitEditMsg   scalarFile = "COMMIT_EDITMSG"
)

// ReadScalarFile returns the trimmed contents of the named git-dir file, or
// ("", false) if it does not exist.
func (r *Repository) ReadScalarFile(name scalarFile) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(r.gitDir, string(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return trimTrailingNewline(string(data)), true, nil
}

// WriteScalarFile writes content to the named git-dir file, creating it if
// necessary.
func (r *Repository) WriteScalarFile(name scalarFile, content string) error {
	return os.WriteFile(filepath.Join(r.gitDir, string(name)), []byte(content+"\n"), 0o644)
}

// RemoveScalarFile deletes the named git-dir file if present.
func (r *Repository) RemoveScalarFile(name scalarFile) error {
	err := os.Remove(filepath.Join(r.gitDir, string(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
