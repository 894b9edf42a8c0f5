package refs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vcsdb/gitkernel/pkg/object"
)

// Entry is one reflog line: a ref's old and new value at a point in time,
// with the porcelain-supplied reason (e.g. "commit", "checkout: moving
// from main to feature", "pull").
type Entry struct {
	Ref       string
	OldID     object.ObjectId
	NewID     object.ObjectId
	Timestamp int64
	Reason    string
}

func (db *Database) reflogPath(ref string) string {
	return filepath.Join(db.gitDir, "logs", filepath.FromSlash(ref))
}

// appendReflog appends one entry to ref's log, creating it and its parent
// directories if necessary.
func (db *Database) appendReflog(ref string, oldID, newID object.ObjectId, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}
	path := db.reflogPath(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w", err)
	}

	line := fmt.Sprintf("%s %s %d %s\n", oldID.String(), newID.String(), time.Now().Unix(), reason)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

// ReadReflog returns ref's log entries, newest first, capped at limit (0
// means unbounded).
func (db *Database) ReadReflog(ref string, limit int) ([]Entry, error) {
	f, err := os.Open(db.reflogPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 4 {
			continue
		}
		oldID, err := object.ParseObjectId(parts[0])
		if err != nil {
			continue
		}
		newID, err := object.ParseObjectId(parts[1])
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Ref: ref, OldID: oldID, NewID: newID, Timestamp: ts, Reason: parts[3]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// EntryAt returns the n-th most recent reflog entry for ref (n=0 is the
// latest), as used by "<ref>@{n}" revision syntax.
func (db *Database) EntryAt(ref string, n int) (Entry, error) {
	entries, err := db.ReadReflog(ref, n+1)
	if err != nil {
		return Entry{}, err
	}
	if n < 0 || n >= len(entries) {
		return Entry{}, fmt.Errorf("reflog %q has no entry @{%d}", ref, n)
	}
	return entries[n], nil
}

// checkoutFromPrefix is the reason prefix a checkout writes to HEAD's
// reflog, used to recover "@{-N}" (the ref checked out N switches ago).
const checkoutFromPrefix = "checkout: moving from "

// PreviousCheckout returns the ref name that was checked out from n
// checkouts ago (n=0 is the branch active immediately before the current
// one), by scanning HEAD's reflog for "checkout: moving from X to Y"
// entries and returning each entry's X in turn.
func (db *Database) PreviousCheckout(n int) (string, error) {
	entries, err := db.ReadReflog("HEAD", 0)
	if err != nil {
		return "", err
	}
	count := 0
	for _, e := range entries {
		from, ok := parseCheckoutReason(e.Reason)
		if !ok {
			continue
		}
		if count == n {
			return from, nil
		}
		count++
	}
	return "", fmt.Errorf("no @{-%d} checkout entry in HEAD's reflog", n)
}

func parseCheckoutReason(reason string) (from string, ok bool) {
	rest, ok := strings.CutPrefix(reason, checkoutFromPrefix)
	if !ok {
		return "", false
	}
	from, _, ok = strings.Cut(rest, " to ")
	return from, ok
}
