package repo

import (
	"fmt"

	"github.com/vcsdb/gitkernel/pkg/object"
)

// Reachable walks every current ref (loose and packed) and returns the
// full set of objects transitively reachable from them: commits via their
// parent chain and tree, trees via their entries, and annotated tags via
// their target. This is the root-collection step a real GC's
// loose-to-pack consolidation builds on (see DESIGN.md) — gitkernel itself
// never rewrites pack files for space reclamation, but callers performing
// their own consolidation need exactly this reachable set to decide what
// loose objects are safe to fold into a new pack.
func (r *Repository) Reachable() (map[object.ObjectId]struct{}, error) {
	allRefs, err := r.refs.GetRefs("")
	if err != nil {
		return nil, fmt.Errorf("reachable: list refs: %w", err)
	}

	seen := make(map[object.ObjectId]struct{})
	var queue []object.ObjectId
	for name, ref := range allRefs {
		if ref.ObjectID.IsZero() {
			continue
		}
		queue = append(queue, ref.ObjectID)
		if ref.IsPeeled {
			queue = append(queue, ref.PeeledID)
		}
		_ = name
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		loader, err := r.objects.Open(id, object.TypeAny)
		if err != nil {
			continue // unreachable-but-dangling ref targets are skipped, not fatal
		}
		data, err := loader.Bytes()
		if err != nil {
			return nil, fmt.Errorf("reachable: read %s: %w", id, err)
		}

		switch loader.Type() {
		case object.TypeCommit:
			commit, err := object.UnmarshalCommit(data)
			if err != nil {
				return nil, fmt.Errorf("reachable: parse commit %s: %w", id, err)
			}
			queue = append(queue, commit.Tree)
			queue = append(queue, commit.Parents...)
		case object.TypeTree:
			tree, err := object.UnmarshalTree(data)
			if err != nil {
				return nil, fmt.Errorf("reachable: parse tree %s: %w", id, err)
			}
			for _, entry := range tree.Entries {
				queue = append(queue, entry.ID)
			}
		case object.TypeTag:
			tag, err := object.UnmarshalTag(data)
			if err != nil {
				return nil, fmt.Errorf("reachable: parse tag %s: %w", id, err)
			}
			queue = append(queue, tag.Object)
		case object.TypeBlob:
			// leaf; nothing further to walk
		}
	}

	return seen, nil
}
