package repo

import (
	"strings"

	"github.com/vcsdb/gitkernel/pkg/object"
	"github.com/vcsdb/gitkernel/pkg/refs"
)

// GetAllRefs returns every ref in the repository, keyed by fully-qualified
// name (spec.md §4.7 "getAllRefs").
func (r *Repository) GetAllRefs() (map[string]refs.Ref, error) {
	return r.refs.GetRefs("")
}

// GetTags returns every ref under refs/tags/, keyed by fully-qualified
// name.
func (r *Repository) GetTags() (map[string]refs.Ref, error) {
	return r.refs.GetRefs("refs/tags/")
}

// GetAllRefsByPeeledId groups every ref by the non-tag object it
// ultimately resolves to (peeling annotated tags), so callers can find all
// the names pointing at a given commit/tree/blob in one pass.
func (r *Repository) GetAllRefsByPeeledId() (map[object.ObjectId][]string, error) {
	all, err := r.refs.GetRefs("")
	if err != nil {
		return nil, err
	}
	byPeeled := make(map[object.ObjectId][]string, len(all))
	for name := range all {
		if strings.HasSuffix(name, ".lock") {
			continue
		}
		id, err := r.refs.Peel(name)
		if err != nil {
			continue
		}
		byPeeled[id] = append(byPeeled[id], name)
	}
	return byPeeled, nil
}
