// Package refs implements the reference database: the mutable name ->
// object id mapping (branches, tags, HEAD, remote-tracking refs) layered
// over a content-addressed object store. Storage mirrors git's own
// loose-ref-over-packed-refs layout, generalized from the teacher's
// single-tier refs.go/branch.go/reflog.go.
package refs

import "github.com/vcsdb/gitkernel/pkg/object"

// StorageTier reports where a ref's current definition lives.
type StorageTier int

const (
	// New means the ref does not exist yet in either tier.
	New StorageTier = iota
	// Loose means the ref is defined by a file directly under refs/.
	Loose
	// Packed means the ref is defined only by a line in packed-refs.
	Packed
	// LoosePacked means a loose file shadows a stale packed-refs entry.
	LoosePacked
)

func (t StorageTier) String() string {
	switch t {
	case Loose:
		return "loose"
	case Packed:
		return "packed"
	case LoosePacked:
		return "loose+packed"
	default:
		return "new"
	}
}

// Ref is one resolved reference record. A symbolic ref carries
// SymbolicTarget and no meaningful ObjectID until resolved; a direct ref
// carries ObjectID and an empty SymbolicTarget.
type Ref struct {
	Name           string
	Tier           StorageTier
	SymbolicTarget string
	ObjectID       object.ObjectId
	IsPeeled       bool
	PeeledID       object.ObjectId
}

// IsSymbolic reports whether this ref points at another ref by name
// rather than directly at an object id.
func (r Ref) IsSymbolic() bool { return r.SymbolicTarget != "" }
