package revision

import (
	"regexp"
	"strings"

	"github.com/vcsdb/gitkernel/pkg/object"
	"github.com/vcsdb/gitkernel/pkg/refs"
)

// UpstreamLookup resolves a local branch's configured upstream
// (branch.<name>.remote + branch.<name>.merge) to a remote-tracking ref
// name, for "@{upstream}". Implemented outside this package (by the
// config layer) so the resolver has no direct config-file dependency.
type UpstreamLookup interface {
	Upstream(branchShortName string) (remoteTrackingRef string, ok bool)
}

// Resolver evaluates revision expressions against an object database and
// a reference database.
type Resolver struct {
	Objects  *object.Database
	Refs     *refs.Database
	Upstream UpstreamLookup
}

// describeSuffix matches git describe's "-g<hex>" abbreviated-id suffix,
// e.g. "v1.2.3-4-gabc1234".
var describeSuffix = regexp.MustCompile(`-g([0-9a-fA-F]{4,40})$`)

// Resolve parses and evaluates a revision expression to a single object
// id. Unresolvable names yield (ObjectId{}, nil) per spec, except for
// the explicit error cases ^{type} mismatch, malformed ^n/~n, and
// ambiguous abbreviations.
func (r *Resolver) Resolve(input string) (object.ObjectId, error) {
	expr, err := Parse(input)
	if err != nil {
		return object.ObjectId{}, err
	}

	id, found, err := r.resolveBase(expr.Base)
	if err != nil {
		return object.ObjectId{}, err
	}
	if !found {
		return object.ObjectId{}, nil
	}

	for _, suf := range expr.Suffixes {
		id, found, err = r.applySuffix(input, id, suf)
		if err != nil {
			return object.ObjectId{}, err
		}
		if !found {
			return object.ObjectId{}, nil
		}
	}
	return id, nil
}

// resolveBase implements §4.6's base matching order: literal HEAD-family
// names, full sha-hex, ref expansion, abbreviated-id, describe suffix.
func (r *Resolver) resolveBase(base string) (object.ObjectId, bool, error) {
	switch base {
	case "HEAD", "MERGE_HEAD", "FETCH_HEAD":
		id, err := r.Refs.Resolve(base)
		if err == nil {
			return id, true, nil
		}
		if _, ok := err.(*refs.MissingRefError); ok {
			return object.ObjectId{}, false, nil
		}
		return object.ObjectId{}, false, err
	}

	if id, err := object.ParseObjectId(base); err == nil {
		return id, true, nil
	}

	if ref, err := r.Refs.FindShort(base); err == nil {
		return ref.ObjectID, true, nil
	} else if _, ok := err.(*refs.MissingRefError); !ok {
		return object.ObjectId{}, false, err
	}

	if abbrev, err := object.ParseAbbreviatedId(base); err == nil {
		id, err := r.Objects.ResolveUnique(abbrev)
		switch {
		case err == nil:
			return id, true, nil
		case isMissingObjectError(err):
			// fall through to the describe-suffix attempt below
		default:
			return object.ObjectId{}, false, err
		}
	}

	if m := describeSuffix.FindStringSubmatch(base); m != nil {
		abbrev, err := object.ParseAbbreviatedId(m[1])
		if err != nil {
			return object.ObjectId{}, false, nil
		}
		id, err := r.Objects.ResolveUnique(abbrev)
		if err != nil {
			if isMissingObjectError(err) {
				return object.ObjectId{}, false, nil
			}
			return object.ObjectId{}, false, err
		}
		return id, true, nil
	}

	return object.ObjectId{}, false, nil
}

func isMissingObjectError(err error) bool {
	_, ok := err.(*object.MissingError)
	return ok
}

func (r *Resolver) applySuffix(input string, id object.ObjectId, tok Token) (object.ObjectId, bool, error) {
	switch tok.Kind {
	case TokCaret:
		return r.applyCaret(id, tok.Num)
	case TokCaretType:
		return r.peelToType(input, id, tok.Text)
	case TokTilde:
		return r.applyTilde(id, tok.Num)
	case TokAtNum:
		return r.applyAtNum(input, tok.Num)
	case TokAtUpstream:
		return r.applyUpstream(input)
	case TokAtPrevCheckout:
		return r.applyPrevCheckout(tok.Num)
	case TokColonPath:
		return r.applyPath(id, tok.Text)
	default:
		return object.ObjectId{}, false, &SyntaxError{Input: input, Reason: "unsupported suffix token"}
	}
}

// applyCaret: ^0 asserts commit-ness without moving; ^n (n>=1) is the
// n-th parent; n greater than the parent count yields not-found.
func (r *Resolver) applyCaret(id object.ObjectId, n int) (object.ObjectId, bool, error) {
	commit, err := r.loadCommit(id)
	if err != nil {
		if isMissingObjectError(err) {
			return object.ObjectId{}, false, nil
		}
		return object.ObjectId{}, false, err
	}
	if n == 0 {
		return id, true, nil
	}
	if n > len(commit.Parents) {
		return object.ObjectId{}, false, nil
	}
	return commit.Parents[n-1], true, nil
}

// applyTilde walks parent[0] n times.
func (r *Resolver) applyTilde(id object.ObjectId, n int) (object.ObjectId, bool, error) {
	cur := id
	for i := 0; i < n; i++ {
		commit, err := r.loadCommit(cur)
		if err != nil {
			if isMissingObjectError(err) {
				return object.ObjectId{}, false, nil
			}
			return object.ObjectId{}, false, err
		}
		if len(commit.Parents) == 0 {
			return object.ObjectId{}, false, nil
		}
		cur = commit.Parents[0]
	}
	return cur, true, nil
}

// loadCommit peels id (following annotated tags) to a commit object.
func (r *Resolver) loadCommit(id object.ObjectId) (*object.Commit, error) {
	loader, err := r.Objects.Open(id, object.TypeAny)
	if err != nil {
		return nil, err
	}
	if loader.Type() == object.TypeTag {
		data, err := loader.Bytes()
		if err != nil {
			return nil, err
		}
		tag, err := object.UnmarshalTag(data)
		if err != nil {
			return nil, err
		}
		return r.loadCommit(tag.Object)
	}
	if loader.Type() != object.TypeCommit {
		return nil, &object.IncorrectTypeError{ID: id, Expected: object.TypeCommit, Actual: loader.Type()}
	}
	data, err := loader.Bytes()
	if err != nil {
		return nil, err
	}
	return object.UnmarshalCommit(data)
}

// peelToType follows tag -> target chains (and commit -> tree for the
// "tree" case) until the requested type is reached or exhausted.
func (r *Resolver) peelToType(input string, id object.ObjectId, typeName string) (object.ObjectId, bool, error) {
	want := object.ObjectType(typeName)
	cur := id
	for depth := 0; depth < 16; depth++ {
		loader, err := r.Objects.Open(cur, object.TypeAny)
		if err != nil {
			if isMissingObjectError(err) {
				return object.ObjectId{}, false, nil
			}
			return object.ObjectId{}, false, err
		}
		if loader.Type() == want {
			return cur, true, nil
		}
		switch loader.Type() {
		case object.TypeTag:
			data, err := loader.Bytes()
			if err != nil {
				return object.ObjectId{}, false, err
			}
			tag, err := object.UnmarshalTag(data)
			if err != nil {
				return object.ObjectId{}, false, err
			}
			cur = tag.Object
		case object.TypeCommit:
			if want == object.TypeTree {
				data, err := loader.Bytes()
				if err != nil {
					return object.ObjectId{}, false, err
				}
				commit, err := object.UnmarshalCommit(data)
				if err != nil {
					return object.ObjectId{}, false, err
				}
				return commit.Tree, true, nil
			}
			return object.ObjectId{}, false, &IncorrectTypeError{Input: input, Expected: typeName}
		default:
			return object.ObjectId{}, false, &IncorrectTypeError{Input: input, Expected: typeName}
		}
	}
	return object.ObjectId{}, false, &IncorrectTypeError{Input: input, Expected: typeName}
}

// applyAtNum resolves "<base>@{n}" against the base ref's own reflog.
// The base here must have been a ref name for this to carry meaning; if
// it was a literal id, there is no reflog and the result is not-found.
func (r *Resolver) applyAtNum(input string, n int) (object.ObjectId, bool, error) {
	name, ok := refNameOf(input)
	if !ok {
		return object.ObjectId{}, false, nil
	}
	entry, err := r.Refs.EntryAt(name, n)
	if err != nil {
		return object.ObjectId{}, false, nil
	}
	return entry.NewID, true, nil
}

// refNameOf returns the base portion of a revision string, if the base
// names a ref at all (the literal base text, not its expanded form —
// EntryAt's reflog path must match what appendReflog was called with).
func refNameOf(input string) (string, bool) {
	base := input
	if idx := strings.IndexAny(base, "^~:@"); idx >= 0 {
		base = base[:idx]
	}
	return base, base != ""
}

func (r *Resolver) applyUpstream(input string) (object.ObjectId, bool, error) {
	if r.Upstream == nil {
		return object.ObjectId{}, false, nil
	}
	name, ok := refNameOf(input)
	if !ok || name == "HEAD" {
		head, err := r.Refs.ExactRef("HEAD")
		if err != nil || !head.IsSymbolic() {
			return object.ObjectId{}, false, nil
		}
		name = head.SymbolicTarget
	}
	short := strings.TrimPrefix(name, "refs/heads/")
	trackingRef, ok := r.Upstream.Upstream(short)
	if !ok {
		return object.ObjectId{}, false, nil
	}
	id, err := r.Refs.Resolve(trackingRef)
	if err != nil {
		if _, ok := err.(*refs.MissingRefError); ok {
			return object.ObjectId{}, false, nil
		}
		return object.ObjectId{}, false, err
	}
	return id, true, nil
}

func (r *Resolver) applyPrevCheckout(n int) (object.ObjectId, bool, error) {
	from, err := r.Refs.PreviousCheckout(n)
	if err != nil {
		return object.ObjectId{}, false, nil
	}
	ref, err := r.Refs.FindShort(from)
	if err != nil {
		if _, ok := err.(*refs.MissingRefError); ok {
			return object.ObjectId{}, false, nil
		}
		return object.ObjectId{}, false, err
	}
	return ref.ObjectID, true, nil
}

// applyPath resolves ":path" against id's tree (peeling a commit/tag to
// its tree first); an empty path returns the tree id itself.
func (r *Resolver) applyPath(id object.ObjectId, path string) (object.ObjectId, bool, error) {
	treeID, err := r.treeOf(id)
	if err != nil {
		if isMissingObjectError(err) {
			return object.ObjectId{}, false, nil
		}
		return object.ObjectId{}, false, err
	}
	if path == "" {
		return treeID, true, nil
	}

	cur := treeID
	parts := strings.Split(path, "/")
	for i, part := range parts {
		loader, err := r.Objects.Open(cur, object.TypeTree)
		if err != nil {
			if isMissingObjectError(err) {
				return object.ObjectId{}, false, nil
			}
			return object.ObjectId{}, false, err
		}
		data, err := loader.Bytes()
		if err != nil {
			return object.ObjectId{}, false, err
		}
		tree, err := object.UnmarshalTree(data)
		if err != nil {
			return object.ObjectId{}, false, err
		}

		var next object.TreeEntry
		found := false
		for _, entry := range tree.Entries {
			if entry.Name == part {
				next, found = entry, true
				break
			}
		}
		if !found {
			return object.ObjectId{}, false, nil
		}
		last := i == len(parts)-1
		if last {
			return next.ID, true, nil
		}
		if next.Mode != object.ModeDir {
			return object.ObjectId{}, false, nil
		}
		cur = next.ID
	}
	return object.ObjectId{}, false, nil
}

// treeOf resolves id to the tree it names: a tree as itself, a commit's
// own tree, or an annotated tag peeled first.
func (r *Resolver) treeOf(id object.ObjectId) (object.ObjectId, error) {
	loader, err := r.Objects.Open(id, object.TypeAny)
	if err != nil {
		return object.ObjectId{}, err
	}
	switch loader.Type() {
	case object.TypeTree:
		return id, nil
	case object.TypeCommit:
		data, err := loader.Bytes()
		if err != nil {
			return object.ObjectId{}, err
		}
		commit, err := object.UnmarshalCommit(data)
		if err != nil {
			return object.ObjectId{}, err
		}
		return commit.Tree, nil
	case object.TypeTag:
		data, err := loader.Bytes()
		if err != nil {
			return object.ObjectId{}, err
		}
		tag, err := object.UnmarshalTag(data)
		if err != nil {
			return object.ObjectId{}, err
		}
		return r.treeOf(tag.Object)
	default:
		return object.ObjectId{}, &object.IncorrectTypeError{ID: id, Expected: object.TypeTree, Actual: loader.Type()}
	}
}
