package object

// ObjectType identifies the kind of object stored in the database.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"

	// TypeAny is used as a read-side hint meaning "accept any type".
	TypeAny ObjectType = ""
)

const (
	// Tree entry mode strings, compatible with Git's canonical mode encoding.
	ModeDir        = "40000"
	ModeFile       = "100644"
	ModeExecutable = "100755"
	ModeSymlink    = "120000"
	ModeGitlink    = "160000"
)

// Blob holds raw file content. Bytes are opaque to the core.
type Blob struct {
	Data []byte
}

// TreeEntry is one row of a tree object, sorted by Name within the tree.
type TreeEntry struct {
	Name string
	Mode string
	ID   ObjectId
}

// Tree lists a sorted set of entries (files, subtrees, gitlinks).
type Tree struct {
	Entries []TreeEntry
}

// Signature identifies a commit author or committer at a point in time.
type Signature struct {
	Name      string
	Email     string
	When      int64 // Unix seconds
	TZOffset  string // e.g. "+0000"
}

// Commit references exactly one tree and zero or more parents.
type Commit struct {
	Tree      ObjectId
	Parents   []ObjectId
	Author    Signature
	Committer Signature
	Message   string
}

// Tag is an annotated tag referencing exactly one target object.
type Tag struct {
	Object  ObjectId
	Type    ObjectType
	Name    string
	Tagger  Signature
	Message string
}
