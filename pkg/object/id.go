package object

import (
	"encoding/hex"
	"fmt"
	"sort"
)

// IDSize is the number of raw bytes in an ObjectId (SHA-1 digest length).
const IDSize = 20

// ObjectId is a 20-byte SHA-1 object identity. The zero value is the
// reserved "absent" sentinel used by ref updates to mean "no object".
type ObjectId [IDSize]byte

// ZeroID is the reserved sentinel meaning "absent".
var ZeroID ObjectId

// IsZero reports whether id is the all-zero sentinel.
func (id ObjectId) IsZero() bool {
	return id == ZeroID
}

// String returns the 40-character lowercase hex form.
func (id ObjectId) String() string {
	return hex.EncodeToString(id[:])
}

// ParseObjectId parses a 40-character hex string into an ObjectId.
func ParseObjectId(s string) (ObjectId, error) {
	var id ObjectId
	if len(s) != IDSize*2 {
		return id, fmt.Errorf("object id: want %d hex chars, got %d", IDSize*2, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("object id: invalid hex %q: %w", s, err)
	}
	copy(id[:], raw)
	return id, nil
}

// ObjectIdFromBytes copies a 20-byte slice into an ObjectId.
func ObjectIdFromBytes(b []byte) (ObjectId, error) {
	var id ObjectId
	if len(b) != IDSize {
		return id, fmt.Errorf("object id: want %d bytes, got %d", IDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Less reports whether id sorts before other in lexicographic byte order.
func (id ObjectId) Less(other ObjectId) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// SortObjectIds sorts ids in place in lexicographic byte order.
func SortObjectIds(ids []ObjectId) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

// AbbreviatedId is a prefix of an ObjectId expressed as a bit length in
// [4, 160]. Two ids match the prefix iff they agree on the first
// bitLength bits.
type AbbreviatedId struct {
	bytes     [IDSize]byte
	bitLength uint
}

// ParseAbbreviatedId parses a hex prefix (1 to 40 characters) into an
// AbbreviatedId.
func ParseAbbreviatedId(prefix string) (AbbreviatedId, error) {
	var a AbbreviatedId
	n := len(prefix)
	if n < 1 || n > IDSize*2 {
		return a, fmt.Errorf("abbreviated id: length %d out of range [1,%d]", n, IDSize*2)
	}
	padded := prefix
	if n%2 != 0 {
		padded += "0"
	}
	raw, err := hex.DecodeString(padded)
	if err != nil {
		return a, fmt.Errorf("abbreviated id: invalid hex %q: %w", prefix, err)
	}
	copy(a.bytes[:], raw)
	a.bitLength = uint(n) * 4
	return a, nil
}

// BitLength returns the number of significant prefix bits.
func (a AbbreviatedId) BitLength() uint {
	return a.bitLength
}

// Matches reports whether id agrees with the abbreviation on its
// significant prefix bits.
func (a AbbreviatedId) Matches(id ObjectId) bool {
	fullBytes := a.bitLength / 8
	for i := uint(0); i < fullBytes; i++ {
		if id[i] != a.bytes[i] {
			return false
		}
	}
	remBits := a.bitLength % 8
	if remBits == 0 {
		return true
	}
	mask := byte(0xff << (8 - remBits))
	return id[fullBytes]&mask == a.bytes[fullBytes]&mask
}

// String renders the abbreviation as its significant hex prefix.
func (a AbbreviatedId) String() string {
	full := hex.EncodeToString(a.bytes[:])
	nibbles := (a.bitLength + 3) / 4
	if nibbles > uint(len(full)) {
		nibbles = uint(len(full))
	}
	return full[:nibbles]
}

// Resolve returns every ObjectId in candidates that matches the
// abbreviation. Callers classify by len(result): 0 missing, 1 unique,
// >=2 ambiguous.
func (a AbbreviatedId) Resolve(candidates []ObjectId) []ObjectId {
	var out []ObjectId
	for _, id := range candidates {
		if a.Matches(id) {
			out = append(out, id)
		}
	}
	return out
}
