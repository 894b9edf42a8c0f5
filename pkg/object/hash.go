package object

import (
	"crypto/sha1"
	"fmt"
	"hash"
	"io"
)

// envelopeHeader returns the "type size\0" prefix Git hashes together
// with the object content.
func envelopeHeader(objType ObjectType, size int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", objType, size))
}

// HashObject computes the ObjectId of data under the given type, matching
// Git's SHA1("<type> <size>\0" || data) convention.
func HashObject(objType ObjectType, data []byte) ObjectId {
	h := sha1.New()
	h.Write(envelopeHeader(objType, len(data)))
	h.Write(data)
	var id ObjectId
	copy(id[:], h.Sum(nil))
	return id
}

// Hasher streams object bytes into the same envelope HashObject computes,
// for callers writing content incrementally instead of all at once.
type Hasher struct {
	h    hash.Hash
	size int
}

// NewHasher starts a streamed hash for an object of the given type and
// declared size. The size must be known up front, as it is part of the
// hashed envelope.
func NewHasher(objType ObjectType, size int) *Hasher {
	h := sha1.New()
	h.Write(envelopeHeader(objType, size))
	return &Hasher{h: h, size: size}
}

func (s *Hasher) Write(p []byte) (int, error) {
	return s.h.Write(p)
}

// Sum returns the ObjectId for everything written so far.
func (s *Hasher) Sum() ObjectId {
	var id ObjectId
	copy(id[:], s.h.Sum(nil))
	return id
}

// HashReader hashes the full content of r under objType, given its
// declared size, without buffering the content in memory.
func HashReader(objType ObjectType, size int64, r io.Reader) (ObjectId, error) {
	h := sha1.New()
	h.Write(envelopeHeader(objType, int(size)))
	if _, err := io.Copy(h, r); err != nil {
		return ObjectId{}, fmt.Errorf("hash reader: %w", err)
	}
	var id ObjectId
	copy(id[:], h.Sum(nil))
	return id, nil
}
