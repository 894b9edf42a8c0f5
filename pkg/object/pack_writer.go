package object

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// PackWriter streams a pack file to w: header, then one entry per Add
// call, then a trailing checksum on Close. Objects are written whole
// (no delta compression) — trading pack size for a dependency-free,
// deterministic writer, same tradeoff the teacher's GC pack writer makes.
type PackWriter struct {
	w       io.Writer
	h       hash.Hash
	tee     io.Writer
	written uint32
	total   uint32
	closed  bool
	offset  uint64
	entries []PackIndexEntry
}

// NewPackWriter starts a pack stream declaring numObjects entries.
func NewPackWriter(w io.Writer, numObjects uint32) (*PackWriter, error) {
	h := sha1.New()
	tee := io.MultiWriter(w, h)

	header := PackHeader{Version: supportedPackVersion, NumObjects: numObjects}
	hdrBytes := header.Marshal()
	if _, err := tee.Write(hdrBytes); err != nil {
		return nil, fmt.Errorf("pack writer: write header: %w", err)
	}
	return &PackWriter{w: w, h: h, tee: tee, total: numObjects, offset: uint64(len(hdrBytes))}, nil
}

// Add appends one object entry to the pack stream.
func (pw *PackWriter) Add(objType ObjectType, data []byte) error {
	if pw.written >= pw.total {
		return fmt.Errorf("pack writer: more objects added than declared (%d)", pw.total)
	}
	packType, err := packObjectTypeFor(objType)
	if err != nil {
		return err
	}

	entryOffset := pw.offset
	id := HashObject(objType, data)

	hdr := encodePackEntryHeader(packType, uint64(len(data)))
	if _, err := pw.tee.Write(hdr); err != nil {
		return fmt.Errorf("pack writer: write entry header: %w", err)
	}
	pw.offset += uint64(len(hdr))

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("pack writer: deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("pack writer: deflate close: %w", err)
	}

	if _, err := pw.tee.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("pack writer: write entry body: %w", err)
	}
	pw.offset += uint64(compressed.Len())

	pw.entries = append(pw.entries, PackIndexEntry{
		ID:     id,
		Offset: entryOffset,
		CRC32:  crc32.ChecksumIEEE(compressed.Bytes()),
	})

	pw.written++
	return nil
}

// Entries returns the index entries (id, offset, CRC32) recorded for every
// object added so far, in insertion order.
func (pw *PackWriter) Entries() []PackIndexEntry {
	out := make([]PackIndexEntry, len(pw.entries))
	copy(out, pw.entries)
	return out
}

// Close writes the trailing checksum and returns it as an ObjectId.
func (pw *PackWriter) Close() (ObjectId, error) {
	if pw.closed {
		return ObjectId{}, fmt.Errorf("pack writer: already closed")
	}
	if pw.written != pw.total {
		return ObjectId{}, fmt.Errorf("pack writer: wrote %d objects, declared %d", pw.written, pw.total)
	}
	pw.closed = true

	sum := pw.h.Sum(nil)
	if _, err := pw.w.Write(sum); err != nil {
		return ObjectId{}, fmt.Errorf("pack writer: write checksum: %w", err)
	}
	id, err := ObjectIdFromBytes(sum)
	if err != nil {
		return ObjectId{}, err
	}
	return id, nil
}
