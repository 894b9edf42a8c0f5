package object

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
)

// PackIndex is an in-memory representation of an idx v2 file, searched by
// fan-out-bounded binary search (mirrors JGit's PackIndex.resolve).
type PackIndex struct {
	fanout        [256]uint32
	entries       []PackIndexEntry
	PackChecksum  ObjectId
	IndexChecksum ObjectId
}

// Entries returns a copy of all index entries in ascending id order.
func (idx *PackIndex) Entries() []PackIndexEntry {
	out := make([]PackIndexEntry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Find performs fanout-bounded binary search for an id in the index.
func (idx *PackIndex) Find(id ObjectId) (PackIndexEntry, bool) {
	bucket := int(id[0])
	start := uint32(0)
	if bucket > 0 {
		start = idx.fanout[bucket-1]
	}
	end := idx.fanout[bucket]
	if end <= start {
		return PackIndexEntry{}, false
	}

	lo, hi := int(start), int(end)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if idx.entries[mid].ID.Less(id) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < int(end) && idx.entries[lo].ID == id {
		return idx.entries[lo], true
	}
	return PackIndexEntry{}, false
}

// ResolveAbbrev returns every id in the index matching the abbreviation,
// narrowing the scan to the fan-out bucket(s) the prefix can land in.
func (idx *PackIndex) ResolveAbbrev(abbrev AbbreviatedId) []ObjectId {
	first := int(abbrev.bytes[0])
	lo, hi := first, first
	if abbrev.bitLength < 8 {
		lo, hi = first&0xf0, first|0x0f
	}
	start := uint32(0)
	if lo > 0 {
		start = idx.fanout[lo-1]
	}
	end := idx.fanout[hi]
	var out []ObjectId
	for _, e := range idx.entries[start:end] {
		if abbrev.Matches(e.ID) {
			out = append(out, e.ID)
		}
	}
	return out
}

// ReadPackIndexFromReader parses an idx v2 stream.
func ReadPackIndexFromReader(r io.Reader) (*PackIndex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pack index stream: %w", err)
	}
	return ReadPackIndex(data)
}

// ReadPackIndex parses and validates an idx v2 file.
func ReadPackIndex(data []byte) (*PackIndex, error) {
	minLen := packIndexHeaderSize + packIndexFanoutSize + 2*IDSize
	if len(data) < minLen {
		return nil, fmt.Errorf("pack index too short: %d", len(data))
	}
	if string(data[:4]) != string(packIndexMagic[:]) {
		return nil, fmt.Errorf("invalid pack index magic %q", data[:4])
	}
	version := binary.BigEndian.Uint32(data[4:8])
	if version != packIndexVersion {
		return nil, fmt.Errorf("unsupported pack index version %d", version)
	}

	gotChecksum := data[len(data)-IDSize:]
	sum := sha1.Sum(data[:len(data)-IDSize])
	if !bytesEqual(gotChecksum, sum[:]) {
		return nil, fmt.Errorf("pack index checksum mismatch")
	}

	var fanout [256]uint32
	cursor := packIndexHeaderSize
	for i := 0; i < 256; i++ {
		fanout[i] = binary.BigEndian.Uint32(data[cursor:])
		cursor += 4
	}
	n := int(fanout[255])

	namesLen := n * IDSize
	crcLen := n * 4
	offsetLen := n * 4
	if cursor+namesLen+crcLen+offsetLen+2*IDSize > len(data) {
		return nil, fmt.Errorf("pack index truncated")
	}

	namesStart := cursor
	cursor += namesLen
	crcStart := cursor
	cursor += crcLen
	offsetStart := cursor
	cursor += offsetLen

	offset32 := make([]uint32, n)
	var largeNeeded uint32
	for i := 0; i < n; i++ {
		v := binary.BigEndian.Uint32(data[offsetStart+(i*4):])
		offset32[i] = v
		if v&packIndexLargeOffsetBit != 0 {
			ref := v & ^packIndexLargeOffsetBit
			if ref+1 > largeNeeded {
				largeNeeded = ref + 1
			}
		}
	}

	largeOffsets := make([]uint64, largeNeeded)
	for i := uint32(0); i < largeNeeded; i++ {
		if cursor+8 > len(data)-2*IDSize {
			return nil, fmt.Errorf("pack index large-offset table truncated")
		}
		largeOffsets[i] = binary.BigEndian.Uint64(data[cursor:])
		cursor += 8
	}

	if cursor+2*IDSize != len(data) {
		return nil, fmt.Errorf("pack index trailing data: %d bytes", len(data)-(cursor+2*IDSize))
	}

	packChecksumRaw := data[cursor : cursor+IDSize]
	cursor += IDSize
	indexChecksumRaw := data[cursor : cursor+IDSize]

	entries := make([]PackIndexEntry, n)
	for i := 0; i < n; i++ {
		id, err := ObjectIdFromBytes(data[namesStart+(i*IDSize) : namesStart+((i+1)*IDSize)])
		if err != nil {
			return nil, fmt.Errorf("pack index entry %d: %w", i, err)
		}
		offset := uint64(offset32[i])
		if offset32[i]&packIndexLargeOffsetBit != 0 {
			ref := offset32[i] & ^packIndexLargeOffsetBit
			if int(ref) >= len(largeOffsets) {
				return nil, fmt.Errorf("pack index invalid large offset reference %d", ref)
			}
			offset = largeOffsets[ref]
		}
		entries[i] = PackIndexEntry{
			ID:     id,
			CRC32:  binary.BigEndian.Uint32(data[crcStart+(i*4):]),
			Offset: offset,
		}
	}

	packChecksum, err := ObjectIdFromBytes(packChecksumRaw)
	if err != nil {
		return nil, fmt.Errorf("pack index pack checksum: %w", err)
	}
	indexChecksum, err := ObjectIdFromBytes(indexChecksumRaw)
	if err != nil {
		return nil, fmt.Errorf("pack index index checksum: %w", err)
	}

	return &PackIndex{
		fanout:        fanout,
		entries:       entries,
		PackChecksum:  packChecksum,
		IndexChecksum: indexChecksum,
	}, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
