package object

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"fmt"
	"io"
)

// DefaultMaxDeltaChainDepth bounds delta-chain resolution; longer chains
// are treated as pack corruption rather than looped forever.
const DefaultMaxDeltaChainDepth = 50

// RawPackEntry is one still-possibly-delta entry decoded from a pack
// stream, indexed by its byte offset within the pack.
type RawPackEntry struct {
	Offset     uint64
	Type       PackObjectType
	Size       uint64 // inflated payload size (object size, or delta instruction length)
	BaseOffset uint64 // valid when Type == PackOfsDelta
	BaseID     ObjectId // valid when Type == PackRefDelta
	Payload    []byte   // inflated object bytes, or delta instructions
}

// PackFile is the decoded content of a full pack stream.
type PackFile struct {
	Header   PackHeader
	Entries  []RawPackEntry
	Checksum ObjectId
}

// ReadPack parses a full pack file byte slice, verifies the trailer
// checksum, and returns still-possibly-delta entries.
func ReadPack(data []byte) (*PackFile, error) {
	if len(data) < packHeaderSize+IDSize {
		return nil, fmt.Errorf("pack too short: %d", len(data))
	}
	payload := data[:len(data)-IDSize]
	trailer := data[len(data)-IDSize:]

	sum := sha1.Sum(payload)
	if !bytesEqual(sum[:], trailer) {
		return nil, fmt.Errorf("pack checksum mismatch")
	}

	header, err := UnmarshalPackHeader(payload[:packHeaderSize])
	if err != nil {
		return nil, err
	}

	offset := packHeaderSize
	entries := make([]RawPackEntry, 0, header.NumObjects)
	for i := uint32(0); i < header.NumObjects; i++ {
		entryStart := offset
		objType, size, n, err := decodePackEntryHeader(payload[offset:])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		offset += n

		entry := RawPackEntry{Offset: uint64(entryStart), Type: objType, Size: size}

		switch objType {
		case PackOfsDelta:
			dist, consumed, err := decodeOfsDeltaDistance(payload[offset:])
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			if dist > uint64(entryStart) {
				return nil, fmt.Errorf("entry %d: ofs-delta base precedes pack start", i)
			}
			entry.BaseOffset = uint64(entryStart) - dist
			offset += consumed
		case PackRefDelta:
			if offset+IDSize > len(payload) {
				return nil, fmt.Errorf("entry %d: ref-delta base id truncated", i)
			}
			id, err := ObjectIdFromBytes(payload[offset : offset+IDSize])
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			entry.BaseID = id
			offset += IDSize
		}

		if offset >= len(payload) {
			return nil, fmt.Errorf("entry %d: missing compressed payload", i)
		}

		sub := bytes.NewReader(payload[offset:])
		zr, err := zlib.NewReader(sub)
		if err != nil {
			return nil, fmt.Errorf("entry %d: zlib reader: %w", i, err)
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			_ = zr.Close()
			return nil, fmt.Errorf("entry %d: decompress: %w", i, err)
		}
		if err := zr.Close(); err != nil {
			return nil, fmt.Errorf("entry %d: close zlib stream: %w", i, err)
		}
		if uint64(len(raw)) != size {
			return nil, fmt.Errorf("entry %d: size mismatch header=%d decoded=%d", i, size, len(raw))
		}

		consumed := len(payload[offset:]) - sub.Len()
		offset += consumed

		entry.Payload = raw
		entries = append(entries, entry)
	}

	if offset != len(payload) {
		return nil, fmt.Errorf("pack has trailing undecoded bytes: %d", len(payload)-offset)
	}

	return &PackFile{
		Header:   *header,
		Entries:  entries,
		Checksum: ObjectId(trailer[:IDSize]),
	}, nil
}

// ReadPackFromReader reads a complete pack stream from r and delegates to
// ReadPack for decode and verification.
func ReadPackFromReader(r io.Reader) (*PackFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pack stream: %w", err)
	}
	return ReadPack(data)
}

// resolver reconstructs full object bytes from a decoded pack's
// still-possibly-delta entries, bounding delta chain depth and
// rejecting cycles (a corruption per §4.2).
type resolver struct {
	byOffset map[uint64]*RawPackEntry
	byID     func(ObjectId) (*RawPackEntry, bool)
	maxDepth int
	cache    map[uint64][]byte
}

func newResolver(entries []RawPackEntry, byID func(ObjectId) (*RawPackEntry, bool), maxDepth int) *resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDeltaChainDepth
	}
	byOffset := make(map[uint64]*RawPackEntry, len(entries))
	for i := range entries {
		byOffset[entries[i].Offset] = &entries[i]
	}
	return &resolver{byOffset: byOffset, byID: byID, maxDepth: maxDepth, cache: make(map[uint64][]byte)}
}

// resolveOffset reconstructs the full object bytes and base type for the
// entry at offset.
func (r *resolver) resolveOffset(offset uint64) (ObjectType, []byte, error) {
	return r.resolve(offset, make(map[uint64]bool), 0)
}

func (r *resolver) resolve(offset uint64, visiting map[uint64]bool, depth int) (ObjectType, []byte, error) {
	if depth > r.maxDepth {
		return "", nil, fmt.Errorf("delta chain exceeds max depth %d", r.maxDepth)
	}
	if visiting[offset] {
		return "", nil, fmt.Errorf("delta chain cycle detected at offset %d", offset)
	}
	entry, ok := r.byOffset[offset]
	if !ok {
		return "", nil, fmt.Errorf("no pack entry at offset %d", offset)
	}

	if baseType := entry.Type.baseType(); baseType != "" {
		return baseType, entry.Payload, nil
	}

	visiting[offset] = true
	defer delete(visiting, offset)

	var (
		baseType ObjectType
		baseData []byte
		err      error
	)
	switch entry.Type {
	case PackOfsDelta:
		if cached, ok := r.cache[entry.BaseOffset]; ok {
			baseData = cached
			baseEntry := r.byOffset[entry.BaseOffset]
			baseType = baseEntry.Type.baseType()
			if baseType == "" {
				baseType, _, err = r.resolve(entry.BaseOffset, visiting, depth+1)
				if err != nil {
					return "", nil, err
				}
			}
		} else {
			baseType, baseData, err = r.resolve(entry.BaseOffset, visiting, depth+1)
			if err != nil {
				return "", nil, err
			}
			r.cache[entry.BaseOffset] = baseData
		}
	case PackRefDelta:
		baseEntry, ok := r.byID(entry.BaseID)
		if !ok {
			return "", nil, fmt.Errorf("ref-delta base %s not found in pack", entry.BaseID)
		}
		baseType, baseData, err = r.resolve(baseEntry.Offset, visiting, depth+1)
		if err != nil {
			return "", nil, err
		}
	default:
		return "", nil, fmt.Errorf("unexpected delta type %d", entry.Type)
	}

	result, err := applyDelta(baseData, entry.Payload)
	if err != nil {
		return "", nil, fmt.Errorf("apply delta at offset %d: %w", offset, err)
	}
	return baseType, result, nil
}
