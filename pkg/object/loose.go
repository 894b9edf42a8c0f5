package object

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// looseStore manages the objects/xx/<38-hex> fan-out directory of
// zlib-deflated loose objects.
type looseStore struct {
	objectsDir string
}

func newLooseStore(objectsDir string) *looseStore {
	return &looseStore{objectsDir: objectsDir}
}

func (s *looseStore) path(id ObjectId) string {
	hex := id.String()
	return filepath.Join(s.objectsDir, hex[:2], hex[2:])
}

func (s *looseStore) has(id ObjectId) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// writeDirect stages and immediately publishes an object in one step, for
// callers that don't need explicit-flush batching.
func (s *looseStore) writeDirect(objType ObjectType, data []byte) (ObjectId, error) {
	id := HashObject(objType, data)
	if s.has(id) {
		return id, nil
	}
	tmp, err := s.stage(objType, data)
	if err != nil {
		return id, err
	}
	if err := s.publish(tmp, s.path(id)); err != nil {
		return id, err
	}
	return id, nil
}

// stage deflates an object to a temp file in the destination fan-out
// directory without publishing it. The caller must later call publish
// (to rename into place) or remove the temp file itself to discard it.
func (s *looseStore) stage(objType ObjectType, data []byte) (string, error) {
	id := HashObject(objType, data)
	dir := filepath.Join(s.objectsDir, id.String()[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Op: "loose mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-obj-*")
	if err != nil {
		return "", &IOError{Op: "loose tempfile", Err: err}
	}
	tmpName := tmp.Name()

	zw := zlib.NewWriter(tmp)
	if _, err := zw.Write(envelopeHeader(objType, len(data))); err != nil {
		_ = zw.Close()
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", &IOError{Op: "loose deflate header", Err: err}
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", &IOError{Op: "loose deflate body", Err: err}
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", &IOError{Op: "loose deflate close", Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", &IOError{Op: "loose close", Err: err}
	}
	return tmpName, nil
}

// publish atomically renames a staged temp file into its final path.
func (s *looseStore) publish(tmpPath, dest string) error {
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return &IOError{Op: "loose rename", Err: err}
	}
	return nil
}

// read retrieves a loose object's type and inflated content.
func (s *looseStore) read(id ObjectId) (ObjectType, []byte, error) {
	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, &MissingError{ID: id}
		}
		return "", nil, &IOError{Op: "loose read", Err: err}
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, &CorruptError{ID: id, Reason: fmt.Sprintf("zlib: %v", err)}
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, &CorruptError{ID: id, Reason: fmt.Sprintf("inflate: %v", err)}
	}

	nul := bytes.IndexByte(inflated, 0)
	if nul < 0 {
		return "", nil, &CorruptError{ID: id, Reason: "missing envelope NUL"}
	}
	header := string(inflated[:nul])
	content := inflated[nul+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, &CorruptError{ID: id, Reason: fmt.Sprintf("malformed envelope %q", header)}
	}
	objType := ObjectType(parts[0])
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, &CorruptError{ID: id, Reason: fmt.Sprintf("malformed size %q", parts[1])}
	}
	if len(content) != length {
		return "", nil, &CorruptError{ID: id, Reason: fmt.Sprintf("size mismatch header=%d actual=%d", length, len(content))}
	}

	return objType, content, nil
}

// listIDs enumerates every loose object id on disk.
func (s *looseStore) listIDs() ([]ObjectId, error) {
	var ids []ObjectId
	entries, err := os.ReadDir(s.objectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "loose listdir", Err: err}
	}
	for _, fanoutDir := range entries {
		if !fanoutDir.IsDir() || len(fanoutDir.Name()) != 2 {
			continue
		}
		sub, err := os.ReadDir(filepath.Join(s.objectsDir, fanoutDir.Name()))
		if err != nil {
			return nil, &IOError{Op: "loose listdir", Err: err}
		}
		for _, f := range sub {
			if f.IsDir() || len(f.Name()) != IDSize*2-2 {
				continue
			}
			id, err := ParseObjectId(fanoutDir.Name() + f.Name())
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
