package object

import "github.com/klauspost/compress/zstd"

// compressZstd compresses data using zstd, same one-shot helper the
// teacher's remote package uses for wire-transfer payloads — here applied
// to the in-memory backend's staged pack buffers instead of network frames.
func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd-compressed data.
func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
