package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4/v4"
)

// mozlz4 header: 8-byte magic "mozLz40\x00"
var mozLz4Magic = []byte("mozLz40\x00")

const mozLz4HeaderSize = 12 // 8 magic + 4 size

type backupFile struct {
	Version    int                        `json:"version"`
	ExportedAt time.Time                  `json:"exportedAt"`
	Items      map[string]json.RawMessage `json:"items"`
}

// Export writes every key of s to w as JSON in mozlz4 framing, the format
// Firefox uses for its compressed profile files.
func Export(ctx context.Context, s Store, w io.Writer) (int, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return 0, err
	}
	items, err := s.Get(ctx, keys...)
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(backupFile{Version: 1, ExportedAt: time.Now().UTC(), Items: items})
	if err != nil {
		return 0, fmt.Errorf("encode backup: %w", err)
	}
	if _, err := w.Write(CompressMozLz4(data)); err != nil {
		return 0, fmt.Errorf("write backup: %w", err)
	}
	return len(items), nil
}

// Import reads a backup produced by Export and writes its keys into s.
// Keys not present in the backup are left untouched.
func Import(ctx context.Context, s Store, r io.Reader) (int, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read backup: %w", err)
	}
	data, err := DecompressMozLz4(compressed)
	if err != nil {
		return 0, err
	}
	var f backupFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("decode backup: %w", err)
	}
	if f.Version != 1 {
		return 0, fmt.Errorf("unsupported backup version %d", f.Version)
	}

	items := make(map[string]any, len(f.Items))
	for k, v := range f.Items {
		items[k] = v
	}
	if err := s.Set(ctx, items); err != nil {
		return 0, fmt.Errorf("restore backup: %w", err)
	}
	return len(items), nil
}

// CompressMozLz4 compresses data in Mozilla's mozlz4 format:
// 8-byte magic + 4-byte LE uint32 uncompressed size + lz4 block data.
func CompressMozLz4(data []byte) []byte {
	block := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, block, nil)
	if err != nil || n == 0 {
		// Incompressible input is stored as a single literal run.
		block = literalBlock(data)
		n = len(block)
	}

	out := make([]byte, mozLz4HeaderSize, mozLz4HeaderSize+n)
	copy(out, mozLz4Magic)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(data)))
	return append(out, block[:n]...)
}

func literalBlock(src []byte) []byte {
	var b []byte
	if l := len(src); l < 15 {
		b = append(b, byte(l<<4))
	} else {
		b = append(b, 0xF0)
		for r := l - 15; ; r -= 255 {
			if r < 255 {
				b = append(b, byte(r))
				break
			}
			b = append(b, 255)
		}
	}
	return append(b, src...)
}

// DecompressMozLz4 decompresses data in Mozilla's mozlz4 format.
func DecompressMozLz4(data []byte) ([]byte, error) {
	if len(data) < mozLz4HeaderSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:len(mozLz4Magic)], mozLz4Magic) {
		return nil, fmt.Errorf("mozlz4: invalid header magic")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[8:12])
	if uncompressedSize == 0 {
		return []byte{}, nil
	}

	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[mozLz4HeaderSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}
