package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	customerrors "ivr-report/errors"

	"github.com/cespare/xxhash/v2"
)

// Largest value each remote backend takes in one item, leaving room for the
// key and attribute overhead. DynamoDB caps items at 400 KB, MongoDB
// documents at 16 MB.
const (
	DynamoMaxValueSize = 350 << 10
	MongoMaxValueSize  = 15 << 20
)

// chunkMagic opens a manifest. Stored values are JSON, which never starts
// with a NUL byte.
var chunkMagic = []byte("\x00ivr-chunks\x00")

type chunkManifest struct {
	Parts int    `json:"parts"`
	Size  int    `json:"size"`
	Sum   string `json:"sum"`
}

type chunked struct {
	Store
	maxValue int
}

// Chunk stores values larger than maxValue as parts under "<key>#<n>" and a
// manifest under key. Smaller values are written unchanged. Parts left over
// from an earlier, larger value are ignored.
func Chunk(s Store, maxValue int) Store {
	if maxValue <= 0 {
		return s
	}
	return &chunked{Store: s, maxValue: maxValue}
}

func partKey(key string, n int) string {
	return fmt.Sprintf("%s#%d", key, n)
}

func checksum(value []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(value))
}

func (c *chunked) Put(ctx context.Context, key string, value []byte) error {
	if len(value) <= c.maxValue && !bytes.HasPrefix(value, chunkMagic) {
		return c.Store.Put(ctx, key, value)
	}

	// Parts first, manifest last: a failure part way leaves either the old
	// value or a manifest whose checksum no longer matches.
	parts := 0
	for off := 0; off < len(value); off += c.maxValue {
		end := min(off+c.maxValue, len(value))
		if err := c.Store.Put(ctx, partKey(key, parts), value[off:end]); err != nil {
			return err
		}
		parts++
	}

	m, err := json.Marshal(chunkManifest{Parts: parts, Size: len(value), Sum: checksum(value)})
	if err != nil {
		return fmt.Errorf("encode manifest for %s: %w", key, err)
	}
	manifest := make([]byte, 0, len(chunkMagic)+len(m))
	manifest = append(manifest, chunkMagic...)
	manifest = append(manifest, m...)
	return c.Store.Put(ctx, key, manifest)
}

func (c *chunked) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.Store.Get(ctx, key)
	if err != nil || !bytes.HasPrefix(value, chunkMagic) {
		return value, err
	}

	var m chunkManifest
	if err := json.Unmarshal(value[len(chunkMagic):], &m); err != nil {
		return nil, fmt.Errorf("%w: %s: manifest: %v", customerrors.ErrCorruptValue, key, err)
	}

	buf := make([]byte, 0, m.Size)
	for n := 0; n < m.Parts; n++ {
		part, err := c.Store.Get(ctx, partKey(key, n))
		if errors.Is(err, customerrors.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s: part %d missing", customerrors.ErrCorruptValue, key, n)
		}
		if err != nil {
			return nil, fmt.Errorf("read part %d of %s: %w", n, key, err)
		}
		buf = append(buf, part...)
	}

	if len(buf) != m.Size || checksum(buf) != m.Sum {
		return nil, fmt.Errorf("%w: %s: checksum mismatch", customerrors.ErrCorruptValue, key)
	}
	return buf, nil
}
