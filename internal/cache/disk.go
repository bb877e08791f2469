// Package cache keeps derived artifacts on disk, addressed by the SHA-256
// of the inputs they were derived from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the envelope or any cached payload changes shape.
const schemaVersion uint16 = 1

type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Key digests a namespace and content. The namespace keeps payloads of
// different producers apart when they hash the same bytes.
func Key(namespace string, content []byte) Digest {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write(content)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

type envelope struct {
	Schema  uint16             `msgpack:"schema"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// Disk is a msgpack file cache. A nil *Disk is a valid cache that never
// hits. Safe for concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// Open prepares a cache rooted at dir, creating it if needed.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (c *Disk) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Disk) pathFor(key Digest) string {
	hexKey := key.String()
	return filepath.Join(c.dir, hexKey[:2], hexKey+".mp")
}

// Put encodes v and replaces the entry for key atomically.
func (c *Disk) Put(key Digest, v any) error {
	if c == nil {
		return nil
	}
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(envelope{Schema: schemaVersion, Payload: raw}); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Get decodes the entry for key into out. Entries written under another
// schema version are treated as misses.
func (c *Disk) Get(key Digest, out any) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var env envelope
	if err := msgpack.NewDecoder(f).Decode(&env); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if env.Schema != schemaVersion {
		return false, nil
	}
	if err := msgpack.Unmarshal(env.Payload, out); err != nil {
		return false, fmt.Errorf("decode cache payload %s: %w", key, err)
	}
	return true, nil
}

// DropAll removes every entry.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
