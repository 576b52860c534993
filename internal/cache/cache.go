// Package cache persists per-test outcomes so unchanged tests can be
// skipped across harness runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Payload format changes.
const schemaVersion uint16 = 1

// Digest keys a cache entry.
type Digest [32]byte

// Key derives the cache digest for one test: any change to the source,
// the snapshot, the compiler invocation, or the toolchain version
// invalidates the entry.
func Key(sourceBytes, fixtureBytes []byte, commandLine, toolchain string) Digest {
	h := sha256.New()
	h.Write(sourceBytes)
	h.Write([]byte{0})
	h.Write(fixtureBytes)
	h.Write([]byte{0})
	h.Write([]byte(commandLine))
	h.Write([]byte{0})
	h.Write([]byte(toolchain))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Payload stores a cached test outcome.
type Payload struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16

	Name       string
	Outcome    string // "pass" only; failures are always re-run
	DurationMS int64
}

// DiskCache stores payloads keyed by Digest on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a disk cache under the standard XDG location.
func Open(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenAt(filepath.Join(base, app))
}

// OpenAt initializes a disk cache rooted at dir.
func OpenAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// A subdirectory keeps the cache root listable and easy to purge.
	return filepath.Join(c.dir, "results", hexKey+".mp")
}

// Put serializes and writes a payload, atomically replacing any previous
// entry.
func (c *DiskCache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. Returns (false, nil) on a miss or a schema
// mismatch.
func (c *DiskCache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		// Corrupt or legacy entry; treat as a miss.
		return false, nil
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// Purge removes every cached result.
func (c *DiskCache) Purge() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "results"))
}
