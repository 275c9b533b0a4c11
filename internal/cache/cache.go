// Package cache implements the bounded, reference-counted local disk store
// the slideshow orchestrator prepares media into: a flat directory of
// regular files kept under a hard byte-capacity limit through transparent,
// smallest-first eviction of unused, unreserved entries.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrInvalidPath is returned when a caller-supplied name is not a bare
// filename (absolute, contains a parent component, or empty).
var ErrInvalidPath = errors.New("cache: invalid path")

// ErrNotResident is returned by Release when name has no resident entry.
var ErrNotResident = errors.New("cache: not resident")

// entry tracks one resident file's size and how many current consumers
// hold a reference to it.
type entry struct {
	size  uint64
	users int
}

// Cache is an on-disk byte-bounded keyed store. Acquire, Release and InUse
// serialize on an internal mutex; in practice the orchestrator is the sole
// owner and also serializes access to it the same way it serializes all
// playlist-class commands.
type Cache struct {
	mu        sync.Mutex
	dir       string
	capacity  uint64
	inUse     uint64
	residents map[string]*entry
}

// Open scans dir, registering each regular file found as a resident with
// users=0 and its on-disk size. Non-file entries are skipped with a
// warning. inUse is initialized to the sum of scanned sizes; no
// normalization or deletion happens at startup even if inUse ends up over
// capacity — subsequent Acquire calls will evict as needed.
func Open(dir string, capacity uint64) (*Cache, error) {
	residents, inUse, err := scanResidents(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: scan %s: %w", dir, err)
	}

	slog.Info("Cache loaded",
		"dir", dir,
		"entries", len(residents),
		"using_bytes", inUse,
		"capacity_bytes", capacity,
	)

	return &Cache{
		dir:       dir,
		capacity:  capacity,
		inUse:     inUse,
		residents: residents,
	}, nil
}

func scanResidents(dir string) (map[string]*entry, uint64, error) {
	dentries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}

	residents := make(map[string]*entry, len(dentries))
	var inUse uint64
	for _, d := range dentries {
		info, err := d.Info()
		if err != nil {
			return nil, 0, err
		}
		if !info.Mode().IsRegular() {
			slog.Warn("Skipping non-file entry in cache directory", "name", d.Name())
			continue
		}
		size := uint64(info.Size())
		slog.Debug("Found resident", "name", d.Name(), "size", size)
		residents[d.Name()] = &entry{size: size}
		inUse += size
	}
	return residents, inUse, nil
}

// Filepath validates name as a bare filename and joins it with the cache
// root directory.
func (c *Cache) Filepath(name string) (string, error) {
	name, err := validFilename(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.dir, name), nil
}

func validFilename(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: %q: empty filename", ErrInvalidPath, name)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q: must contain only filename", ErrInvalidPath, name)
	}
	dir, base := filepath.Split(name)
	if dir != "" {
		return "", fmt.Errorf("%w: %q: must contain only filename", ErrInvalidPath, name)
	}
	if base == "" {
		return "", fmt.Errorf("%w: %q: empty filename", ErrInvalidPath, name)
	}
	return base, nil
}

// Acquire reserves size bytes under name. If name is already resident, its
// user count is incremented and size is ignored (the entry's existing size
// is authoritative). Otherwise, if there's room, a new entry is inserted.
// If there isn't room, eviction runs against entries not in reserved and
// with users == 0; on success the freed entries are unlinked from disk and
// the new entry is inserted. Acquire returns false with zero side effects
// if eviction could not free enough room.
func (c *Cache) Acquire(name string, size uint64, reserved map[string]struct{}) (bool, error) {
	filename, err := validFilename(name)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.residents[filename]; ok {
		e.users++
		slog.Debug("Adding user of resident", "name", filename, "users", e.users)
		return true, nil
	}

	if c.inUse+size > c.capacity {
		evicted, err := c.tryEvict(size, reserved)
		if err != nil {
			return false, err
		}
		if !evicted {
			return false, nil
		}
	}

	c.residents[filename] = &entry{size: size, users: 1}
	c.inUse += size
	slog.Debug("Acquired", "name", filename, "size", size, "using_bytes", c.inUse)
	return true, nil
}

// Release decrements name's user count if it is greater than zero; it is a
// silent no-op when the count is already zero (the original behavior this
// mirrors permits releasing past zero without reporting an underflow).
// Release fails if name has no resident entry. It never deletes a file —
// actual removal only happens lazily, during a future Acquire's eviction.
func (c *Cache) Release(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.residents[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotResident, name)
	}
	if e.users > 0 {
		e.users--
	}
	slog.Debug("Released", "name", name)
	return nil
}

// tryEvict walks residents in ascending size order (tie-break among equal
// sizes is Go's map iteration order, deliberately left unspecified), skips
// entries with users > 0 or present in reserved, and accumulates candidates
// until freed >= acquireSize. It only unlinks files and mutates residents
// once the full requested amount was found to be freeable; on insufficient
// free-able space it returns false having touched nothing.
func (c *Cache) tryEvict(acquireSize uint64, reserved map[string]struct{}) (bool, error) {
	type candidate struct {
		name string
		size uint64
	}
	candidates := make([]candidate, 0, len(c.residents))
	for name, e := range c.residents {
		candidates = append(candidates, candidate{name, e.size})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].size < candidates[j].size })

	var toEvict []string
	var freed uint64
	for _, cand := range candidates {
		e := c.residents[cand.name]
		if e.users > 0 {
			continue
		}
		if _, isReserved := reserved[cand.name]; isReserved {
			continue
		}

		freed += e.size
		toEvict = append(toEvict, cand.name)
		if freed >= acquireSize {
			break
		}
	}
	if freed < acquireSize {
		return false, nil
	}

	for _, name := range toEvict {
		path, err := c.Filepath(name)
		if err != nil {
			return false, err
		}
		if err := os.Remove(path); err != nil {
			return false, fmt.Errorf("cache: evict %s: %w", name, err)
		}
		e := c.residents[name]
		delete(c.residents, name)
		c.inUse -= e.size
		slog.Debug("Evicted", "name", name, "freed_bytes", e.size, "using_bytes", c.inUse)
	}
	return true, nil
}

// InUse returns the number of bytes currently accounted for by residents.
func (c *Cache) InUse() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inUse
}

// Capacity returns the cache's configured byte limit.
func (c *Cache) Capacity() uint64 {
	return c.capacity
}
