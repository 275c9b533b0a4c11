package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func newCache(t *testing.T, capacity uint64) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(dir, capacity)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c, dir
}

func createFile(t *testing.T, dir, name string, size int64) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate %s: %v", name, err)
	}
}

func fileExists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func noReserved() map[string]struct{} { return map[string]struct{}{} }

func TestAcquire(t *testing.T) {
	c, dir := newCache(t, 20)

	ok, err := c.Acquire("a", 10, noReserved())
	if err != nil || !ok {
		t.Fatalf("acquire a: ok=%v err=%v", ok, err)
	}
	createFile(t, dir, "a", 10)

	ok, err = c.Acquire("b", 5, noReserved())
	if err != nil || !ok {
		t.Fatalf("acquire b: ok=%v err=%v", ok, err)
	}
	createFile(t, dir, "b", 5)

	ok, err = c.Acquire("c", 6, noReserved())
	if err != nil || ok {
		t.Fatalf("acquire c: expected failure, got ok=%v err=%v", ok, err)
	}

	if !fileExists(dir, "a") || !fileExists(dir, "b") {
		t.Fatalf("a and b must remain on disk")
	}
}

func TestAcquireWithEviction(t *testing.T) {
	c, dir := newCache(t, 20)

	mustAcquire(t, c, "a", 10)
	createFile(t, dir, "a", 10)
	mustAcquire(t, c, "b", 5)
	createFile(t, dir, "b", 5)

	if err := c.Release("a"); err != nil {
		t.Fatalf("release a: %v", err)
	}
	// Even after release, the file remains until evicted on a later acquire.
	if !fileExists(dir, "a") {
		t.Fatalf("a should still exist immediately after release")
	}

	mustAcquire(t, c, "c", 6)
	if fileExists(dir, "a") {
		t.Fatalf("a should have been evicted")
	}
	if !fileExists(dir, "b") {
		t.Fatalf("b should remain (has users)")
	}
}

func TestAcquireMultiUsers(t *testing.T) {
	c, dir := newCache(t, 20)

	mustAcquire(t, c, "a", 20)
	createFile(t, dir, "a", 10)
	// Acquire twice.
	mustAcquire(t, c, "a", 20)
	// Release once.
	if err := c.Release("a"); err != nil {
		t.Fatalf("release a: %v", err)
	}

	ok, err := c.Acquire("b", 5, noReserved())
	if err != nil {
		t.Fatalf("acquire b: %v", err)
	}
	if ok {
		t.Fatalf("acquire b should fail: a still has a user and occupies full capacity")
	}
	if !fileExists(dir, "a") {
		t.Fatalf("a must remain undeleted")
	}
}

func TestAcquireWithReserved(t *testing.T) {
	c, dir := newCache(t, 20)

	mustAcquire(t, c, "a", 10)
	createFile(t, dir, "a", 10)
	mustAcquire(t, c, "b", 10)
	createFile(t, dir, "b", 10)
	if err := c.Release("a"); err != nil {
		t.Fatalf("release a: %v", err)
	}
	if err := c.Release("b"); err != nil {
		t.Fatalf("release b: %v", err)
	}

	reserved := map[string]struct{}{"a": {}}

	ok, err := c.Acquire("c", 10, reserved)
	if err != nil || !ok {
		t.Fatalf("acquire c: ok=%v err=%v", ok, err)
	}
	createFile(t, dir, "c", 10)

	// b should be evicted over a, since a is reserved.
	if !fileExists(dir, "a") {
		t.Fatalf("a must remain (reserved)")
	}
	if fileExists(dir, "b") {
		t.Fatalf("b should have been evicted")
	}

	ok, err = c.Acquire("d", 10, reserved)
	if err != nil {
		t.Fatalf("acquire d: %v", err)
	}
	if ok {
		t.Fatalf("acquire d should fail: only a remains and it is reserved")
	}
}

func TestFilepath(t *testing.T) {
	c, dir := newCache(t, 20)

	got, err := c.Filepath("a")
	if err != nil {
		t.Fatalf("Filepath(a): %v", err)
	}
	if want := filepath.Join(dir, "a"); got != want {
		t.Fatalf("Filepath(a) = %s, want %s", got, want)
	}
}

func TestValidFilenameRejectsNonBareNames(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"a", false},
		{"../a", true},
		{"/ab", true},
		{"/a/bb", true},
		{"", true},
	}
	for _, tc := range cases {
		_, err := validFilename(tc.name)
		if (err != nil) != tc.wantErr {
			t.Errorf("validFilename(%q): err=%v, wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

func TestScanResidentsSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "a", 10)
	createFile(t, dir, "b", 5)
	if err := os.Mkdir(filepath.Join(dir, "c"), 0o755); err != nil {
		t.Fatalf("mkdir c: %v", err)
	}

	residents, inUse, err := scanResidents(dir)
	if err != nil {
		t.Fatalf("scanResidents: %v", err)
	}
	if len(residents) != 2 {
		t.Fatalf("scanResidents returned %d entries, want 2", len(residents))
	}
	if inUse != 15 {
		t.Fatalf("inUse = %d, want 15", inUse)
	}
	if residents["a"].size != 10 || residents["b"].size != 5 {
		t.Fatalf("unexpected sizes: %+v", residents)
	}
}

func TestAcquireAfterInit(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "a", 10)
	createFile(t, dir, "b", 20)

	c, err := Open(dir, 20)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ok, err := c.Acquire("c", 5, noReserved())
	if err != nil || !ok {
		t.Fatalf("acquire c: ok=%v err=%v", ok, err)
	}
	if fileExists(dir, "a") {
		t.Fatalf("a should have been evicted (smaller than b)")
	}
	if !fileExists(dir, "b") {
		t.Fatalf("b should remain")
	}
}

func mustAcquire(t *testing.T, c *Cache, name string, size uint64) {
	t.Helper()
	ok, err := c.Acquire(name, size, noReserved())
	if err != nil {
		t.Fatalf("acquire %s: %v", name, err)
	}
	if !ok {
		t.Fatalf("acquire %s: expected success", name)
	}
}
