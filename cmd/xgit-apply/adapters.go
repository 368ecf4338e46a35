package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ximory/xgit-apply/internal/patch"
)

// fsTree is a patch.WorkingTree backed directly by the OS filesystem,
// rooted at dir.
type fsTree struct{ dir string }

func (t fsTree) resolve(p string) string { return filepath.Join(t.dir, p) }

func (t fsTree) Stat(p string) (mode uint32, exists bool, err error) {
	fi, err := os.Lstat(t.resolve(p))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	m := uint32(fi.Mode().Perm())
	if fi.Mode()&os.ModeSymlink != 0 {
		m = 0o120000
	} else if fi.IsDir() {
		m = 0o040000
	} else {
		m |= 0o100000
	}
	return m, true, nil
}

func (t fsTree) ReadFile(p string) ([]byte, error) {
	return os.ReadFile(t.resolve(p))
}

func (t fsTree) ReadSymlink(p string) (string, error) {
	return os.Readlink(t.resolve(p))
}

func (t fsTree) WriteFile(p string, data []byte, mode uint32) error {
	full := t.resolve(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	perm := os.FileMode(mode & 0o777)
	if perm == 0 {
		perm = 0o644
	}
	return os.WriteFile(full, data, perm)
}

func (t fsTree) WriteSymlink(p, target string) error {
	full := t.resolve(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	_ = os.Remove(full)
	return os.Symlink(target, full)
}

func (t fsTree) Remove(p string) error { return os.Remove(t.resolve(p)) }

func (t fsTree) Rename(oldPath, newPath string) error {
	full := t.resolve(newPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.Rename(t.resolve(oldPath), full)
}

func (t fsTree) Chmod(p string, mode uint32) error {
	return os.Chmod(t.resolve(p), os.FileMode(mode&0o777))
}

// looseObjectStore is a patch.ObjectStore over a ".git/objects"-shaped
// loose object directory, used only when --cached/--index asks the engine
// to resolve a preimage by blob hash rather than by working-tree path.
type looseObjectStore struct{ objectsDir string }

func (s looseObjectStore) ReadBlob(hexHash string) ([]byte, error) {
	if len(hexHash) < 3 {
		return nil, fmt.Errorf("malformed object id %q", hexHash)
	}
	path := filepath.Join(s.objectsDir, hexHash[:2], hexHash[2:])
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return inflateLooseObject(raw)
}

// memIndex is an in-memory patch.Index. It starts empty and nothing loads
// entries into it from disk or writes them back, so its contents last only
// for one run. Real index-format parsing (git's binary index v2/v3) is out
// of scope (spec.md §1 Non-goals); this is the engine's minimal stand-in
// collaborator.
type memIndex struct {
	entries map[string]patch.IndexEntry
}

func newMemIndex() *memIndex { return &memIndex{entries: make(map[string]patch.IndexEntry)} }

func (m *memIndex) Get(path string) (patch.IndexEntry, bool) {
	e, ok := m.entries[path]
	return e, ok
}

func (m *memIndex) Set(entry patch.IndexEntry) { m.entries[entry.Path] = entry }

func (m *memIndex) Remove(path string) { delete(m.entries, path) }

func (m *memIndex) Lock() (func(), error) {
	return func() {}, nil
}
