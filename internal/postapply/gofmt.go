package postapply

import (
	"bytes"
	"go/format"
	"io"
	"os"
	"path/filepath"
)

// gofmtChecker re-formats a .go file a patch just wrote, canonicalizing
// its trailing newline the same way git's own tree does, so a fuzzy-merged
// Go source file ends up gofmt-clean rather than merely compiling.
type gofmtChecker struct{}

func (gofmtChecker) Name() string { return "gofmt" }

func (gofmtChecker) Match(path string) bool { return extOf(path) == ".go" }

func (gofmtChecker) Run(root, rel string, logf Logf) (bool, error) {
	abs := filepath.Join(root, rel)
	orig, err := os.ReadFile(abs)
	if err != nil {
		return false, err
	}

	mode := os.FileMode(0o644)
	if fi, statErr := os.Stat(abs); statErr == nil {
		mode = fi.Mode()
	}

	in := bytes.TrimRight(orig, "\n")
	in = append(in, '\n')

	formatted, err := format.Source(in)
	if err != nil {
		logf("gofmt: %s failed to parse: %v", rel, err)
		return false, err
	}
	formatted = bytes.TrimRight(formatted, "\n")
	formatted = append(formatted, '\n')

	if bytes.Equal(orig, formatted) {
		return false, nil
	}
	if err := atomicWrite(abs, formatted, mode); err != nil {
		return false, err
	}
	logf("gofmt: reformatted %s", rel)
	return true, nil
}

func init() { Register(gofmtChecker{}) }

// atomicWrite writes data to abs via a temp file in the same directory
// followed by a rename, so a crash mid-write never leaves abs truncated.
func atomicWrite(abs string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, ".xgit-apply-postapply-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmpName, mode)
	return os.Rename(tmpName, abs)
}
