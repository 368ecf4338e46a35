package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct{ blobs map[string][]byte }

func (f fakeObjects) ReadBlob(hex string) ([]byte, error) { return f.blobs[hex], nil }

type fakeTree struct{ files map[string][]byte }

func (f *fakeTree) Stat(p string) (uint32, bool, error) {
	_, ok := f.files[p]
	return 0o100644, ok, nil
}
func (f *fakeTree) ReadFile(p string) ([]byte, error)       { return f.files[p], nil }
func (f *fakeTree) ReadSymlink(p string) (string, error)    { return "", nil }
func (f *fakeTree) WriteFile(p string, d []byte, m uint32) error {
	f.files[p] = d
	return nil
}
func (f *fakeTree) WriteSymlink(p, target string) error { return nil }
func (f *fakeTree) Remove(p string) error                { delete(f.files, p); return nil }
func (f *fakeTree) Rename(o, n string) error {
	f.files[n] = f.files[o]
	delete(f.files, o)
	return nil
}
func (f *fakeTree) Chmod(p string, m uint32) error { return nil }

type fakeIndex struct{}

func (fakeIndex) Get(string) (IndexEntry, bool)  { return IndexEntry{}, false }
func (fakeIndex) Set(IndexEntry)                 {}
func (fakeIndex) Remove(string)                  {}
func (fakeIndex) Lock() (func(), error)          { return func() {}, nil }

type fakeConfig struct{}

func (fakeConfig) WSRules() map[string]WSRule { return nil }

func newTestSession(files map[string][]byte) (*Session, *fakeTree) {
	tree := &fakeTree{files: files}
	opts := NewOptions()
	sess := NewSession(opts, fakeObjects{}, tree, fakeIndex{}, fakeConfig{}, NopLogger{})
	return sess, tree
}

func TestSessionAppliesSimplePatch(t *testing.T) {
	sess, _ := newTestSession(map[string][]byte{
		"foo.txt": []byte("one\ntwo\nthree\n"),
	})

	diff := "diff --git a/foo.txt b/foo.txt\n" +
		"--- a/foo.txt\n" +
		"+++ b/foo.txt\n" +
		"@@ -1,3 +1,3 @@\n" +
		" one\n" +
		"-two\n" +
		"+TWO\n" +
		" three\n"

	ids, err := sess.ParseStream([]byte(diff))
	require.NoError(t, err)
	require.Len(t, ids, 1)

	require.NoError(t, sess.ApplyAll(ids))

	p := sess.Patch(ids[0])
	assert.Equal(t, "one\nTWO\nthree\n", string(p.Result))
}

func TestSessionRejectsUnmatchableFragmentWithoutRejectFlag(t *testing.T) {
	sess, _ := newTestSession(map[string][]byte{
		"foo.txt": []byte("completely different content\n"),
	})

	diff := "diff --git a/foo.txt b/foo.txt\n" +
		"--- a/foo.txt\n" +
		"+++ b/foo.txt\n" +
		"@@ -1,3 +1,3 @@\n" +
		" one\n" +
		"-two\n" +
		"+TWO\n" +
		" three\n"

	ids, err := sess.ParseStream([]byte(diff))
	require.NoError(t, err)

	err = sess.ApplyAll(ids)
	assert.Error(t, err)
}

func TestSessionRejectModeRecordsFragmentReject(t *testing.T) {
	sess, _ := newTestSession(map[string][]byte{
		"foo.txt": []byte("completely different content\n"),
	})
	sess.Opts.Reject = true

	diff := "diff --git a/foo.txt b/foo.txt\n" +
		"--- a/foo.txt\n" +
		"+++ b/foo.txt\n" +
		"@@ -1,3 +1,3 @@\n" +
		" one\n" +
		"-two\n" +
		"+TWO\n" +
		" three\n"

	ids, err := sess.ParseStream([]byte(diff))
	require.NoError(t, err)
	require.NoError(t, sess.ApplyAll(ids))

	assert.True(t, sess.HasRejects(sess.Patch(ids[0])))
	assert.Len(t, sess.Rejects, 1)
}
