package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitHeaderSimpleModify(t *testing.T) {
	text := "diff --git a/foo.txt b/foo.txt\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/foo.txt\n" +
		"+++ b/foo.txt\n"
	s := newLineScanner([]byte(text))
	p, err := parseHeader(s, NewOptions())
	require.NoError(t, err)
	assert.Equal(t, "foo.txt", p.OldName)
	assert.Equal(t, "foo.txt", p.NewName)
	assert.Equal(t, "1111111", p.OldSHA1Prefix)
	assert.Equal(t, "2222222", p.NewSHA1Prefix)
}

func TestParseGitHeaderNewFile(t *testing.T) {
	text := "diff --git a/new.txt b/new.txt\n" +
		"new file mode 100644\n" +
		"index 0000000..abcdef1\n" +
		"--- /dev/null\n" +
		"+++ b/new.txt\n"
	s := newLineScanner([]byte(text))
	p, err := parseHeader(s, NewOptions())
	require.NoError(t, err)
	assert.Equal(t, Yes, p.IsNew)
	assert.Equal(t, "new.txt", p.NewName)
	assert.EqualValues(t, 0o100644, p.NewMode)
}

func TestParseGitHeaderRename(t *testing.T) {
	text := "diff --git a/old.txt b/new.txt\n" +
		"similarity index 100%\n" +
		"rename from old.txt\n" +
		"rename to new.txt\n"
	s := newLineScanner([]byte(text))
	p, err := parseHeader(s, NewOptions())
	require.NoError(t, err)
	assert.True(t, p.IsRename)
	assert.Equal(t, "old.txt", p.OldName)
	assert.Equal(t, "new.txt", p.NewName)
	assert.Equal(t, 100, p.Score)
}

func TestParseGitHeaderModeOnlyChangeResolvesDefNameWithoutPrefix(t *testing.T) {
	text := "diff --git a/script.sh b/script.sh\n" +
		"old mode 100644\n" +
		"new mode 100755\n"
	s := newLineScanner([]byte(text))
	p, err := parseHeader(s, NewOptions())
	require.NoError(t, err)
	assert.Equal(t, "", p.OldName)
	assert.Equal(t, "", p.NewName)
	assert.Equal(t, "script.sh", p.DefName)
	assert.Equal(t, "script.sh", resolvedPatchPath(p))
}

func TestParseTraditionalHeader(t *testing.T) {
	text := "--- a/foo.txt\n+++ b/foo.txt\n"
	s := newLineScanner([]byte(text))
	opts := NewOptions()
	p, err := parseHeader(s, opts)
	require.NoError(t, err)
	assert.Equal(t, "foo.txt", p.OldName)
	assert.Equal(t, "foo.txt", p.NewName)
}

func TestParseTraditionalHeaderMissingPlusPlus(t *testing.T) {
	text := "--- a/foo.txt\nnot a plusplus line\n"
	s := newLineScanner([]byte(text))
	_, err := parseHeader(s, NewOptions())
	assert.Error(t, err)
}

func TestParseIndexLineWithMode(t *testing.T) {
	p := &Patch{}
	err := parseIndexLine(p, "1111111..2222222 100644")
	require.NoError(t, err)
	assert.Equal(t, "1111111", p.OldSHA1Prefix)
	assert.Equal(t, "2222222", p.NewSHA1Prefix)
	assert.EqualValues(t, 0o100644, p.OldMode)
}
