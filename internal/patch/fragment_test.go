package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragmentHeaderDefaultsLineCountToOne(t *testing.T) {
	oldPos, oldLines, newPos, newLines, err := parseFragmentHeader("@@ -5 +7 @@ func main() {")
	require.NoError(t, err)
	assert.Equal(t, 5, oldPos)
	assert.Equal(t, 1, oldLines)
	assert.Equal(t, 7, newPos)
	assert.Equal(t, 1, newLines)
}

func TestParseFragmentHeaderExplicitCounts(t *testing.T) {
	oldPos, oldLines, newPos, newLines, err := parseFragmentHeader("@@ -10,3 +12,5 @@")
	require.NoError(t, err)
	assert.Equal(t, 10, oldPos)
	assert.Equal(t, 3, oldLines)
	assert.Equal(t, 12, newPos)
	assert.Equal(t, 5, newLines)
}

func TestParseFragmentSimpleHunk(t *testing.T) {
	body := "@@ -1,3 +1,3 @@\n" +
		" one\n" +
		"-two\n" +
		"+TWO\n" +
		" three\n"
	s := newLineScanner([]byte(body))
	f, err := parseFragment(s, NewOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, f.Leading)
	assert.Equal(t, 1, f.Trailing)
	assert.True(t, s.eof())
}

func TestParseFragmentCountMismatchIsFatal(t *testing.T) {
	body := "@@ -1,5 +1,5 @@\n one\n-two\n+TWO\n"
	s := newLineScanner([]byte(body))
	_, err := parseFragment(s, NewOptions())
	assert.Error(t, err)
}

func TestParseFragmentNoNewlineMarker(t *testing.T) {
	body := "@@ -1,1 +1,1 @@\n-old\n\\ No newline at end of file\n+new\n\\ No newline at end of file\n"
	s := newLineScanner([]byte(body))
	f, err := parseFragment(s, NewOptions())
	require.NoError(t, err)
	assert.Contains(t, string(f.Patch), "No newline at end of file")
}

func TestIsBinaryPatchMarker(t *testing.T) {
	assert.True(t, isBinaryPatchMarker("GIT binary patch"))
	assert.False(t, isBinaryPatchMarker("GIT binary pach"))
}
