package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkLines(t *testing.T) {
	lines := walkLines([]byte("abc\ndef\nghi"))
	require.Len(t, lines, 3)
	assert.Equal(t, 4, lines[0].Len)
	assert.Equal(t, 4, lines[1].Len)
	assert.Equal(t, 3, lines[2].Len)
}

func TestWalkLinesEmpty(t *testing.T) {
	assert.Empty(t, walkLines(nil))
}

func TestHashLineIgnoresWhitespace(t *testing.T) {
	h1 := hashLine([]byte("foo bar\n"))
	h2 := hashLine([]byte("foo  bar \n"))
	assert.Equal(t, h1, h2, "hash must ignore whitespace differences")
}

func TestHashLineTruncatedTo24Bits(t *testing.T) {
	h := hashLine([]byte("some longer line of text that still hashes\n"))
	assert.Zero(t, h&^0x00FFFFFF, "hash must fit in 24 bits")
}

func TestHashLineDistinguishesContent(t *testing.T) {
	assert.NotEqual(t, hashLine([]byte("foo\n")), hashLine([]byte("bar\n")))
}
