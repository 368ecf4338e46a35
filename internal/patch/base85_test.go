package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLenChar(t *testing.T) {
	n, ok := lenChar('A')
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = lenChar('Z')
	assert.True(t, ok)
	assert.Equal(t, 26, n)

	n, ok = lenChar('a')
	assert.True(t, ok)
	assert.Equal(t, 27, n)

	n, ok = lenChar('z')
	assert.True(t, ok)
	assert.Equal(t, 52, n)

	_, ok = lenChar('0')
	assert.False(t, ok)
}

func TestDecode85GroupZeros(t *testing.T) {
	// The all-"0" group decodes to four zero bytes.
	out := make([]byte, 4)
	err := decode85Group([]byte("00000"), out, 4)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestDecode85GroupRejectsInvalidChar(t *testing.T) {
	out := make([]byte, 4)
	err := decode85Group([]byte("000 0"), out, 4)
	assert.Error(t, err)
}

func TestInflateExactRejectsGarbage(t *testing.T) {
	_, err := inflateExact([]byte("not zlib data"), 10)
	assert.Error(t, err)
	var se *StreamError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, KindInflateFailed, se.Kind)
}
