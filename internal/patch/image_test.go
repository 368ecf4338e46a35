package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageLenMatchesBuf(t *testing.T) {
	img := NewImage([]byte("one\ntwo\nthree\n"))
	assert.Equal(t, len(img.Buf), img.Len())
}

func TestRemoveFirstLine(t *testing.T) {
	img := NewImage([]byte("one\ntwo\nthree\n"))
	img.removeFirstLine()
	assert.Equal(t, "two\nthree\n", string(img.Buf))
	assert.Equal(t, len(img.Buf), img.Len())
}

func TestRemoveLastLine(t *testing.T) {
	img := NewImage([]byte("one\ntwo\nthree\n"))
	img.removeLastLine()
	assert.Equal(t, "one\ntwo\n", string(img.Buf))
	assert.Equal(t, len(img.Buf), img.Len())
}

func TestUpdateImageSplicesMiddle(t *testing.T) {
	img := NewImage([]byte("one\ntwo\nthree\nfour\n"))
	pre := NewImage([]byte("two\nthree\n"))
	post := NewImage([]byte("TWO\nTHREE\nEXTRA\n"))

	updateImage(img, 1, pre, post)

	assert.Equal(t, "one\nTWO\nTHREE\nEXTRA\nfour\n", string(img.Buf))
	require.Equal(t, len(img.Buf), img.Len())
}
