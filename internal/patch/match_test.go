package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPosExactMatchAtExpectedLine(t *testing.T) {
	img := NewImage([]byte("one\ntwo\nthree\nfour\n"))
	pre := NewImage([]byte("two\nthree\n"))
	post := NewImage([]byte("TWO\nTHREE\n"))

	pos := findPos(img, pre, post, 1, WSDefaultRule, WSWarn, false, false)
	assert.Equal(t, 1, pos)
}

func TestFindPosSearchesOutwardWhenDrifted(t *testing.T) {
	img := NewImage([]byte("a\nb\nc\nd\ne\nf\n"))
	pre := NewImage([]byte("d\ne\n"))
	post := NewImage([]byte("D\nE\n"))

	// Hunk claims it starts at line 0 but the real match is at line 3.
	pos := findPos(img, pre, post, 0, WSDefaultRule, WSWarn, false, false)
	assert.Equal(t, 3, pos)
}

func TestFindPosFailsWhenAbsent(t *testing.T) {
	img := NewImage([]byte("a\nb\nc\n"))
	pre := NewImage([]byte("zzz\n"))
	post := NewImage([]byte("ZZZ\n"))

	pos := findPos(img, pre, post, 0, WSDefaultRule, WSWarn, false, false)
	assert.Equal(t, -1, pos)
}

func TestMatchFragmentWhitespaceFixNormalizesPreimage(t *testing.T) {
	img := NewImage([]byte("ctx\nfoo   \nctx2\n"))
	pre := NewImage([]byte("ctx\nfoo\nctx2\n"))
	preLines := []Line{
		{Len: 4, Hash: hashLine([]byte("ctx\n")), Flags: LineCommon},
		{Len: 4, Hash: hashLine([]byte("foo\n"))},
		{Len: 5, Hash: hashLine([]byte("ctx2\n")), Flags: LineCommon},
	}
	pre.Lines = preLines
	post := NewImage([]byte("ctx\nbar\nctx2\n"))
	post.Lines = []Line{
		{Len: 4, Hash: hashLine([]byte("ctx\n")), Flags: LineCommon},
		{Len: 4, Hash: hashLine([]byte("bar\n"))},
		{Len: 5, Hash: hashLine([]byte("ctx2\n")), Flags: LineCommon},
	}

	ok := matchFragment(img, pre, post, 0, 0, WSTrailingSpace, WSFix, false, false)
	require.True(t, ok)
	assert.Equal(t, "ctx\nfoo\nctx2\n", string(pre.Buf))
}
