package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWSPolicy(t *testing.T) {
	cases := map[string]WSPolicy{
		"":         WSWarn,
		"warn":     WSWarn,
		"nowarn":   WSNoWarn,
		"error":    WSError,
		"error-all": WSError,
		"fix":      WSFix,
		"strip":    WSFix,
	}
	for in, want := range cases {
		got, ok := ParseWSPolicy(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseWSPolicy("bogus")
	assert.False(t, ok)
}

func TestWSFixCopyTrailingSpace(t *testing.T) {
	out, changed := wsFixCopy([]byte("hello   \n"), WSTrailingSpace)
	assert.True(t, changed)
	assert.Equal(t, "hello\n", string(out))
}

func TestWSFixCopyIndentTabs(t *testing.T) {
	out, changed := wsFixCopy([]byte("        x\n"), WSIndentWithNonTab)
	assert.True(t, changed)
	assert.Equal(t, "\tx\n", string(out))
}

func TestWSFixCopyIsNonExpansive(t *testing.T) {
	src := []byte("   \t  leading and trailing   \n")
	out, _ := wsFixCopy(src, WSDefaultRule|WSIndentWithNonTab|WSTabInIndent)
	assert.LessOrEqual(t, len(out), len(src))
}

func TestDetectWSTrailingSpace(t *testing.T) {
	found := detectWS([]byte("foo \n"), WSTrailingSpace, false)
	assert.Equal(t, WSTrailingSpace, found)
}

func TestDetectWSBlankAtEOFOnlyOnLastLine(t *testing.T) {
	assert.Zero(t, detectWS([]byte("\n"), WSBlankAtEOF, false))
	assert.Equal(t, WSBlankAtEOF, detectWS([]byte("\n"), WSBlankAtEOF, true))
}
