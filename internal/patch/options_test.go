package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuessPValue(t *testing.T) {
	assert.Equal(t, 1, guessPValue("a/foo.txt", "b/foo.txt"))
	assert.Equal(t, 0, guessPValue("foo.txt", "foo.txt"))
	assert.Equal(t, 1, guessPValue("a/sub/foo.txt", "b/sub/foo.txt"))
}

func TestStripPComponents(t *testing.T) {
	assert.Equal(t, "foo.txt", stripPComponents("a/foo.txt", 1))
	assert.Equal(t, "b/foo.txt", stripPComponents("a/b/foo.txt", 1))
	assert.Equal(t, "a/foo.txt", stripPComponents("a/foo.txt", 0))
}

func TestWSRuleForPathFallsBackToDefault(t *testing.T) {
	o := NewOptions()
	o.AddWSGlob("*.md", WSRule(0))
	assert.Equal(t, WSRule(0), o.WSRuleForPath("README.md"))
	assert.Equal(t, o.defaultWS, o.WSRuleForPath("main.go"))
}

func TestMatchesFilter(t *testing.T) {
	o := NewOptions()
	o.Include = []string{"src/*.go"}
	o.Exclude = []string{"src/gen_*.go"}
	assert.True(t, o.MatchesFilter("src/main.go"))
	assert.False(t, o.MatchesFilter("src/gen_thing.go"))
	assert.False(t, o.MatchesFilter("docs/readme.go"))
}

func TestMatchesFilterNoIncludeMeansEverything(t *testing.T) {
	o := NewOptions()
	assert.True(t, o.MatchesFilter("anything"))
}
