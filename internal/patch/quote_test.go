package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnquoteCNamePlain(t *testing.T) {
	out, err := unquoteCName("a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.txt", out)
}

func TestUnquoteCNameEscapes(t *testing.T) {
	out, err := unquoteCName(`"a/b\tc\n\"d\""`)
	require.NoError(t, err)
	assert.Equal(t, "a/b\tc\n\"d\"", out)
}

func TestUnquoteCNameOctal(t *testing.T) {
	out, err := unquoteCName(`"na\303\257ve"`)
	require.NoError(t, err)
	assert.Equal(t, "na\xc3\xafve", out)
}

func TestUnquoteCNameUnterminated(t *testing.T) {
	_, err := unquoteCName(`"abc`)
	assert.Error(t, err)
}
