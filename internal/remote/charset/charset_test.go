package charset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGBKRoundTrip(t *testing.T) {
	c := Default()

	enc := c.Encode("目标")
	assert.Equal(t, []byte{0xc4, 0xbf, 0xb1, 0xea}, enc)
	assert.Equal(t, "目标", c.Decode(enc))
}

func TestCStringTerminates(t *testing.T) {
	c := Default()

	b := c.CString("Break.Set main")
	require.NotEmpty(t, b)
	assert.Equal(t, byte(0), b[len(b)-1])
	assert.Equal(t, "Break.Set main", c.Decode(b))
}

func TestDecodeStopsAtNUL(t *testing.T) {
	c := Default()

	buf := []byte{'a', 'b', 0, 'c', 'd'}
	assert.Equal(t, "ab", c.Decode(buf))
	assert.Equal(t, "ab\x00cd", c.DecodeAll(buf))
}

func TestMismatchedCharsetDoesNotFail(t *testing.T) {
	latin, err := ByName("latin1")
	require.NoError(t, err)

	// Chinese text cannot be represented in Latin-1; it is replaced.
	enc := latin.Encode("变量")
	assert.NotEmpty(t, enc)

	// GBK bytes read as Latin-1 are mangled, not rejected.
	gbk := Default().Encode("变量")
	assert.NotEqual(t, "变量", latin.Decode(gbk))
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
		err  bool
	}{
		{"GBK", "gbk", false},
		{"", "gbk", false},
		{" utf-8 ", "utf-8", false},
		{"windows-1252", "windows-1252", false},
		{"ebcdic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ByName(tt.name)
			if tt.err {
				assert.True(t, errors.Is(err, ErrUnknownCharset))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
		})
	}
}

func TestFixed(t *testing.T) {
	c := Default()

	buf, truncated := c.Fixed("abc", 8)
	assert.False(t, truncated)
	assert.Len(t, buf, 8)
	assert.Equal(t, "abc", c.Decode(buf))

	buf, truncated = c.Fixed("abcdefgh", 4)
	assert.True(t, truncated)
	assert.Equal(t, "abc", c.Decode(buf))
	assert.Equal(t, byte(0), buf[3])
}
