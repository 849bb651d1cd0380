package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Hello, World!", "Hello World"},
		{"  padded   text  ", "padded text"},
		{"a , b", "a b"},
		{"tabs\tare\tdropped", "tabsaredropped"},
		{"café naïve", "caf nave"},
		{"!!!", ""},
		{"2023-12-01 release", "20231201 release"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestTokenCount(t *testing.T) {
	assert.Equal(t, 1, TokenCount(""))
	assert.Equal(t, 1, TokenCount("word"))
	assert.Equal(t, 5, TokenCount("a b c d e"))
	assert.Equal(t, 3, TokenCount("a  b"), "empty tokens between double spaces count")
	assert.Equal(t, 1, TokenCount("tab\tseparated\twords"))
}

func TestQualify(t *testing.T) {
	long := strings.Repeat("word ", 20)

	_, ok := Qualify(long)
	assert.True(t, ok)

	_, ok = Qualify(threeTokenLine)
	assert.False(t, ok, "too few tokens regardless of length")

	// enough tokens, but exactly 50 normalized characters
	fifty := "aaaaaaaaa bbbbbbbbb ccccccccc ddddddddd eeeeeeeee"
	assert.Len(t, Normalize(fifty), 49)
	_, ok = Qualify(fifty + "f")
	assert.False(t, ok, "normalized length must exceed 50")
	_, ok = Qualify(fifty + "ff")
	assert.True(t, ok)

	// punctuation counts as tokens but not as normalized length
	_, ok = Qualify("- - - - - - - - - - - - - - - - - - - - - - - - - - - - - -")
	assert.False(t, ok)
}
