package roster

import (
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestGeneratePassword(t *testing.T) {
	is := is.New(t)
	p, err := GeneratePassword(16)
	is.NoErr(err)
	is.Equal(len(p), 16)
	for _, r := range p {
		is.True(strings.ContainsRune(passwordAlphabet, r))
	}
}

func TestGeneratePasswordUnique(t *testing.T) {
	is := is.New(t)
	a, err := GeneratePassword(16)
	is.NoErr(err)
	b, err := GeneratePassword(16)
	is.NoErr(err)
	is.True(a != b)
}

func TestGeneratePasswordDefaultLength(t *testing.T) {
	is := is.New(t)
	p, err := GeneratePassword(0)
	is.NoErr(err)
	is.Equal(len(p), 16)
}
