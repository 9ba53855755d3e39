package cuisine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single national", "italian", []string{"italian"}},
		{"multi", "turkish;lebanese", []string{"turkish", "lebanese"}},
		{"dish excluded", "pizza;italian", []string{"italian"}},
		{"unknown dropped", "fusion;italian", []string{"italian"}},
		{"doner umlaut excluded", "döner;turkish", []string{"turkish"}},
		{"case and spacing", " Thai ; VIETNAMESE", []string{"thai", "vietnamese"}},
		{"repeat preserved", "thai;thai", []string{"thai", "thai"}},
		{"only dishes", "burger;bbq;cafe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.in))
		})
	}
}

func TestNationals(t *testing.T) {
	set := Nationals("italian;pizza;italian;thai")
	assert.Len(t, set, 2)
	assert.True(t, set["italian"])
	assert.True(t, set["thai"])
}

func TestSortedNationals(t *testing.T) {
	assert.Equal(t, []string{"italian", "thai"}, SortedNationals("thai;italian"))
	assert.Empty(t, SortedNationals("pizza"))
}
