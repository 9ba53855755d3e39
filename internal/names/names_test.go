package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanon(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Mitte", "mitte"},
		{"space", "Prenzlauer Berg", "prenzlauerberg"},
		{"umlaut", "Neukölln", "neukoelln"},
		{"eszett", "Weißensee", "weissensee"},
		{"upper umlaut", "KÖPENICK", "koepenick"},
		{"hyphen", "Charlottenburg-Wilmersdorf", "charlottenburgwilmersdorf"},
		{"acute accent", "Café Viertel", "cafeviertel"},
		{"leading trailing space", "  Wedding  ", "wedding"},
		{"digits kept", "Zone 30", "zone30"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canon(tt.in))
		})
	}
}

func TestCanonJoinStability(t *testing.T) {
	// The same place spelled by two different sources must produce one key.
	assert.Equal(t, Canon("Schöneberg"), Canon("Schoeneberg"))
	assert.Equal(t, Canon("Weißensee"), Canon("Weissensee"))
}
