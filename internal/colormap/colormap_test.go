package colormap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiezlabs/kiezscout/internal/scoring"
)

func seq(n int) scoring.Series {
	s := scoring.Series{}
	for i := 0; i < n; i++ {
		s[string(rune('a'+i))] = float64(i)
	}
	return s
}

func TestGradientEndpoints(t *testing.T) {
	g := NewDefault(seq(21)) // 0..20, p5=1, p95=19

	assert.Equal(t, StopLow, g.Color(0))
	assert.Equal(t, StopLow, g.Color(1))
	assert.Equal(t, StopHigh, g.Color(19))
	assert.Equal(t, StopHigh, g.Color(20))
	assert.Equal(t, StopMid, g.Color(10))
}

func TestGradientMonotoneChannels(t *testing.T) {
	g := NewDefault(seq(21))
	// Red channel falls from 0xff at the low stop to 0x1a at the high stop.
	prev, err := parseHex(g.Color(1))
	require.NoError(t, err)
	for v := 2.0; v <= 19; v++ {
		c, err := parseHex(g.Color(v))
		require.NoError(t, err)
		assert.LessOrEqual(t, c.r, prev.r, "v=%v", v)
		prev = c
	}
}

func TestGradientDegenerate(t *testing.T) {
	g := NewDefault(scoring.Series{"a": 3, "b": 3})
	assert.Equal(t, StopHigh, g.Color(3))

	g = NewDefault(scoring.Series{})
	assert.Equal(t, StopHigh, g.Color(0))
}

func TestGradientColors(t *testing.T) {
	s := seq(21)
	g := NewDefault(s)
	colors := g.Colors(s)
	require.Len(t, colors, len(s))
	for _, c := range colors {
		assert.Regexp(t, `^#[0-9a-f]{6}$`, c)
	}
}

func TestNewRejectsBadHex(t *testing.T) {
	_, err := New(seq(3), "ffffcc", StopMid, StopHigh)
	assert.Error(t, err)
	_, err = New(seq(3), StopLow, "#a6d9", StopHigh)
	assert.Error(t, err)
}

func TestMissingConstant(t *testing.T) {
	assert.Equal(t, "#cccccc", Missing)
}
