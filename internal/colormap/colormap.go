// Package colormap turns metric values into map fill colors using a
// three-stop linear gradient anchored at robust percentiles, so a handful
// of outlier regions cannot wash out the palette.
package colormap

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/kiezlabs/kiezscout/internal/scoring"
)

// Default gradient: pale yellow through light green to deep green.
const (
	StopLow  = "#ffffcc"
	StopMid  = "#a6d96a"
	StopHigh = "#1a9641"

	// Missing is the fill for regions without a value.
	Missing = "#cccccc"

	loAnchorPercentile = 5
	hiAnchorPercentile = 95
)

type rgb struct {
	r, g, b uint8
}

func parseHex(s string) (rgb, error) {
	var c rgb
	if len(s) != 7 || s[0] != '#' {
		return c, eris.Errorf("colormap: bad hex color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.r, &c.g, &c.b); err != nil {
		return c, eris.Wrapf(err, "colormap: bad hex color %q", s)
	}
	return c, nil
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

func lerp(a, b rgb, t float64) rgb {
	f := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + t*(float64(y)-float64(x))))
	}
	return rgb{f(a.r, b.r), f(a.g, b.g), f(a.b, b.b)}
}

// Gradient maps values to colors along three stops.
type Gradient struct {
	low, mid, high rgb
	lo, hi         float64
}

// New builds a gradient whose low and high stops sit at the 5th and 95th
// percentiles of the series. Values outside the anchors clamp to the end
// stops. Hex stops must be of the form #rrggbb.
func New(s scoring.Series, lowHex, midHex, highHex string) (*Gradient, error) {
	low, err := parseHex(lowHex)
	if err != nil {
		return nil, err
	}
	mid, err := parseHex(midHex)
	if err != nil {
		return nil, err
	}
	high, err := parseHex(highHex)
	if err != nil {
		return nil, err
	}

	vals := make([]float64, 0, len(s))
	for _, v := range s {
		vals = append(vals, v)
	}
	return &Gradient{
		low:  low,
		mid:  mid,
		high: high,
		lo:   scoring.Percentile(vals, loAnchorPercentile),
		hi:   scoring.Percentile(vals, hiAnchorPercentile),
	}, nil
}

// NewDefault builds a gradient over s with the default green palette.
func NewDefault(s scoring.Series) *Gradient {
	g, err := New(s, StopLow, StopMid, StopHigh)
	if err != nil {
		panic(err) // constant stops are well formed
	}
	return g
}

// Color returns the hex fill for v. A degenerate series, where the two
// anchors coincide or the series was empty, maps every value to the high
// stop so a uniform layer still renders as "present".
func (g *Gradient) Color(v float64) string {
	if math.IsNaN(g.lo) || math.IsNaN(g.hi) || g.hi == g.lo {
		return g.high.hex()
	}
	t := (v - g.lo) / (g.hi - g.lo)
	switch {
	case t <= 0:
		return g.low.hex()
	case t >= 1:
		return g.high.hex()
	case t < 0.5:
		return lerp(g.low, g.mid, t*2).hex()
	default:
		return lerp(g.mid, g.high, (t-0.5)*2).hex()
	}
}

// Colors maps every present entry of s. Regions absent from s are the
// caller's problem; use Missing for those.
func (g *Gradient) Colors(s scoring.Series) map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = g.Color(v)
	}
	return out
}
