package scoring

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuitabilityWeightedSum(t *testing.T) {
	scaled := map[string]Series{
		"mobility": {"mitte": 80, "pankow": 20},
		"green":    {"mitte": 40, "pankow": 100},
	}

	res, err := Suitability(scaled, Weights{"mobility": 50, "green": 50})
	require.NoError(t, err)

	// 0.5*80 + 0.5*40 = 60
	assert.InDelta(t, 60.0, res.Scores["mitte"], 1e-9)
	assert.InDelta(t, 60.0, res.Scores["pankow"], 1e-9)
}

func TestSuitabilityMissingTermExcluded(t *testing.T) {
	scaled := map[string]Series{
		"mobility": {"mitte": 80, "pankow": 60},
		"green":    {"mitte": 40}, // no green coverage for pankow
	}

	res, err := Suitability(scaled, Weights{"mobility": 50, "green": 50})
	require.NoError(t, err)

	// pankow keeps the single available weighted term, not NaN.
	assert.InDelta(t, 30.0, res.Scores["pankow"], 1e-9)
	assert.InDelta(t, 60.0, res.Scores["mitte"], 1e-9)
}

func TestSuitabilityRegionMissingEverywhere(t *testing.T) {
	scaled := map[string]Series{
		"mobility": {"mitte": 80},
		"green":    {"mitte": 40},
	}
	res, err := Suitability(scaled, Weights{"mobility": 50, "green": 50})
	require.NoError(t, err)

	_, ok := res.Scores["spandau"]
	assert.False(t, ok, "region with no coverage must stay missing")
}

func TestSuitabilityNoMetrics(t *testing.T) {
	_, err := Suitability(map[string]Series{"mobility": {"mitte": 80}}, Weights{})
	assert.True(t, eris.Is(err, ErrNoMetricsSelected))
}

func TestSuitabilityUnknownMetric(t *testing.T) {
	_, err := Suitability(map[string]Series{"mobility": {"mitte": 80}}, Weights{"nightlife": 40})
	assert.Error(t, err)
}

func TestSuitabilityWeightValidation(t *testing.T) {
	_, err := Suitability(map[string]Series{"mobility": {"mitte": 80}}, Weights{"mobility": 130})
	assert.Error(t, err)
	_, err = Suitability(map[string]Series{"mobility": {"mitte": 80}}, Weights{"mobility": -1})
	assert.Error(t, err)
}

func TestSuitabilityNoRenormalization(t *testing.T) {
	scaled := map[string]Series{
		"a": {"x": 100},
		"b": {"x": 100},
	}
	res, err := Suitability(scaled, Weights{"a": 100, "b": 100})
	require.NoError(t, err)
	// Weights are fractions of 100 each, not renormalized to sum 1.
	assert.InDelta(t, 200.0, res.Scores["x"], 1e-9)
}

func TestSuitabilityRanking(t *testing.T) {
	scaled := map[string]Series{
		"m": {"a": 10, "b": 90, "c": 50},
	}
	res, err := Suitability(scaled, Weights{"m": 100})
	require.NoError(t, err)

	require.Len(t, res.Ranking, 3)
	assert.Equal(t, "b", res.Ranking[0].Key)
	assert.Equal(t, "c", res.Ranking[1].Key)
	assert.Equal(t, "a", res.Ranking[2].Key)

	top := res.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Key)
}

func TestSuitabilityRankingTieBreak(t *testing.T) {
	scaled := map[string]Series{
		"m": {"zulu": 50, "alpha": 50},
	}
	res, err := Suitability(scaled, Weights{"m": 100})
	require.NoError(t, err)
	assert.Equal(t, "alpha", res.Ranking[0].Key)
	assert.Equal(t, "zulu", res.Ranking[1].Key)
}
