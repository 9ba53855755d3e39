package server

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kiezlabs/kiezscout/internal/colormap"
	"github.com/kiezlabs/kiezscout/internal/geo"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/pipeline"
	"github.com/kiezlabs/kiezscout/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// levelParam reads the level query parameter, defaulting to neighborhood.
func levelParam(r *http.Request) (model.Level, bool) {
	raw := r.URL.Query().Get("level")
	if raw == "" {
		return model.LevelNeighborhood, true
	}
	return model.ParseLevel(raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics lists the catalog metrics that actually have data at the
// requested level.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	level, ok := levelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown level")
		return
	}
	t := s.data.Table(level)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level":   level,
		"metrics": s.catalog.Available(level, t.HasColumn),
	})
}

// handleRegions serves the polygon layer as GeoJSON with the wide-table
// columns as feature properties.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	level, ok := levelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown level")
		return
	}
	fc := geo.NewFeatureCollection(s.data.Regions(level), pipeline.TableProperties(s.data.Table(level)))
	writeJSON(w, http.StatusOK, fc)
}

type suitabilityRequest struct {
	Level   string         `json:"level"`
	Weights map[string]int `json:"weights"`
	Top     int            `json:"top"`
}

type rankedRegion struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type colorScale struct {
	Stops   [3]string `json:"stops"`
	Missing string    `json:"missing"`
}

type suitabilityResponse struct {
	Level   model.Level       `json:"level"`
	Scores  scoring.Series    `json:"scores"`
	Ranking []rankedRegion    `json:"ranking"`
	Colors  map[string]string `json:"colors"`
	Scale   colorScale        `json:"scale"`
}

// handleSuitability scales the selected metric columns, combines them with
// the requested weights and returns scores, a ranking and map colors.
// Nothing is persisted; every request recomputes from the loaded tables.
func (s *Server) handleSuitability(w http.ResponseWriter, r *http.Request) {
	var req suitabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	level := model.LevelNeighborhood
	if req.Level != "" {
		var ok bool
		if level, ok = model.ParseLevel(req.Level); !ok {
			writeError(w, http.StatusBadRequest, "unknown level "+req.Level)
			return
		}
	}

	t := s.data.Table(level)
	scaled := make(map[string]scoring.Series, len(req.Weights))
	for key := range req.Weights {
		m, ok := s.catalog.Find(key)
		if !ok || !m.HasLevel(level) || !t.HasColumn(m.Column) {
			writeError(w, http.StatusBadRequest, "metric "+key+" not available at level "+string(level))
			return
		}
		scaled[key] = scoring.Scale(t.Series(m.Column), scoring.ScaleOptions{
			Lo:      s.scoring.LoPercentile,
			Hi:      s.scoring.HiPercentile,
			Inverse: m.Inverse,
		})
	}

	res, err := scoring.Suitability(scaled, scoring.Weights(req.Weights))
	if err != nil {
		if eris.Is(err, scoring.ErrNoMetricsSelected) {
			writeError(w, http.StatusBadRequest, "no metrics selected")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	nameByKey := make(map[string]string)
	for _, reg := range s.data.Regions(level) {
		nameByKey[reg.Key()] = reg.DisplayName()
	}
	ranking := make([]rankedRegion, 0, len(res.Ranking))
	for _, rs := range res.Top(req.Top) {
		ranking = append(ranking, rankedRegion{Key: rs.Key, Name: nameByKey[rs.Key], Score: rs.Score})
	}

	grad := colormap.NewDefault(res.Scores)
	writeJSON(w, http.StatusOK, suitabilityResponse{
		Level:   level,
		Scores:  res.Scores,
		Ranking: ranking,
		Colors:  grad.Colors(res.Scores),
		Scale: colorScale{
			Stops:   [3]string{colormap.StopLow, colormap.StopMid, colormap.StopHigh},
			Missing: colormap.Missing,
		},
	})
}
