package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/scoring"
	"github.com/kiezlabs/kiezscout/internal/server"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute a weighted suitability ranking",
	Long: `Scales the selected metric columns to [0, 100] between their 10th and
90th percentiles, combines them with the given weights, and prints the
ranked regions.

Examples:
  # Rank neighborhoods with the catalog's default weights
  kiezscout score

  # Custom selection and weights
  kiezscout score --weights mobility=50,green=30,playgrounds=20

  # Districts, safety-first, exported as CSV
  kiezscout score --level district --weights safety=100,income=40 \
      --format csv --output ranking.csv`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("level", "neighborhood", "aggregation level: neighborhood or district")
	f.String("weights", "", "comma-separated metric=weight pairs (default: catalog defaults)")
	f.Int("top", 0, "limit output to the top N regions (0=all)")
	f.String("format", "table", "output format: table or csv")
	f.String("output", "", "output file path (default: stdout)")
	f.String("data-dir", "", "build output directory (default from config)")

	rootCmd.AddCommand(scoreCmd)
}

// parseWeights reads "mobility=50,green=30" into a weight map.
func parseWeights(s string) (scoring.Weights, error) {
	w := make(scoring.Weights)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, eris.Errorf("score: bad weight %q, want metric=weight", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, eris.Wrapf(err, "score: bad weight %q", pair)
		}
		w[strings.TrimSpace(key)] = n
	}
	return w, nil
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	levelRaw, _ := cmd.Flags().GetString("level")
	level, ok := model.ParseLevel(levelRaw)
	if !ok {
		return eris.Errorf("score: unknown level %q", levelRaw)
	}

	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = cfg.Data.OutDir
	}
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	data, err := server.LoadData(ctx, dataDir, st)
	if err != nil {
		return err
	}
	catalog, err := model.DefaultCatalog()
	if err != nil {
		return err
	}

	t := data.Table(level)
	available := catalog.Available(level, t.HasColumn)

	weightsRaw, _ := cmd.Flags().GetString("weights")
	var weights scoring.Weights
	if weightsRaw == "" {
		weights = make(scoring.Weights)
		for _, m := range available {
			if m.DefaultWeight > 0 {
				weights[m.Key] = m.DefaultWeight
			}
		}
	} else {
		if weights, err = parseWeights(weightsRaw); err != nil {
			return err
		}
	}

	scaled := make(map[string]scoring.Series, len(weights))
	for key := range weights {
		m, found := catalog.Find(key)
		if !found || !m.HasLevel(level) || !t.HasColumn(m.Column) {
			return eris.Errorf("score: metric %q not available at level %s", key, level)
		}
		scaled[key] = scoring.Scale(t.Series(m.Column), scoring.ScaleOptions{
			Lo:      cfg.Scoring.LoPercentile,
			Hi:      cfg.Scoring.HiPercentile,
			Inverse: m.Inverse,
		})
	}

	res, err := scoring.Suitability(scaled, weights)
	if err != nil {
		return err
	}

	top, _ := cmd.Flags().GetInt("top")
	ranking := res.Top(top)

	nameByKey := make(map[string]string)
	for _, r := range data.Regions(level) {
		nameByKey[r.Key()] = r.DisplayName()
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "score: create output file")
		}
		defer f.Close()
		out = f
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table":
		return writeRankingTable(out, ranking, nameByKey)
	case "csv":
		return writeRankingCSV(out, ranking, nameByKey)
	default:
		return eris.Errorf("score: unknown format %q", format)
	}
}

func writeRankingTable(w io.Writer, ranking []scoring.RegionScore, names map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tREGION\tKEY\tSCORE")
	for i, r := range ranking {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\n", i+1, names[r.Key], r.Key, r.Score)
	}
	return tw.Flush()
}

func writeRankingCSV(w io.Writer, ranking []scoring.RegionScore, names map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "region", "region_key", "score"}); err != nil {
		return eris.Wrap(err, "score: write csv header")
	}
	for i, r := range ranking {
		record := []string{
			strconv.Itoa(i + 1),
			names[r.Key],
			r.Key,
			strconv.FormatFloat(r.Score, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "score: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "score: flush csv")
}
