package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/geo"
	"github.com/kiezlabs/kiezscout/internal/labels"
	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/pipeline"
)

var (
	buildRawDir string
	buildOutDir string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the preprocessing pipeline",
	Long: "Builds the per-neighborhood and per-district feature tables from the raw\n" +
		"open-data inputs. Run a single builder to iterate on one table, or `all`\n" +
		"for the full pipeline including the merge and the enriched GeoJSON.",
}

func init() {
	buildCmd.PersistentFlags().StringVar(&buildRawDir, "raw-dir", "", "raw input directory (default from config)")
	buildCmd.PersistentFlags().StringVar(&buildOutDir, "out", "", "output directory (default from config)")

	f := buildConvertCmd.Flags()
	f.String("sheet", "", "sheet name (default: first sheet)")
	f.Int("sheet-index", 0, "sheet index when --sheet is not set")
	f.Int("skip-rows", 0, "leading rows to skip before the header")

	buildCmd.AddCommand(buildAllCmd, buildMergeCmd, buildPolygonsCmd,
		buildMobilityCmd, buildParksCmd, buildPlaygroundsCmd, buildVenuesCmd,
		buildConvertCmd)
	rootCmd.AddCommand(buildCmd)
}

func buildPaths() pipeline.Paths {
	raw := buildRawDir
	if raw == "" {
		raw = cfg.Data.RawDir
	}
	out := buildOutDir
	if out == "" {
		out = cfg.Data.OutDir
	}
	return pipeline.PathsFromRawDir(raw, out)
}

var buildAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every builder, merge, and write all outputs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		res, err := pipeline.Run(ctx, buildPaths(), st)
		if err != nil {
			return err
		}
		fmt.Printf("Built %d neighborhoods and %d districts into %s\n",
			len(res.Neighborhoods), len(res.Districts), buildPaths().OutDir)
		return nil
	},
}

// merge is `all` without the store: rebuild the wide tables and outputs
// from the raw inputs on disk only.
var buildMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Rebuild and merge all feature tables without touching the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := pipeline.Run(ctx, buildPaths(), nil)
		if err != nil {
			return err
		}
		fmt.Printf("Merged %d neighborhood rows and %d district rows\n",
			res.Neighborhood.Len(), res.District.Len())
		return nil
	},
}

var buildPolygonsCmd = &cobra.Command{
	Use:   "polygons",
	Short: "Load and validate the neighborhood polygon layer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := buildPaths()
		hoods, err := geo.LoadNeighborhoods(p.Neighborhoods)
		if err != nil {
			return err
		}
		districts := geo.DeriveDistricts(hoods)

		if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
			return eris.Wrap(err, "build: create out dir")
		}
		out := filepath.Join(p.OutDir, pipeline.OutNeighborhoodGeoJSON)
		if err := geo.WriteFeatureCollection(out, hoods, nil); err != nil {
			return err
		}
		fmt.Printf("Loaded %d neighborhoods in %d districts, wrote %s\n",
			len(hoods), len(districts), out)
		return nil
	},
}

// runFeatureBuild loads the polygon layer, runs one builder and writes its
// feature table.
func runFeatureBuild(outName string, build func(hoods []*model.Region, p pipeline.Paths) (*dataset.WideTable, error)) error {
	p := buildPaths()
	hoods, err := geo.LoadNeighborhoods(p.Neighborhoods)
	if err != nil {
		return err
	}
	t, err := build(hoods, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return eris.Wrap(err, "build: create out dir")
	}
	out := filepath.Join(p.OutDir, outName)
	if err := t.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", t.Len(), out)
	return nil
}

func loadPointsOptional(path string) []geo.Point {
	pts, err := geo.ReadPointsFile(path)
	if err != nil {
		zap.L().Warn("build: skipping point input", zap.String("path", path), zap.Error(err))
		return nil
	}
	return pts
}

var buildMobilityCmd = &cobra.Command{
	Use:   "mobility",
	Short: "Build the transit connectivity table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runFeatureBuild(pipeline.OutMobilityCSV, func(hoods []*model.Region, p pipeline.Paths) (*dataset.WideTable, error) {
			ubahn := loadPointsOptional(p.UbahnCSV)
			busTram := loadPointsOptional(p.BusTramCSV)
			if ubahn == nil && busTram == nil {
				return nil, eris.New("build: no station or stop inputs found")
			}
			return labels.Mobility(hoods, ubahn, busTram), nil
		})
	},
}

var buildParksCmd = &cobra.Command{
	Use:   "parks",
	Short: "Build the green share table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runFeatureBuild(pipeline.OutParksCSV, func(hoods []*model.Region, p pipeline.Paths) (*dataset.WideTable, error) {
			rows, err := labels.ReadParks(p.ParksCSV)
			if err != nil {
				return nil, err
			}
			return labels.Parks(hoods, rows), nil
		})
	},
}

var buildPlaygroundsCmd = &cobra.Command{
	Use:   "playgrounds",
	Short: "Build the playground density table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runFeatureBuild(pipeline.OutPlaygroundsCSV, func(hoods []*model.Region, p pipeline.Paths) (*dataset.WideTable, error) {
			rows, err := labels.ReadPlaygrounds(p.PlaygroundsCSV)
			if err != nil {
				return nil, err
			}
			return labels.Playgrounds(hoods, rows), nil
		})
	},
}

var buildVenuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Build the venue vibrancy table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runFeatureBuild(pipeline.OutVenuesCSV, func(hoods []*model.Region, p pipeline.Paths) (*dataset.WideTable, error) {
			rows, err := labels.ReadVenues(p.VenuesCSV)
			if err != nil {
				return nil, err
			}
			return labels.Venues(hoods, rows), nil
		})
	},
}

var buildConvertCmd = &cobra.Command{
	Use:   "convert <in.xlsx> <out.csv>",
	Short: "Convert an XLSX open-data export to CSV",
	Long: "Several Berlin open-data inputs are published as XLSX workbooks with\n" +
		"title rows above the header. Convert normalizes them to the CSV layout\n" +
		"the builders read.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sheet, _ := cmd.Flags().GetString("sheet")
		sheetIndex, _ := cmd.Flags().GetInt("sheet-index")
		skipRows, _ := cmd.Flags().GetInt("skip-rows")

		if err := dataset.XLSXToCSV(args[0], args[1], dataset.XLSXOptions{
			SheetIndex: sheetIndex,
			SheetName:  sheet,
			SkipRows:   skipRows,
		}); err != nil {
			return err
		}
		fmt.Printf("Converted %s to %s\n", args[0], args[1])
		return nil
	},
}
