package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voidshard/hydrosurvey"
	"github.com/voidshard/hydrosurvey/internal/metrics"
	"github.com/voidshard/hydrosurvey/internal/settings"
	"github.com/voidshard/hydrosurvey/internal/source"
)

var _ hydrosurvey.Recorder = (*metrics.Recorder)(nil)

func interpolateCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "interpolate-lake",
		Short: "Interpolate lake bottom elevations with AEIDW",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			s, err := settings.Load(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			return interpolate(cmd, s, log.With(zap.String("lake", s.Lake.Name)))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfgPath, "config", "c", "", "lake configuration file")
	f.Int("workers", 0, "zones interpolated at once (default one per CPU)")
	f.StringP("output", "o", "", "CSV file to write interpolated points to")
	f.String("preview", "", "PNG file to draw the result to")
	f.String("metrics", "", "prometheus textfile to write run metrics to")
	f.String("projection", "", "how points are placed along centerlines (vertex, segment)")
	f.String("surface", "", "survey elevation to interpolate (current, preimpoundment)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func interpolate(cmd *cobra.Command, s *settings.Settings, log *zap.Logger) error {
	start := time.Now()

	in, err := loadInput(s, log)
	if err != nil {
		return err
	}

	rec := metrics.New()
	p, err := hydrosurvey.New(s.Config(), hydrosurvey.WithLogger(log), hydrosurvey.WithRecorder(rec))
	if err != nil {
		return err
	}

	res, err := p.Run(cmd.Context(), in)
	if err != nil {
		return err
	}
	for _, f := range res.Report.Failures {
		log.Warn("zone not interpolated",
			zap.String("zone", f.ZoneID),
			zap.String("stage", string(f.Stage)),
			zap.Error(f.Err),
		)
	}

	if err := writeTargets(s.Output.Filepath, res.Points); err != nil {
		return err
	}
	log.Info("wrote interpolated points", zap.String("path", s.Output.Filepath), zap.Int("points", len(res.Points)))

	if s.Output.Preview != "" {
		if err := res.SavePreview(s.Output.Preview, in.Boundary, s.Output.PreviewWidth, nil); err != nil {
			return errors.Wrap(err, "writing preview")
		}
		log.Info("wrote preview", zap.String("path", s.Output.Preview))
	}
	if s.Output.Metrics != "" {
		if err := rec.WriteTextfile(s.Output.Metrics); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}

	log.Info("done",
		zap.String("run", res.RunID),
		zap.Int("zones", len(res.Report.Zones)),
		zap.Int("failed", len(res.Report.Failures)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// loadInput reads every file the settings name into memory.
func loadInput(s *settings.Settings, log *zap.Logger) (*hydrosurvey.Input, error) {
	b, err := source.LoadBoundary(s.Boundary.Filepath, s.Boundary.ElevationColumn)
	if err != nil {
		return nil, errors.Wrap(err, "loading boundary")
	}

	recs, crs, err := source.LoadZones(s.Polygons.Filepath, s.ZoneColumns())
	if err != nil {
		return nil, errors.Wrap(err, "loading interpolation polygons")
	}
	sameCRS(log, "interpolation polygons", b.CRS, crs)
	zones, err := hydrosurvey.ParseZones(recs)
	if err != nil {
		return nil, err
	}

	lines := map[string]hydrosurvey.Centerline{}
	if s.Centerlines.Filepath != "" {
		lines, crs, err = source.LoadCenterlines(s.Centerlines.Filepath, s.Centerlines.PolygonIDColumn)
		if err != nil {
			return nil, errors.Wrap(err, "loading centerlines")
		}
		sameCRS(log, "centerlines", b.CRS, crs)
	}

	survey, err := source.ReadSurvey(s.Survey.Filepath, s.SurveyColumns(), s.Survey.CRS)
	if err != nil {
		return nil, errors.Wrap(err, "loading survey points")
	}
	survey, moved, err := source.Reproject(survey, b.CRS)
	if err != nil {
		return nil, err
	}
	if moved {
		log.Info("reprojected survey points", zap.Int("points", len(survey.Points)))
	}

	log.Debug("loaded inputs",
		zap.Int("zones", len(zones)),
		zap.Int("centerlines", len(lines)),
		zap.Int("survey_points", len(survey.Points)),
	)
	return &hydrosurvey.Input{
		Boundary:    b,
		Centerlines: lines,
		Zones:       zones,
		Survey:      survey,
	}, nil
}

// sameCRS warns when a layer appears to be drawn in another coordinate
// system than the boundary. Layers are not reprojected.
func sameCRS(log *zap.Logger, layer, boundary, crs string) {
	if crs != "" && boundary != "" && crs != boundary {
		log.Warn("layer crs differs from boundary", zap.String("layer", layer))
	}
}

func writeTargets(fpath string, pts []hydrosurvey.TargetPoint) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", fpath)
	}
	if err := source.WriteTargets(f, pts); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", fpath)
	}
	return f.Close()
}
