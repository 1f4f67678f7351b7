// Package settings loads the lake configuration file the CLI runs from.
//
// The file is TOML (or anything else viper reads) laid out in sections:
//
//	[lake]
//	name = "Lake Example"
//	survey_year = 2023
//
//	[boundary]
//	filepath = "boundary.shp"
//	elevation_column = "ELEV"
//	max_segment_length = 10
//
//	[survey_points]
//	filepath = "survey.csv"
//	x_coord_column = "x_coord"
//	y_coord_column = "y_coord"
//	surface_elevation_column = "current_surface_z"
//	preimpoundment_elevation_column = "preimpoundment_z"
//	crs = "+proj=utm +zone=14 +datum=NAD83 +units=m"
//
//	[interpolation_centerlines]
//	filepath = "centerlines.shp"
//	polygon_id_column = "polygon_id"
//	max_segment_length = 10
//
//	[interpolation_polygons]
//	filepath = "polygons.shp"
//	polygon_id_column = "id"
//	grid_spacing_column = "gridspace"
//	priority_column = "priority"
//	interpolation_method_column = "method"
//	interpolation_params_column = "params"
//	buffer = 100
//	nearest_neighbors = 16
//
//	[output]
//	filepath = "lake.csv"
//
// Any key may also be set in the environment, eg. HYDROSURVEY_OUTPUT_FILEPATH.
package settings

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/voidshard/hydrosurvey"
	"github.com/voidshard/hydrosurvey/internal/source"
)

var ErrInvalidSettings = errors.New("invalid settings")

// flags that may override file keys, when they're registered on the flagset
var flagKeys = map[string]string{
	"workers":    "workers",
	"output":     "output.filepath",
	"preview":    "output.preview",
	"metrics":    "output.metrics",
	"projection": "interpolation_polygons.projection",
	"surface":    "survey_points.surface",
}

type Lake struct {
	Name       string `mapstructure:"name"`
	SurveyYear int    `mapstructure:"survey_year"`
}

type Boundary struct {
	Filepath         string  `mapstructure:"filepath"`
	ElevationColumn  string  `mapstructure:"elevation_column"`
	MaxSegmentLength float64 `mapstructure:"max_segment_length"`
}

type SurveyPoints struct {
	Filepath                      string `mapstructure:"filepath"`
	XCoordColumn                  string `mapstructure:"x_coord_column"`
	YCoordColumn                  string `mapstructure:"y_coord_column"`
	SurfaceElevationColumn        string `mapstructure:"surface_elevation_column"`
	PreimpoundmentElevationColumn string `mapstructure:"preimpoundment_elevation_column"`
	CRS                           string `mapstructure:"crs"`

	// Surface is which elevation to interpolate: current or preimpoundment
	Surface string `mapstructure:"surface"`
}

type Centerlines struct {
	Filepath         string  `mapstructure:"filepath"`
	PolygonIDColumn  string  `mapstructure:"polygon_id_column"`
	MaxSegmentLength float64 `mapstructure:"max_segment_length"`
}

type Polygons struct {
	Filepath                  string  `mapstructure:"filepath"`
	PolygonIDColumn           string  `mapstructure:"polygon_id_column"`
	GridSpacingColumn         string  `mapstructure:"grid_spacing_column"`
	PriorityColumn            string  `mapstructure:"priority_column"`
	InterpolationMethodColumn string  `mapstructure:"interpolation_method_column"`
	InterpolationParamsColumn string  `mapstructure:"interpolation_params_column"`
	Buffer                    float64 `mapstructure:"buffer"`
	NearestNeighbors          int     `mapstructure:"nearest_neighbors"`
	Power                     float64 `mapstructure:"power"`

	// Projection is how points are placed along centerlines: vertex or segment
	Projection string `mapstructure:"projection"`
}

type Output struct {
	Filepath string `mapstructure:"filepath"`

	// Preview, if set, is where to write a PNG of the result
	Preview      string `mapstructure:"preview"`
	PreviewWidth int    `mapstructure:"preview_width"`

	// Metrics, if set, is where to write a prometheus textfile
	Metrics string `mapstructure:"metrics"`
}

// Settings is everything in a lake configuration file.
type Settings struct {
	Lake        Lake         `mapstructure:"lake"`
	Boundary    Boundary     `mapstructure:"boundary"`
	Survey      SurveyPoints `mapstructure:"survey_points"`
	Centerlines Centerlines  `mapstructure:"interpolation_centerlines"`
	Polygons    Polygons     `mapstructure:"interpolation_polygons"`
	Output      Output       `mapstructure:"output"`

	// Workers bounds how many zones run at once, 0 meaning one per CPU
	Workers int `mapstructure:"workers"`
}

// Load reads settings from fpath. Flags, when not nil, override the file for
// any of the keys in flagKeys they define.
func Load(fpath string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("hydrosurvey")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "binding flag %s", name)
			}
		}
	}

	v.SetConfigFile(fpath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", fpath)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", fpath)
	}
	return s, s.Validate()
}

func defaults(v *viper.Viper) {
	cfg := hydrosurvey.DefaultConfig()
	v.SetDefault("boundary.max_segment_length", cfg.SegmentLength)
	v.SetDefault("interpolation_centerlines.max_segment_length", cfg.CenterlineSegmentLength)
	v.SetDefault("interpolation_polygons.buffer", cfg.Buffer)
	v.SetDefault("interpolation_polygons.nearest_neighbors", cfg.Neighbors)
	v.SetDefault("interpolation_polygons.power", cfg.Power)
	v.SetDefault("interpolation_polygons.projection", string(cfg.Projection))
	v.SetDefault("survey_points.surface", string(cfg.Surface))
	v.SetDefault("output.preview_width", 1024)
	v.SetDefault("workers", 0)
}

// Validate checks every required key is set & the run config is sane.
func (s *Settings) Validate() error {
	required := []struct {
		key, val string
	}{
		{"boundary.filepath", s.Boundary.Filepath},
		{"boundary.elevation_column", s.Boundary.ElevationColumn},
		{"survey_points.filepath", s.Survey.Filepath},
		{"survey_points.x_coord_column", s.Survey.XCoordColumn},
		{"survey_points.y_coord_column", s.Survey.YCoordColumn},
		{"survey_points.surface_elevation_column", s.Survey.SurfaceElevationColumn},
		{"interpolation_polygons.filepath", s.Polygons.Filepath},
		{"interpolation_polygons.polygon_id_column", s.Polygons.PolygonIDColumn},
		{"interpolation_polygons.grid_spacing_column", s.Polygons.GridSpacingColumn},
		{"interpolation_polygons.priority_column", s.Polygons.PriorityColumn},
		{"output.filepath", s.Output.Filepath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return errors.Wrapf(ErrInvalidSettings, "%s is required", r.key)
		}
	}
	if s.Centerlines.Filepath != "" && s.Centerlines.PolygonIDColumn == "" {
		return errors.Wrap(ErrInvalidSettings, "interpolation_centerlines.polygon_id_column is required with a centerline file")
	}
	if hydrosurvey.Surface(s.Survey.Surface) == hydrosurvey.SurfacePreimpoundment && s.Survey.PreimpoundmentElevationColumn == "" {
		return errors.Wrap(ErrInvalidSettings, "survey_points.preimpoundment_elevation_column is required to interpolate the preimpoundment surface")
	}
	if s.Workers < 0 {
		return errors.Wrapf(ErrInvalidSettings, "workers must be >= 0, got %d", s.Workers)
	}
	if s.Output.Preview != "" && s.Output.PreviewWidth < 1 {
		return errors.Wrapf(ErrInvalidSettings, "output.preview_width must be > 0, got %d", s.Output.PreviewWidth)
	}
	if err := s.Config().Validate(); err != nil {
		return errors.Wrap(err, "invalid settings")
	}
	return nil
}

// Config returns the pipeline config these settings describe.
func (s *Settings) Config() *hydrosurvey.Config {
	cfg := hydrosurvey.DefaultConfig()
	cfg.SegmentLength = s.Boundary.MaxSegmentLength
	cfg.CenterlineSegmentLength = s.Centerlines.MaxSegmentLength
	cfg.Neighbors = s.Polygons.NearestNeighbors
	cfg.Power = s.Polygons.Power
	cfg.Buffer = s.Polygons.Buffer
	cfg.Projection = hydrosurvey.Projection(s.Polygons.Projection)
	cfg.Surface = hydrosurvey.Surface(s.Survey.Surface)
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	return cfg
}

// SurveyColumns returns the survey CSV column names.
func (s *Settings) SurveyColumns() source.SurveyColumns {
	return source.SurveyColumns{
		X:              s.Survey.XCoordColumn,
		Y:              s.Survey.YCoordColumn,
		Surface:        s.Survey.SurfaceElevationColumn,
		Preimpoundment: s.Survey.PreimpoundmentElevationColumn,
	}
}

// ZoneColumns returns the interpolation polygon column names.
func (s *Settings) ZoneColumns() source.ZoneColumns {
	return source.ZoneColumns{
		ID:        s.Polygons.PolygonIDColumn,
		Priority:  s.Polygons.PriorityColumn,
		Gridspace: s.Polygons.GridSpacingColumn,
		Method:    s.Polygons.InterpolationMethodColumn,
		Params:    s.Polygons.InterpolationParamsColumn,
	}
}
