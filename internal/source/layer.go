// Package source moves lake data on and off disk: boundary, centerline &
// zone layers from shapefiles or GeoJSON, survey points from CSV or raw .xyz
// sounding files, and interpolated points out to CSV.
package source

import (
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing attribute column")
	ErrGeometryType      = errors.New("unexpected geometry type")
	ErrEmptyLayer        = errors.New("layer has no features")
)

// Feature is one row of a vector layer.
type Feature struct {
	Geom geom.Geom

	// Fields holds the requested attribute columns, as text
	Fields map[string]string
}

// Layer is a set of features sharing a coordinate system.
type Layer struct {
	// CRS is the layer's coordinate system definition as found on disk
	// (.prj WKT for shapefiles, the named "crs" member for GeoJSON). May be
	// empty.
	CRS string

	Features []Feature
}

// ReadLayer reads a vector layer, keeping only the given attribute columns.
// Every column must be present on every feature.
func ReadLayer(fpath string, columns ...string) (*Layer, error) {
	var (
		l   *Layer
		err error
	)
	switch strings.ToLower(filepath.Ext(fpath)) {
	case ".shp":
		l, err = readShapefile(fpath, columns)
	case ".geojson", ".json":
		l, err = readGeoJSON(fpath, columns)
	default:
		return nil, errors.Wrap(ErrUnsupportedFormat, fpath)
	}
	if err != nil {
		return nil, err
	}
	if len(l.Features) == 0 {
		return nil, errors.Wrap(ErrEmptyLayer, fpath)
	}
	return l, nil
}

// Polygon returns the feature's geometry as a single polygon. Multi part
// polygons have their rings combined; parts of a lake should never overlap.
func (f *Feature) Polygon() (geom.Polygon, error) {
	switch g := f.Geom.(type) {
	case geom.Polygon:
		return g, nil
	case geom.MultiPolygon:
		out := geom.Polygon{}
		for _, p := range g {
			out = append(out, p...)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrGeometryType, "wanted polygon, got %T", f.Geom)
}

// Line returns the feature's geometry as a single polyline. Parts of a
// multi line are joined in order.
func (f *Feature) Line() ([]geom.Point, error) {
	switch g := f.Geom.(type) {
	case geom.LineString:
		return []geom.Point(g), nil
	case geom.MultiLineString:
		out := []geom.Point{}
		for _, part := range g {
			out = append(out, part...)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrGeometryType, "wanted line, got %T", f.Geom)
}

// sidecar returns the path to a file next to fpath with another extension.
func sidecar(fpath, ext string) string {
	return strings.TrimSuffix(fpath, filepath.Ext(fpath)) + ext
}
