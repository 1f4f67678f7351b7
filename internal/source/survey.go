package source

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/pkg/errors"

	"github.com/voidshard/hydrosurvey"
)

// SurveyColumns names the columns of a survey CSV. Preimpoundment is
// optional.
type SurveyColumns struct {
	X              string
	Y              string
	Surface        string
	Preimpoundment string
}

// ReadSurvey reads survey points from a CSV file with a header row.
func ReadSurvey(fpath string, cols SurveyColumns, crs string) (hydrosurvey.SurveySet, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return hydrosurvey.SurveySet{}, errors.Wrapf(err, "opening %s", fpath)
	}
	defer f.Close()

	set, err := DecodeSurvey(f, cols)
	if err != nil {
		return set, errors.Wrap(err, fpath)
	}
	set.CRS = crs
	return set, nil
}

// DecodeSurvey reads survey points from CSV.
func DecodeSurvey(r io.Reader, cols SurveyColumns) (hydrosurvey.SurveySet, error) {
	set := hydrosurvey.SurveySet{Points: []hydrosurvey.SurveyPoint{}}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return set, errors.Wrap(err, "reading header")
	}
	index := map[string]int{}
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	find := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return -1, errors.Wrap(ErrMissingColumn, name)
		}
		return i, nil
	}

	xi, err := find(cols.X)
	if err != nil {
		return set, err
	}
	yi, err := find(cols.Y)
	if err != nil {
		return set, err
	}
	zi, err := find(cols.Surface)
	if err != nil {
		return set, err
	}
	pi := -1
	if cols.Preimpoundment != "" {
		pi, err = find(cols.Preimpoundment)
		if err != nil {
			return set, err
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return set, errors.Wrapf(err, "line %d", line)
		}

		p := hydrosurvey.SurveyPoint{}
		for _, c := range []struct {
			i   int
			out *float64
		}{{xi, &p.X}, {yi, &p.Y}, {zi, &p.Surface}} {
			*c.out, err = strconv.ParseFloat(strings.TrimSpace(rec[c.i]), 64)
			if err != nil {
				return set, errors.Wrapf(err, "line %d", line)
			}
		}
		if pi >= 0 {
			raw := strings.TrimSpace(rec[pi])
			if raw != "" {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return set, errors.Wrapf(err, "line %d", line)
				}
				if !math.IsNaN(v) {
					p.Preimpoundment = &v
				}
			}
		}
		set.Points = append(set.Points, p)
	}
	return set, nil
}

// Reproject moves survey points into the given coordinate system. Points are
// returned untouched (and false) if the CRS already matches, either side is
// unset or either definition can't be parsed; the pipeline then decides if the
// systems are compatible.
func Reproject(set hydrosurvey.SurveySet, to string) (hydrosurvey.SurveySet, bool, error) {
	if set.CRS == "" || to == "" || strings.EqualFold(set.CRS, to) {
		return set, false, nil
	}
	src, err := proj.Parse(set.CRS)
	if err != nil {
		return set, false, nil
	}
	dst, err := proj.Parse(to)
	if err != nil {
		return set, false, nil
	}
	trans, err := src.NewTransform(dst)
	if err != nil {
		return set, false, errors.Wrapf(err, "transforming %s to %s", set.CRS, to)
	}

	out := hydrosurvey.SurveySet{CRS: to, Points: make([]hydrosurvey.SurveyPoint, len(set.Points))}
	for i, p := range set.Points {
		g, err := geom.Point{X: p.X, Y: p.Y}.Transform(trans)
		if err != nil {
			return set, false, errors.Wrapf(err, "survey point %d", i)
		}
		switch moved := g.(type) {
		case geom.Point:
			p.X, p.Y = moved.X, moved.Y
		case *geom.Point:
			p.X, p.Y = moved.X, moved.Y
		}
		out.Points[i] = p
	}
	return out, true, nil
}
