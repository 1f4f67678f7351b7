package source

import (
	"bufio"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	currentSuffix        = "_1.xyz"
	preimpoundmentSuffix = "_2.xyz"
)

// XYZHeader is the header MergeXYZ writes. It matches DefaultSurveyColumns.
var XYZHeader = []string{"x_coord", "y_coord", "current_surface_z", "preimpoundment_z"}

// DefaultSurveyColumns reads CSVs written by MergeXYZ.
func DefaultSurveyColumns() SurveyColumns {
	return SurveyColumns{
		X:              XYZHeader[0],
		Y:              XYZHeader[1],
		Surface:        XYZHeader[2],
		Preimpoundment: XYZHeader[3],
	}
}

// MergeXYZ finds sounding files under dir whose path contains prefix and
// joins current surface (*_1.xyz) & preimpoundment (*_2.xyz) soundings row by
// row into one CSV written to w. Files are read in path order.
// Tidal corrections are not applied.
func MergeXYZ(dir, prefix string, w io.Writer) (int, error) {
	var current, pre []string
	err := filepath.WalkDir(dir, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.Contains(fpath, prefix) {
			return nil
		}
		switch {
		case strings.HasSuffix(fpath, currentSuffix):
			current = append(current, fpath)
		case strings.HasSuffix(fpath, preimpoundmentSuffix):
			pre = append(pre, fpath)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "walking %s", dir)
	}
	sort.Strings(current)
	sort.Strings(pre)

	cur, err := readXYZ(current)
	if err != nil {
		return 0, err
	}
	old, err := readXYZ(pre)
	if err != nil {
		return 0, err
	}
	if len(cur) != len(old) {
		return 0, errors.Errorf("%d current surface soundings but %d preimpoundment soundings", len(cur), len(old))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(XYZHeader); err != nil {
		return 0, err
	}
	for i := range cur {
		err := cw.Write([]string{
			format(cur[i][0]), format(cur[i][1]), format(cur[i][2]), format(old[i][2]),
		})
		if err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(cur), cw.Error()
}

// readXYZ reads whitespace separated x y z rows from each file in turn.
func readXYZ(files []string) ([][3]float64, error) {
	out := [][3]float64{}
	for _, fpath := range files {
		f, err := os.Open(fpath)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", fpath)
		}

		sc := bufio.NewScanner(f)
		for line := 1; sc.Scan(); line++ {
			parts := strings.Fields(sc.Text())
			if len(parts) == 0 {
				continue
			}
			if len(parts) != 3 {
				f.Close()
				return nil, errors.Errorf("%s:%d: wanted 3 values, got %d", fpath, line, len(parts))
			}
			row := [3]float64{}
			for i, s := range parts {
				row[i], err = strconv.ParseFloat(s, 64)
				if err != nil {
					f.Close()
					return nil, errors.Wrapf(err, "%s:%d", fpath, line)
				}
			}
			out = append(out, row)
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", fpath)
		}
	}
	return out, nil
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
