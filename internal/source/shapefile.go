package source

import (
	"os"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

func readShapefile(fpath string, columns []string) (*Layer, error) {
	crs, err := readText(sidecar(fpath, ".prj"))
	if err != nil {
		return nil, err
	}
	dec, err := charset(fpath)
	if err != nil {
		return nil, err
	}

	d, err := shp.NewDecoder(fpath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", fpath)
	}
	defer d.Close()

	l := &Layer{CRS: crs}
	for {
		g, fields, more := d.DecodeRowFields(columns...)
		if !more {
			break
		}
		f := Feature{Geom: g, Fields: map[string]string{}}
		for _, c := range columns {
			v, ok := fields[c]
			if !ok {
				return nil, errors.Wrapf(ErrMissingColumn, "%s in %s", c, fpath)
			}
			if dec != nil {
				v, err = dec.String(v)
				if err != nil {
					return nil, errors.Wrapf(err, "decoding %s in %s", c, fpath)
				}
			}
			// dbf values are fixed width
			f.Fields[c] = strings.TrimSpace(strings.Trim(v, "\x00"))
		}
		l.Features = append(l.Features, f)
	}
	if err := d.Error(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", fpath)
	}
	return l, nil
}

// charset returns a decoder for the attribute table if a .cpg file names
// one. UTF-8 & missing .cpg files return nil.
func charset(fpath string) (*encoding.Decoder, error) {
	name, err := readText(sidecar(fpath, ".cpg"))
	if err != nil || name == "" {
		return nil, err
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown charset %q for %s", name, fpath)
	}
	if enc == nil {
		return nil, errors.Errorf("unsupported charset %q for %s", name, fpath)
	}
	if n, _ := ianaindex.IANA.Name(enc); strings.EqualFold(n, "UTF-8") {
		return nil, nil
	}
	return enc.NewDecoder(), nil
}

// readText returns the trimmed content of a small sidecar file, or "" if
// it doesn't exist.
func readText(fpath string) (string, error) {
	data, err := os.ReadFile(fpath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", fpath)
	}
	return strings.TrimSpace(string(data)), nil
}
