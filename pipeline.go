package hydrosurvey

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voidshard/hydrosurvey/internal/geometry"
	"github.com/voidshard/hydrosurvey/internal/idw"
	"github.com/voidshard/hydrosurvey/internal/mesh"
	"github.com/voidshard/hydrosurvey/internal/priority"
	"github.com/voidshard/hydrosurvey/internal/sn"
)

var (
	// ErrInvalidGeometry implies a polygon or curve is malformed or degenerate.
	ErrInvalidGeometry = geometry.ErrInvalidGeometry

	// ErrInvalidZoneConfig implies a zone field is missing, non-numeric or
	// otherwise unusable.
	ErrInvalidZoneConfig = priority.ErrInvalidZoneConfig

	// ErrDegenerateCenterline implies a zone's centerline is missing or has
	// fewer than two distinct vertices.
	ErrDegenerateCenterline = sn.ErrDegenerateCenterline

	// ErrInsufficientData implies a zone had no usable survey points.
	ErrInsufficientData = idw.ErrInsufficientData

	// ErrCoordinateSystemMismatch implies survey points & the boundary are
	// in different coordinate systems.
	ErrCoordinateSystemMismatch = errors.New("coordinate system mismatch")

	// ErrInvalidConfig implies a run setting is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

const (
	// rtree node fill limits for the survey point index
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

// Pipeline turns survey points & zone definitions into an interpolated
// elevation surface. A Pipeline holds no per-run state & may be Run many
// times, including concurrently.
type Pipeline struct {
	cfg *Config
	log *zap.Logger
	rec Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger, the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRecorder sets something to be told about progress.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.rec = r
		}
	}
}

// New creates a Pipeline. A nil config means DefaultConfig().
func New(cfg *Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	c := *cfg
	p := &Pipeline{cfg: &c, log: zap.NewNop(), rec: nopRecorder{}}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// run holds everything about a single invocation of Pipeline.Run
type run struct {
	*Pipeline
	id  string
	in  *Input
	log *zap.Logger

	crs         string
	zones       map[string]Zone
	params      map[string]idw.Params
	boundary    geom.Polygon
	centerlines map[string][]geom.Point
	survey      *rtree.Rtree
	surveyCount int
	resolved    []*priority.Resolved
}

// zoneResult is the output of one zone's interpolation
type zoneResult struct {
	zoneID  string
	points  []TargetPoint
	report  ZoneReport
	failure *ZoneFailure
}

// Run interpolates the given input.
//
// Problems with the boundary, zones or configuration abort the run before
// any interpolation begins. Problems confined to a zone (no survey data, bad
// centerline) are recorded in the returned Report & the rest of the zones
// carry on.
//
// Output is sorted by zone ID (naturally, so "2" is before "10") then by
// lattice row & column, so it does not depend on how work was scheduled.
func (p *Pipeline) Run(ctx context.Context, in *Input) (*Result, error) {
	if in == nil {
		return nil, errors.Wrap(ErrInvalidGeometry, "no input given")
	}

	r := &run{Pipeline: p, id: uuid.New().String(), in: in}
	r.log = p.log.With(zap.String("run", r.id))
	start := time.Now()

	err := r.load()
	if err != nil {
		return nil, err
	}
	err = r.densify()
	if err != nil {
		return nil, err
	}
	err = r.mesh()
	if err != nil {
		return nil, err
	}

	results, err := r.interpolate(ctx)
	if err != nil {
		return nil, err
	}

	res := r.assemble(results)
	r.log.Info("run complete",
		zap.Int("points", len(res.Points)),
		zap.Int("zones", len(res.Report.Zones)),
		zap.Int("failures", len(res.Report.Failures)),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// enter logs & records a stage change
func (r *run) enter(s Stage) {
	r.log.Debug("stage", zap.String("stage", string(s)))
	r.rec.StageEntered(string(s))
}

// load checks everything we can before doing any real work.
func (r *run) load() error {
	err := geometry.Validate(r.in.Boundary.Polygon)
	if err != nil {
		return errors.Wrap(err, "boundary")
	}
	if e := r.in.Boundary.Elevation; math.IsNaN(e) || math.IsInf(e, 0) {
		return errors.Wrapf(ErrInvalidGeometry, "boundary elevation %v", e)
	}

	r.crs, err = resolveCRS(r.in.Boundary.CRS, r.in.Survey.CRS)
	if err != nil {
		return errors.Wrapf(err, "boundary is %q, survey points are %q", r.in.Boundary.CRS, r.in.Survey.CRS)
	}

	r.zones = map[string]Zone{}
	r.params = map[string]idw.Params{}
	for _, z := range r.in.Zones {
		err = geometry.Validate(z.Polygon)
		if err != nil {
			return errors.Wrapf(err, "zone %s", z.ID)
		}
		z.Method, err = ParseMethod(string(z.Method))
		if err != nil {
			return errors.Wrapf(err, "zone %s", z.ID)
		}
		params, err := idw.ParseParams(z.Params, r.cfg.params())
		if err != nil {
			return errors.Wrapf(ErrInvalidZoneConfig, "zone %s: %v", z.ID, err)
		}
		r.zones[z.ID] = z
		r.params[z.ID] = params
	}

	r.log.Info("loaded",
		zap.String("crs", r.crs),
		zap.Int("zones", len(r.in.Zones)),
		zap.Int("centerlines", len(r.in.Centerlines)),
		zap.Int("survey", len(r.in.Survey.Points)),
	)
	r.enter(Loaded)
	return nil
}

// densify densifies the boundary & centerlines, then indexes the survey
// points along with a ring of points around the boundary.
func (r *run) densify() error {
	var err error
	r.boundary, err = geometry.DensifyPolygon(r.in.Boundary.Polygon, r.cfg.SegmentLength)
	if err != nil {
		return errors.Wrap(err, "boundary")
	}

	r.centerlines = map[string][]geom.Point{}
	for id, cl := range r.in.Centerlines {
		dense, err := geometry.Densify(cl.Line, r.cfg.CenterlineSegmentLength)
		if err != nil {
			return errors.Wrapf(err, "centerline %s", id)
		}
		r.centerlines[id] = dense
	}

	ring := boundaryRing(r.boundary, r.in.Boundary.Elevation)
	all := make([]SurveyPoint, 0, len(r.in.Survey.Points)+len(ring))
	all = append(all, r.in.Survey.Points...)
	all = append(all, ring...)

	r.survey = rtree.NewTree(rtreeMinChildren, rtreeMaxChildren)
	skipped := 0
	for i, sp := range all {
		z, ok := elevation(sp, r.cfg.Surface)
		if !ok {
			skipped++
			continue
		}
		r.survey.Insert(&surveyEntry{Point: geom.Point{X: sp.X, Y: sp.Y}, Z: z, Index: i, Synthetic: sp.Synthetic})
		r.surveyCount++
	}

	r.log.Info("densified",
		zap.Int("boundaryRing", len(ring)),
		zap.Int("survey", r.surveyCount),
		zap.Int("skipped", skipped),
		zap.String("surface", string(r.cfg.Surface)),
	)
	r.enter(Densified)
	return nil
}

// mesh builds every zone's lattice with priorities resolved.
func (r *run) mesh() error {
	zones := make([]priority.Zone, 0, len(r.in.Zones))
	for _, z := range r.in.Zones {
		zones = append(zones, priority.Zone{ID: z.ID, Priority: z.Priority, Spacing: z.Gridspace, Polygon: z.Polygon})
	}

	var err error
	r.resolved, err = priority.Resolve(zones)
	if err != nil {
		return err
	}

	r.enter(Meshed)
	return nil
}

// interpolate runs every zone, up to Workers at a time. Every zone is
// transformed before any is interpolated, so the stages a Recorder sees run
// in order.
func (r *run) interpolate(ctx context.Context) ([]*zoneResult, error) {
	work := make([]*zoneWork, len(r.resolved))
	err := r.each(ctx, func(i int) {
		work[i] = r.transform(r.resolved[i])
	})
	if err != nil {
		return nil, err
	}
	r.enter(Transformed)

	results := make([]*zoneResult, len(work))
	err = r.each(ctx, func(i int) {
		results[i] = r.estimate(work[i])
	})
	if err != nil {
		return nil, err
	}

	r.enter(Interpolated)
	return results, nil
}

// each calls fn for every resolved zone, up to Workers at a time.
func (r *run) each(ctx context.Context, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range r.resolved {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}

// zoneWork is a zone clipped & moved into its interpolation frame.
type zoneWork struct {
	start   time.Time
	zone    Zone
	log     *zap.Logger
	out     *zoneResult
	cells   []mesh.Cell
	samples []idw.Sample
	targets []idw.Point
}

// fail records a zone failure at the given stage.
func (r *run) fail(w *zoneWork, stage Stage, err error) {
	w.log.Warn("zone failed", zap.String("stage", string(stage)), zap.Error(err))
	r.rec.ZoneFailed(w.zone.ID, string(stage))
	w.out.failure = &ZoneFailure{ZoneID: w.zone.ID, Stage: stage, Err: err}
}

// transform clips a zone's lattice & moves its targets and candidate survey
// points into the zone's frame.
func (r *run) transform(res *priority.Resolved) *zoneWork {
	z := r.zones[res.Zone.ID]
	w := &zoneWork{
		start: time.Now(),
		zone:  z,
		log:   r.log.With(zap.String("zone", z.ID)),
		out: &zoneResult{
			zoneID: z.ID,
			report: ZoneReport{
				ZoneID:        z.ID,
				Method:        z.Method,
				Claimed:       res.Claimed,
				EffectiveArea: res.EffectiveArea,
			},
		},
	}

	w.out.report.Clipped = res.Lattice.Drop(func(pt geom.Point) bool {
		return !geometry.Contains(r.in.Boundary.Polygon, pt)
	})
	w.cells = res.Lattice.Points()

	candidates := r.candidates(z.Polygon)
	w.out.report.Candidates = len(candidates)
	if len(w.cells) == 0 {
		return w
	}

	toFrame := func(p geom.Point) idw.Point { return idw.Point{S: p.X, N: p.Y} }
	if z.Method.usesCenterline() {
		line, ok := r.centerlines[z.ID]
		if !ok {
			r.fail(w, Transformed, errors.Wrap(ErrDegenerateCenterline, "zone has no centerline"))
			return w
		}
		mode := sn.Vertex
		if r.cfg.Projection == ProjectSegment {
			mode = sn.Segment
		}
		frame, err := sn.NewFrame(line, mode)
		if err != nil {
			r.fail(w, Transformed, err)
			return w
		}
		toFrame = func(p geom.Point) idw.Point {
			c := frame.Transform(p)
			return idw.Point{S: c.S, N: c.N}
		}
	}

	w.samples = make([]idw.Sample, len(candidates))
	for i, c := range candidates {
		q := toFrame(c.Point)
		w.samples[i] = idw.Sample{S: q.S, N: q.N, Z: c.Z}
	}
	w.targets = make([]idw.Point, len(w.cells))
	for i, c := range w.cells {
		w.targets[i] = toFrame(c.Point)
	}
	w.log.Debug("zone transformed", zap.Int("targets", len(w.targets)), zap.Int("candidates", len(w.samples)))
	return w
}

// estimate interpolates a transformed zone.
func (r *run) estimate(w *zoneWork) *zoneResult {
	out := w.out
	if out.failure != nil {
		return out
	}
	if len(w.cells) == 0 {
		w.log.Debug("zone has no target points", zap.Int("claimed", out.report.Claimed), zap.Int("clipped", out.report.Clipped))
		r.rec.ZoneInterpolated(w.zone.ID, 0, time.Since(w.start))
		return out
	}

	est, err := idw.New(w.samples, r.params[w.zone.ID])
	if err != nil {
		r.fail(w, Interpolated, err)
		return out
	}
	zs := est.EstimateAll(w.targets, r.cfg.Workers)

	out.points = make([]TargetPoint, len(w.cells))
	for i, c := range w.cells {
		out.points[i] = TargetPoint{X: c.Point.X, Y: c.Point.Y, ZoneID: w.zone.ID, Elevation: zs[i]}
	}
	out.report.Points = len(out.points)

	elapsed := time.Since(w.start)
	w.log.Debug("zone interpolated",
		zap.String("method", string(w.zone.Method)),
		zap.Int("points", len(out.points)),
		zap.Duration("duration", elapsed),
	)
	r.rec.ZoneInterpolated(w.zone.ID, len(out.points), elapsed)
	return out
}

// candidates returns survey points within Buffer of poly, in input order.
func (r *run) candidates(poly geom.Polygon) []*surveyEntry {
	box := geometry.ExpandBounds(poly.Bounds(), r.cfg.Buffer)

	out := []*surveyEntry{}
	for _, g := range r.survey.SearchIntersect(box) {
		e := g.(*surveyEntry)
		if geometry.DistanceTo(poly, e.Point) <= r.cfg.Buffer {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// assemble merges zone results in zone ID order.
func (r *run) assemble(results []*zoneResult) *Result {
	sortZoneResults(results)

	res := &Result{RunID: r.id, Points: []TargetPoint{}, Report: &RunReport{Zones: []ZoneReport{}}}
	for _, zr := range results {
		if zr.failure != nil {
			res.Report.Failures = append(res.Report.Failures, *zr.failure)
			continue
		}
		res.Points = append(res.Points, zr.points...)
		res.Report.Zones = append(res.Report.Zones, zr.report)
	}

	r.enter(Assembled)
	return res
}
