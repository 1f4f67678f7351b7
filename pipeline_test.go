package hydrosurvey

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

func ptr(f float64) *float64 { return &f }

// lake is a 200x100 rectangle with a channel zone along its middle (running
// a little past either shore) & a catch-all zone under it.
func lake() *Input {
	survey := []SurveyPoint{}
	i := 0
	for x := 5.0; x < 200; x += 10 {
		for y := 5.0; y < 100; y += 10 {
			z := 80 + 0.05*x - 0.1*math.Abs(y-50)
			sp := SurveyPoint{X: x, Y: y, Surface: z}
			if i%2 == 0 {
				sp.Preimpoundment = ptr(z - 10)
			}
			survey = append(survey, sp)
			i++
		}
	}
	survey = append(survey, SurveyPoint{X: 40, Y: 20, Surface: 42.5, Preimpoundment: ptr(30)})

	return &Input{
		Boundary: Boundary{Polygon: rect(0, 0, 200, 100), Elevation: 100, CRS: "EPSG:3081"},
		Centerlines: map[string]Centerline{
			"1": {ZoneID: "1", Line: []geom.Point{{X: 0, Y: 50}, {X: 200, Y: 50}}},
		},
		Zones: []Zone{
			{ID: "2", Priority: 2, Gridspace: 20, Method: IDW, Polygon: rect(0, 0, 200, 100)},
			{ID: "1", Priority: 1, Gridspace: 10, Method: AEIDW, Params: "ellipsivity: 5", Polygon: rect(-10, 20, 210, 80)},
		},
		Survey: SurveySet{Points: survey},
	}
}

// pond is a small square with little survey data & no boundary ring within
// reach of its zones
func pond() *Input {
	return &Input{
		Boundary: Boundary{Polygon: rect(0, 0, 30, 30), Elevation: 50},
		Zones: []Zone{
			{ID: "10", Priority: 1, Gridspace: 5, Method: IDW, Polygon: rect(22, 22, 28, 28)},
			{ID: "9", Priority: 1, Gridspace: 10, Method: IDW, Polygon: rect(10, 10, 20, 20)},
		},
		Survey: SurveySet{Points: []SurveyPoint{
			{X: 12, Y: 12, Surface: 1},
			{X: 18, Y: 12, Surface: 2},
			{X: 15, Y: 18, Surface: 3},
		}},
	}
}

func newPipeline(mutate func(c *Config)) *Pipeline {
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	p, err := New(cfg, WithLogger(testLogger()))
	Expect(err).ToNot(HaveOccurred())
	return p
}

func elevationAt(res *Result, x, y float64) (float64, bool) {
	for _, p := range res.Points {
		if p.X == x && p.Y == y {
			return p.Elevation, true
		}
	}
	return 0, false
}

// countingRecorder remembers what it is told
type countingRecorder struct {
	lock   sync.Mutex
	stages []string
	done   map[string]int
	failed map[string]string
}

func (c *countingRecorder) StageEntered(stage string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.stages = append(c.stages, stage)
}

func (c *countingRecorder) ZoneInterpolated(zoneID string, points int, _ time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.done[zoneID] = points
}

func (c *countingRecorder) ZoneFailed(zoneID string, stage string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failed[zoneID] = stage
}

var _ = Describe("Pipeline", func() {
	ctx := context.Background()

	Context("with a channel zone over a catch-all zone", func() {
		var res *Result

		BeforeEach(func() {
			var err error
			res, err = newPipeline(nil).Run(ctx, lake())
			Expect(err).ToNot(HaveOccurred())
		})

		It("should interpolate every zone", func() {
			Expect(res.RunID).ToNot(BeEmpty())
			Expect(res.Report.Failures).To(BeEmpty())
			Expect(res.Report.Zones).To(HaveLen(2))

			one, two := res.Report.Zones[0], res.Report.Zones[1]
			Expect(one.ZoneID).To(Equal("1"))
			Expect(one.Points).To(Equal(147))
			Expect(one.Claimed).To(Equal(0))
			Expect(one.Clipped).To(Equal(14))

			Expect(two.ZoneID).To(Equal("2"))
			Expect(two.Claimed).To(Equal(44))
			Expect(two.Points).To(Equal(22))
			Expect(two.Clipped).To(Equal(0))
			Expect(two.EffectiveArea).To(BeNumerically("~", 200*100-200*60, 1e-6))

			Expect(res.Points).To(HaveLen(147 + 22))
		})

		It("should partition target points between zones", func() {
			seen := map[[2]float64]string{}
			for _, p := range res.Points {
				key := [2]float64{p.X, p.Y}
				Expect(seen).ToNot(HaveKey(key), "point %v duplicated", key)
				seen[key] = p.ZoneID

				if p.ZoneID == "2" {
					// anything in the channel belongs to zone 1
					Expect(p.Y < 20 || p.Y > 80).To(BeTrue(), "point %v", key)
				}
			}
		})

		It("should order output by zone then lattice", func() {
			for i := 1; i < len(res.Points); i++ {
				a, b := res.Points[i-1], res.Points[i]
				if a.ZoneID != b.ZoneID {
					Expect(a.ZoneID).To(Equal("1"))
					Expect(b.ZoneID).To(Equal("2"))
					continue
				}
				Expect(a.Y < b.Y || (a.Y == b.Y && a.X < b.X)).To(BeTrue())
			}
		})

		It("should return survey elevations exactly where a target sits on one", func() {
			z, ok := elevationAt(res, 40, 20)
			Expect(ok).To(BeTrue())
			Expect(z).To(Equal(42.5))
		})

		It("should pin the boundary vertices to the boundary elevation", func() {
			for _, corner := range [][2]float64{{0, 0}, {200, 0}, {200, 100}, {0, 100}} {
				z, ok := elevationAt(res, corner[0], corner[1])
				Expect(ok).To(BeTrue(), "corner %v", corner)
				Expect(z).To(Equal(100.0), "corner %v", corner)
			}
		})

		It("should keep estimates within the range of the data", func() {
			for _, p := range res.Points {
				Expect(p.Elevation).To(BeNumerically(">=", 42.5-1e-9))
				Expect(p.Elevation).To(BeNumerically("<=", 100+1e-9))
			}
		})
	})

	Context("when run repeatedly", func() {
		It("should produce identical output regardless of workers", func() {
			serial, err := newPipeline(func(c *Config) { c.Workers = 1 }).Run(ctx, lake())
			Expect(err).ToNot(HaveOccurred())

			parallel, err := newPipeline(func(c *Config) { c.Workers = 8 }).Run(ctx, lake())
			Expect(err).ToNot(HaveOccurred())

			Expect(cmp.Diff(serial.Points, parallel.Points)).To(BeEmpty())
			Expect(cmp.Diff(serial.Report, parallel.Report)).To(BeEmpty())
			Expect(serial.RunID).ToNot(Equal(parallel.RunID))
		})

		It("should produce identical output with segment projection", func() {
			mut := func(c *Config) { c.Projection = ProjectSegment }
			a, err := newPipeline(mut).Run(ctx, lake())
			Expect(err).ToNot(HaveOccurred())
			b, err := newPipeline(mut).Run(ctx, lake())
			Expect(err).ToNot(HaveOccurred())

			Expect(cmp.Diff(a.Points, b.Points)).To(BeEmpty())
			z, ok := elevationAt(a, 40, 20)
			Expect(ok).To(BeTrue())
			Expect(z).To(Equal(42.5))
		})
	})

	Context("with the pre-impoundment surface", func() {
		It("should interpolate pre-impoundment elevations", func() {
			res, err := newPipeline(func(c *Config) { c.Surface = SurfacePreimpoundment }).Run(ctx, lake())
			Expect(err).ToNot(HaveOccurred())

			z, ok := elevationAt(res, 40, 20)
			Expect(ok).To(BeTrue())
			Expect(z).To(Equal(30.0))

			z, ok = elevationAt(res, 0, 0)
			Expect(ok).To(BeTrue())
			Expect(z).To(Equal(100.0))
		})
	})

	Context("with a zone lacking survey data", func() {
		It("should report the failure & keep other zones", func() {
			rec := &countingRecorder{done: map[string]int{}, failed: map[string]string{}}
			cfg := DefaultConfig()
			cfg.Buffer = 0
			p, err := New(cfg, WithLogger(testLogger()), WithRecorder(rec))
			Expect(err).ToNot(HaveOccurred())

			res, err := p.Run(ctx, pond())
			Expect(err).ToNot(HaveOccurred())

			Expect(res.Report.Zones).To(HaveLen(1))
			nine := res.Report.Zones[0]
			Expect(nine.ZoneID).To(Equal("9"))
			Expect(nine.Candidates).To(Equal(3))
			Expect(nine.Points).To(Equal(4))

			Expect(res.Report.Failures).To(HaveLen(1))
			f := res.Report.Failures[0]
			Expect(f.ZoneID).To(Equal("10"))
			Expect(f.Stage).To(Equal(Interpolated))
			Expect(errors.Is(f.Err, ErrInsufficientData)).To(BeTrue())
			Expect(res.Report.Failed("10")).To(BeTrue())
			Expect(res.Report.Failed("9")).To(BeFalse())

			Expect(res.Points).To(HaveLen(4))
			for _, pt := range res.Points {
				Expect(pt.ZoneID).To(Equal("9"))
				Expect(pt.Elevation).To(BeNumerically(">=", 1))
				Expect(pt.Elevation).To(BeNumerically("<=", 3))
			}

			Expect(rec.done).To(HaveKeyWithValue("9", 4))
			Expect(rec.failed).To(HaveKeyWithValue("10", string(Interpolated)))
			Expect(rec.stages).To(Equal([]string{
				string(Loaded), string(Densified), string(Meshed), string(Transformed), string(Interpolated), string(Assembled),
			}))
		})

		It("should report a missing centerline", func() {
			in := lake()
			delete(in.Centerlines, "1")

			res, err := newPipeline(nil).Run(ctx, in)
			Expect(err).ToNot(HaveOccurred())

			Expect(res.Report.Failures).To(HaveLen(1))
			Expect(res.Report.Failures[0].Stage).To(Equal(Transformed))
			Expect(errors.Is(res.Report.Failures[0].Err, ErrDegenerateCenterline)).To(BeTrue())
			Expect(res.Points).To(HaveLen(22))
		})

		It("should report a degenerate centerline", func() {
			in := lake()
			in.Centerlines["1"] = Centerline{ZoneID: "1", Line: []geom.Point{{X: 5, Y: 5}, {X: 5, Y: 5}}}

			res, err := newPipeline(nil).Run(ctx, in)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Report.Failed("1")).To(BeTrue())
			Expect(errors.Is(res.Report.Failures[0].Err, ErrDegenerateCenterline)).To(BeTrue())
		})
	})

	Context("with coordinate systems", func() {
		It("should default the survey CRS to the boundary's", func() {
			in := lake()
			in.Survey.CRS = ""
			_, err := newPipeline(nil).Run(ctx, in)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should accept matching systems", func() {
			in := lake()
			in.Survey.CRS = "epsg:3081"
			_, err := newPipeline(nil).Run(ctx, in)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should refuse mismatched systems", func() {
			in := lake()
			in.Survey.CRS = "EPSG:4326"
			res, err := newPipeline(nil).Run(ctx, in)
			Expect(res).To(BeNil())
			Expect(errors.Is(err, ErrCoordinateSystemMismatch)).To(BeTrue())
		})
	})

	Context("with bad setup", func() {
		DescribeTable("should fail before interpolating",
			func(mutate func(in *Input), want error) {
				in := lake()
				mutate(in)
				res, err := newPipeline(nil).Run(ctx, in)
				Expect(res).To(BeNil())
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("zero gridspace", func(in *Input) { in.Zones[0].Gridspace = 0 }, ErrInvalidZoneConfig),
			Entry("duplicate zone id", func(in *Input) { in.Zones[0].ID = "1" }, ErrInvalidZoneConfig),
			Entry("bad params", func(in *Input) { in.Zones[1].Params = "{power: -1}" }, ErrInvalidZoneConfig),
			Entry("unknown method", func(in *Input) { in.Zones[1].Method = "kriging" }, ErrInvalidZoneConfig),
			Entry("flat boundary", func(in *Input) { in.Boundary.Polygon = rect(0, 0, 10, 0) }, ErrInvalidGeometry),
			Entry("nan boundary elevation", func(in *Input) { in.Boundary.Elevation = math.NaN() }, ErrInvalidGeometry),
			Entry("flat zone", func(in *Input) { in.Zones[0].Polygon = rect(0, 0, 0, 10) }, ErrInvalidGeometry),
			Entry("nan centerline", func(in *Input) {
				in.Centerlines["1"] = Centerline{Line: []geom.Point{{X: 0, Y: 0}, {X: math.NaN(), Y: 1}}}
			}, ErrInvalidGeometry),
		)

		It("should refuse a nil input", func() {
			_, err := newPipeline(nil).Run(ctx, nil)
			Expect(err).To(HaveOccurred())
		})

		It("should stop when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := newPipeline(nil).Run(cctx, lake())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("when drawing a preview", func() {
		It("should size the image to the boundary", func() {
			in := lake()
			res, err := newPipeline(nil).Run(ctx, in)
			Expect(err).ToNot(HaveOccurred())

			im, err := res.Preview(in.Boundary, 400, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(im.Bounds().Dx()).To(Equal(400))
			Expect(im.Bounds().Dy()).To(Equal(200))

			path := filepath.Join(GinkgoT().TempDir(), "preview.png")
			Expect(res.SavePreview(path, in.Boundary, 100, DefaultScheme())).To(Succeed())
			Expect(path).To(BeAnExistingFile())
		})
	})
})

var _ = Describe("Config", func() {
	It("should accept the defaults", func() {
		Expect(DefaultConfig().Validate()).To(Succeed())
	})

	DescribeTable("should refuse",
		func(mutate func(c *Config)) {
			cfg := DefaultConfig()
			mutate(cfg)
			_, err := New(cfg)
			Expect(errors.Is(err, ErrInvalidConfig)).To(BeTrue())
		},
		Entry("zero segment length", func(c *Config) { c.SegmentLength = 0 }),
		Entry("nan centerline segment length", func(c *Config) { c.CenterlineSegmentLength = math.NaN() }),
		Entry("no neighbours", func(c *Config) { c.Neighbors = 0 }),
		Entry("negative power", func(c *Config) { c.Power = -2 }),
		Entry("negative buffer", func(c *Config) { c.Buffer = -1 }),
		Entry("no workers", func(c *Config) { c.Workers = 0 }),
		Entry("unknown projection", func(c *Config) { c.Projection = "perpendicular" }),
		Entry("unknown surface", func(c *Config) { c.Surface = "bedrock" }),
	)
})

var _ = Describe("ParseZone", func() {
	poly := rect(0, 0, 10, 10)

	It("should parse a full record", func() {
		z, err := ParseZone(ZoneRecord{ID: " 7 ", Priority: "2.0", Gridspace: "12.5", Method: "AEIDW", Params: "3", Polygon: poly})
		Expect(err).ToNot(HaveOccurred())
		Expect(z).To(Equal(Zone{ID: "7", Priority: 2, Gridspace: 12.5, Method: AEIDW, Params: "3", Polygon: poly}))
	})

	It("should default the method", func() {
		z, err := ParseZone(ZoneRecord{ID: "a", Priority: "1", Gridspace: "1"})
		Expect(err).ToNot(HaveOccurred())
		Expect(z.Method).To(Equal(AEIDW))
	})

	DescribeTable("should refuse",
		func(r ZoneRecord) {
			_, err := ParseZone(r)
			Expect(errors.Is(err, ErrInvalidZoneConfig)).To(BeTrue())
		},
		Entry("no id", ZoneRecord{Priority: "1", Gridspace: "1"}),
		Entry("missing priority", ZoneRecord{ID: "a", Gridspace: "1"}),
		Entry("fractional priority", ZoneRecord{ID: "a", Priority: "1.5", Gridspace: "1"}),
		Entry("nan priority", ZoneRecord{ID: "a", Priority: "NaN", Gridspace: "1"}),
		Entry("text gridspace", ZoneRecord{ID: "a", Priority: "1", Gridspace: "ten"}),
		Entry("zero gridspace", ZoneRecord{ID: "a", Priority: "1", Gridspace: "0"}),
		Entry("unknown method", ZoneRecord{ID: "a", Priority: "1", Gridspace: "1", Method: "spline"}),
	)

	It("should stop at the first bad record", func() {
		zs, err := ParseZones([]ZoneRecord{
			{ID: "a", Priority: "1", Gridspace: "1"},
			{ID: "b", Priority: "x", Gridspace: "1"},
		})
		Expect(zs).To(BeNil())
		Expect(errors.Is(err, ErrInvalidZoneConfig)).To(BeTrue())
	})
})
