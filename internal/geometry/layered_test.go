package geometry_test

import (
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/leptrans/internal/geometry"
	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

type none = struct{}

var _ = Describe("Layered", func() {
	var (
		rock, air *transport.Medium[none]
		layered   *geometry.Layered[none]
		ctx       *transport.Context[none]
	)

	BeforeEach(func() {
		rock = &transport.Medium[none]{Name: "rock", Material: 0, Locals: geometry.Uniform[none](2650, r3.Vec{})}
		air = &transport.Medium[none]{Name: "air", Material: 1, Locals: geometry.Exponential[none](geometry.StandardAtmosphere())}

		var err error
		layered, err = geometry.NewLayered(0,
			geometry.Layer[none]{Medium: rock, Top: 10},
			geometry.Layer[none]{Medium: air, Top: 1000},
		)
		Expect(err).NotTo(HaveOccurred())

		ctx, err = transport.NewContext[none](table, none{})
		Expect(err).NotTo(HaveOccurred())
		ctx.Medium = layered
		ctx.Random = rand.New(rand.NewPCG(3, 4))
	})

	Describe("construction", func() {
		It("rejects layers that are not stacked upwards", func() {
			_, err := geometry.NewLayered(0,
				geometry.Layer[none]{Medium: rock, Top: 10},
				geometry.Layer[none]{Medium: air, Top: 5},
			)
			Expect(err).To(MatchError(geometry.ErrLayout))
		})

		It("rejects an empty stack", func() {
			_, err := geometry.NewLayered[none](0)
			Expect(err).To(MatchError(geometry.ErrLayout))
		})
	})

	Describe("lookup", func() {
		It("uses half-open layers", func() {
			s := transport.NewState(-1, 1, r3.Vec{Z: 10}, r3.Vec{Z: 1})
			m, _ := layered.Medium(ctx, &s)
			Expect(m).To(BeIdenticalTo(air))

			s.Position.Z = 0
			m, _ = layered.Medium(ctx, &s)
			Expect(m).To(BeIdenticalTo(rock))
		})

		It("is empty outside of the stack", func() {
			for _, z := range []float64{-1e-9, 1000, 2e3} {
				s := transport.NewState(-1, 1, r3.Vec{Z: z}, r3.Vec{Z: 1})
				m, step := layered.Medium(ctx, &s)
				Expect(m).To(BeNil())
				Expect(step).To(BeZero())
			}
		})

		It("proposes the distance to the boundary ahead", func() {
			dir := r3.Unit(r3.Vec{X: 1, Z: 1})
			s := transport.NewState(-1, 1, r3.Vec{Z: 4}, dir)
			_, step := layered.Medium(ctx, &s)
			Expect(step).To(BeNumerically("~", 6*math.Sqrt2+layered.Push, 1e-12))

			ctx.Mode = transport.Backward
			_, step = layered.Medium(ctx, &s)
			Expect(step).To(BeNumerically("~", 4*math.Sqrt2+layered.Push, 1e-12))
		})

		It("imposes no bound on horizontal tracks", func() {
			s := transport.NewState(-1, 1, r3.Vec{Z: 4}, r3.Vec{X: 1})
			_, step := layered.Medium(ctx, &s)
			Expect(step).To(BeZero())
		})
	})

	Describe("transport", func() {
		It("stops on each interface with boundary events", func() {
			ctx.Scheme = transport.SchemeStraight
			ctx.Events = transport.EventMedium

			s := transport.NewState(-1, 20, r3.Vec{}, r3.Vec{Z: 1})
			res, err := ctx.Transport(&s)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Event).To(Equal(transport.EventMedium))
			Expect(res.Media[0]).To(BeIdenticalTo(rock))
			Expect(res.Media[1]).To(BeIdenticalTo(air))
			Expect(s.Position.Z).To(BeNumerically("~", 10, 2*layered.Push))

			res, err = ctx.Transport(&s)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Media[0]).To(BeIdenticalTo(air))
			Expect(res.Media[1]).To(BeNil())
			Expect(s.Position.Z).To(BeNumerically("~", 1000, 2*layered.Push))
		})

		It("reaches the top of the atmosphere in backward mode", func() {
			ctx.Mode = transport.Backward
			ctx.Scheme = transport.SchemeHybrid
			ctx.Longitudinal = true

			dir := r3.Unit(r3.Vec{X: -0.5, Z: -1})
			s := transport.NewState(-1, 5, r3.Vec{}, dir)
			res, err := ctx.Transport(&s)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Event).To(Equal(transport.EventMedium))
			Expect(res.Media[1]).To(BeNil())
			Expect(s.Position.Z).To(BeNumerically(">=", 1000))
			Expect(s.Kinetic).To(BeNumerically(">", 5))
			Expect(s.Weight).To(BeNumerically(">", 0))
		})
	})
})

var _ = Describe("Exponential atmosphere", func() {
	locals := geometry.Exponential[none](geometry.Atmosphere{Density: 1.2, Scale: 1e4})

	It("decays with altitude", func() {
		s := transport.NewState(-1, 1, r3.Vec{Z: 1e4}, r3.Vec{Z: 1})
		loc := locals(nil, nil, &s)
		Expect(loc.Density).To(BeNumerically("~", 1.2/math.E, 1e-12))
		Expect(loc.Step).To(BeNumerically("~", 100, 1e-9))
	})

	It("floors the projected step for horizontal tracks", func() {
		s := transport.NewState(-1, 1, r3.Vec{}, r3.Vec{X: 1})
		loc := locals(nil, nil, &s)
		Expect(loc.Step).To(BeNumerically("~", 2e3, 1e-9))
	})
})
