package geometry_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/leptrans/internal/geometry"
	"github.com/san-kum/leptrans/internal/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = Describe("Nested boxes", func() {
	var (
		inner, outer *transport.Medium[*geometry.Tally]
		nested       *geometry.Nested[*geometry.Tally]
		ctx          *transport.Context[*geometry.Tally]
	)

	BeforeEach(func() {
		inner = &transport.Medium[*geometry.Tally]{Name: "StandardRock", Material: 0,
			Locals: geometry.Uniform[*geometry.Tally](2650, r3.Vec{})}
		outer = &transport.Medium[*geometry.Tally]{Name: "Air", Material: 1,
			Locals: geometry.Uniform[*geometry.Tally](1.205, r3.Vec{})}

		var err error
		nested, err = geometry.NewNested(1, geometry.Cubes(
			[]*transport.Medium[*geometry.Tally]{inner, outer}, []float64{1, 4})...)
		Expect(err).NotTo(HaveOccurred())

		ctx, err = transport.NewContext(table, geometry.NewTally())
		Expect(err).NotTo(HaveOccurred())
		ctx.Medium = nested
		ctx.Random = rand.New(rand.NewPCG(5, 6))
	})

	It("resolves the innermost box", func() {
		s := transport.NewState(-1, 1, r3.Vec{X: 0.5}, r3.Vec{Z: 1})
		m, step := nested.Medium(ctx, &s)
		Expect(m).To(BeIdenticalTo(inner))
		Expect(step).To(Equal(1.0))

		s.Position = r3.Vec{X: 2, Y: -3}
		m, _ = nested.Medium(ctx, &s)
		Expect(m).To(BeIdenticalTo(outer))

		s.Position = r3.Vec{Z: 4.5}
		m, _ = nested.Medium(ctx, &s)
		Expect(m).To(BeNil())
	})

	It("rejects degenerate boxes", func() {
		_, err := geometry.NewNested(1, geometry.Box[*geometry.Tally]{Medium: inner})
		Expect(err).To(MatchError(geometry.ErrLayout))
	})

	It("tallies the path length in each medium", func() {
		ctx.Scheme = transport.SchemeStraight
		ctx.Events = transport.EventLimitDistance
		ctx.Limit.Distance = 100
		s := transport.NewState(-1, 10, r3.Vec{}, r3.Vec{Z: 1})

		ev, err := geometry.Survey(ctx, &s)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).To(Equal(transport.EventMedium))
		Expect(ctx.Events).To(Equal(transport.EventLimitDistance))

		tally := ctx.UserData
		Expect(tally.Media()).To(Equal([]string{"Air", "StandardRock"}))
		Expect(tally.Distance["StandardRock"]).To(BeNumerically("~", 1, 1e-6))
		Expect(tally.Distance["Air"]).To(BeNumerically("~", 3, 1e-6))
		Expect(tally.Grammage["StandardRock"]).To(BeNumerically("~", 2650, 1e-2))
		Expect(tally.Crossings).To(Equal(1))
		Expect(tally.Distance["StandardRock"] + tally.Distance["Air"]).To(BeNumerically("~", s.Distance, 1e-12))
	})

	It("merges tallies", func() {
		a, b := geometry.NewTally(), geometry.NewTally()
		a.Add("rock", 1, 2650)
		b.Add("rock", 2, 5300)
		b.Add("air", 1, 1.2)
		b.Crossings = 2
		a.Merge(b)
		Expect(a.Distance).To(HaveKeyWithValue("rock", 3.0))
		Expect(a.Grammage).To(HaveKeyWithValue("air", 1.2))
		Expect(a.Crossings).To(Equal(2))
	})
})
