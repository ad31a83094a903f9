package tables

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/integrate/quad"
)

func buildRock(t *testing.T) *Table {
	t.Helper()
	tbl, err := Build(Muon(), []MaterialDef{StandardRock(), Air()}, DefaultOptions())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return tbl
}

func TestBuildInvalid(t *testing.T) {
	rock := StandardRock()
	tests := []struct {
		name string
		sp   Species
		defs []MaterialDef
		opts Options
		want error
	}{
		{"no materials", Muon(), nil, DefaultOptions(), ErrDef},
		{"duplicate", Muon(), []MaterialDef{rock, rock}, DefaultOptions(), ErrDef},
		{"unnamed", Muon(), []MaterialDef{{Ionisation: 1, RadiationLength: 1}}, DefaultOptions(), ErrDef},
		{"zero ionisation", Muon(), []MaterialDef{{Name: "x", RadiationLength: 1}}, DefaultOptions(), ErrDef},
		{"bad cutoff", Muon(), []MaterialDef{rock}, Options{Cutoff: 1, KineticMin: 1e-3, KineticMax: 1, Points: 10}, ErrOptions},
		{"bad range", Muon(), []MaterialDef{rock}, Options{Cutoff: 0.1, KineticMin: 1, KineticMax: 1, Points: 10}, ErrOptions},
		{"few points", Muon(), []MaterialDef{rock}, Options{Cutoff: 0.1, KineticMin: 1e-3, KineticMax: 1, Points: 2}, ErrOptions},
		{"massless", Species{Name: "x"}, []MaterialDef{rock}, DefaultOptions(), ErrOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.sp, tt.defs, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMaterialLookup(t *testing.T) {
	tbl := buildRock(t)

	id, err := tbl.MaterialIndex("Air")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if id != 1 {
		t.Errorf("expected index 1, got %d", id)
	}
	name, err := tbl.MaterialName(0)
	if err != nil || name != "StandardRock" {
		t.Errorf("expected StandardRock, got %q (%v)", name, err)
	}
	if _, err := tbl.MaterialIndex("Unobtainium"); !errors.Is(err, ErrMaterial) {
		t.Errorf("expected ErrMaterial, got %v", err)
	}
	if _, err := tbl.MaterialName(7); !errors.Is(err, ErrMaterial) {
		t.Errorf("expected ErrMaterial, got %v", err)
	}
}

func TestGrammageMonotonic(t *testing.T) {
	tbl := buildRock(t)
	for _, loss := range []Loss{CSDA, Restricted} {
		prev := 0.0
		for _, k := range tbl.KineticNodes()[1:] {
			x := tbl.Grammage(loss, 0, k)
			if x <= prev {
				t.Fatalf("%s: range not increasing at K=%g (%g <= %g)", loss, k, x, prev)
			}
			prev = x
		}
	}
}

func TestRestrictedRangeLonger(t *testing.T) {
	tbl := buildRock(t)
	k := 1e4
	if tbl.Grammage(Restricted, 0, k) <= tbl.Grammage(CSDA, 0, k) {
		t.Error("restricted range should exceed the CSDA range")
	}
}

func TestInverseConsistency(t *testing.T) {
	tbl := buildRock(t)
	for _, k := range []float64{1e-3, 0.5, 1, 37.2, 1e3, 2.5e5} {
		x := tbl.Grammage(CSDA, 0, k)
		got := tbl.KineticFromGrammage(CSDA, 0, x)
		if math.Abs(got-k)/k > 1e-9 {
			t.Errorf("K=%g: inverse gave %g", k, got)
		}
		tm := tbl.ProperTime(CSDA, 0, k)
		got = tbl.KineticFromTime(CSDA, 0, tm)
		if math.Abs(got-k)/k > 1e-9 {
			t.Errorf("K=%g: time inverse gave %g", k, got)
		}
	}
}

func TestClampOutsideTable(t *testing.T) {
	tbl := buildRock(t)
	kmax := tbl.KineticMax()
	if got := tbl.Grammage(CSDA, 0, 10*kmax); got != tbl.MaxGrammage(CSDA, 0) {
		t.Errorf("expected clamped range %g, got %g", tbl.MaxGrammage(CSDA, 0), got)
	}
	if got := tbl.KineticFromGrammage(CSDA, 0, 2*tbl.MaxGrammage(CSDA, 0)); got != kmax {
		t.Errorf("expected clamped kinetic %g, got %g", kmax, got)
	}
	if got := tbl.KineticFromGrammage(CSDA, 0, -1); got != 0 {
		t.Errorf("expected 0 for negative grammage, got %g", got)
	}
}

func TestRangeMatchesQuadrature(t *testing.T) {
	tbl := buildRock(t)
	k0, k1 := 10.0, 100.0
	want := quad.Fixed(func(k float64) float64 {
		return 1 / tbl.StoppingPower(CSDA, 0, k)
	}, k0, k1, 64, nil, 0)
	got := tbl.Grammage(CSDA, 0, k1) - tbl.Grammage(CSDA, 0, k0)
	if math.Abs(got-want)/want > 1e-3 {
		t.Errorf("expected range difference %g, got %g", want, got)
	}
}

func TestStoppingPowerMinimumIonising(t *testing.T) {
	tbl := buildRock(t)
	// dE/dX of a 1 GeV muon in rock is close to the ionisation plateau,
	// a few MeV cm^2/g.
	s := tbl.StoppingPower(CSDA, 0, 1) * 1e4
	if s < 1.5 || s > 3.5 {
		t.Errorf("expected ~2 MeV cm^2/g, got %g", s)
	}
}

func TestHardCrossSection(t *testing.T) {
	tbl := buildRock(t)

	// below the cutoff no hard transfer is kinematically possible
	low := 0.04 * tbl.Mass() / (1 - 0.04)
	if cs := tbl.CrossSection(0, low); cs != 0 {
		t.Errorf("expected no hard losses at K=%g, got %g", low, cs)
	}
	if cs := tbl.CrossSection(0, 1e3); cs <= 0 {
		t.Errorf("expected positive cross section, got %g", cs)
	}

	k := 1e3
	for _, u := range []float64{0, 0.25, 0.5, 0.999} {
		q := tbl.SampleLoss(0, k, u)
		nu := q / (k + tbl.Mass())
		if nu < tbl.Cutoff()-1e-12 || q > k {
			t.Errorf("u=%g: sampled loss %g out of range", u, q)
		}
	}
}

func TestAdjointGain(t *testing.T) {
	tbl := buildRock(t)
	k := 10.0
	if cs := tbl.AdjointCrossSection(0, k); cs <= 0 {
		t.Fatalf("expected positive adjoint cross section, got %g", cs)
	}
	for _, u := range []float64{0, 0.5, 0.999} {
		q := tbl.SampleGain(0, k, u)
		ei := k + q + tbl.Mass()
		if q/ei < tbl.Cutoff()-1e-9 {
			t.Errorf("u=%g: gain %g below the cutoff", u, q)
		}
		if k+q > tbl.KineticMax()+1e-6 {
			t.Errorf("u=%g: gain %g beyond the table", u, q)
		}
	}
	if cs := tbl.AdjointCrossSection(0, tbl.KineticMax()); cs != 0 {
		t.Errorf("expected no gain at the top of the table, got %g", cs)
	}
}

func TestScatteringDecreasesWithEnergy(t *testing.T) {
	tbl := buildRock(t)
	if tbl.Scattering(0, 1) <= tbl.Scattering(0, 10) {
		t.Error("scattering should decrease with energy")
	}
	if tbl.Scattering(0, 0) != 0 {
		t.Error("expected no scattering at rest")
	}
}

func BenchmarkGrammage(b *testing.B) {
	tbl, err := Build(Muon(), []MaterialDef{StandardRock()}, DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tbl.KineticFromGrammage(CSDA, 0, tbl.Grammage(CSDA, 0, 123.4))
	}
}
