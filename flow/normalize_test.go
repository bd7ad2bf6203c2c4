package flow

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNormalizeMagnitudes(t *testing.T) {
	vectors := []r3.Vector{
		{X: 2},
		{Y: -4},
		{X: 3, Y: 0, Z: 5.196152422706632}, // magnitude 6, mixed direction
	}
	got := NormalizeMagnitudes(vectors)
	test.That(t, len(got), test.ShouldEqual, 3)

	// magnitudes 2, 4, 6 land on 0, 0.5, 1
	test.That(t, got[0].Norm(), test.ShouldAlmostEqual, 0.)
	test.That(t, got[1].Norm(), test.ShouldAlmostEqual, 0.5)
	test.That(t, got[2].Norm(), test.ShouldAlmostEqual, 1.)

	// non-zero outputs keep their direction
	for i := 1; i < 3; i++ {
		wantDir := vectors[i].Normalize()
		gotDir := got[i].Normalize()
		test.That(t, gotDir.X, test.ShouldAlmostEqual, wantDir.X)
		test.That(t, gotDir.Y, test.ShouldAlmostEqual, wantDir.Y)
		test.That(t, gotDir.Z, test.ShouldAlmostEqual, wantDir.Z)
	}

	// the input is untouched
	test.That(t, vectors[0], test.ShouldResemble, r3.Vector{X: 2})
}

func TestNormalizeMagnitudesUniform(t *testing.T) {
	// equal magnitudes leave nothing to stretch
	vectors := []r3.Vector{{X: 3}, {Y: 3}, {Z: -3}}
	got := NormalizeMagnitudes(vectors)
	test.That(t, got, test.ShouldResemble, vectors)

	single := NormalizeMagnitudes([]r3.Vector{{X: 0.7, Y: -0.7}})
	test.That(t, single, test.ShouldResemble, []r3.Vector{{X: 0.7, Y: -0.7}})
}

func TestNormalizeMagnitudesZeros(t *testing.T) {
	vectors := []r3.Vector{{}, {X: 2}, {X: 4}}
	got := NormalizeMagnitudes(vectors)
	test.That(t, got[0], test.ShouldResemble, r3.Vector{})
	test.That(t, got[1].Norm(), test.ShouldAlmostEqual, 0.5)
	test.That(t, got[2].Norm(), test.ShouldAlmostEqual, 1.)
	// directions of the non-zero vectors survive
	test.That(t, got[1].X, test.ShouldBeGreaterThan, 0.)
	test.That(t, got[2].X, test.ShouldBeGreaterThan, 0.)

	empty := NormalizeMagnitudes(nil)
	test.That(t, len(empty), test.ShouldEqual, 0)
}
