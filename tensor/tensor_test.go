package tensor

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const tol = 1e-12

// rotZ90 maps e1 to e2 and e2 to -e1.
var rotZ90 = mat.NewDense(3, 3, []float64{
	0, -1, 0,
	1, 0, 0,
	0, 0, 1,
})

// rotX90 maps e2 to e3 and e3 to -e2; not in-plane for the 2D packings.
var rotX90 = mat.NewDense(3, 3, []float64{
	1, 0, 0,
	0, 0, -1,
	0, 1, 0,
})

func TestIdentity(t *testing.T) {
	m := Identity(3)
	r, c := m.Dims()
	if r != 6 || c != 6 {
		t.Fatalf("Identity(3) dims = %dx%d, want 6x6", r, c)
	}
	vals := []float64{1, 2, 3, 4, 5, 6}
	got := append([]float64(nil), vals...)
	Apply(m, got)
	for i := range vals {
		if got[i] != vals[i] {
			t.Fatalf("identity changed component %d: %v", i, got)
		}
	}
}

func TestDeviatoricProjector(t *testing.T) {
	p := DeviatoricProjector()

	t.Run("KillsHydrostatic", func(t *testing.T) {
		hyd := []float64{1, 1, 1, 0, 0, 0}
		Apply(p, hyd)
		for i, v := range hyd {
			if math.Abs(v) > tol {
				t.Errorf("component %d = %g, want 0", i, v)
			}
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		var pp mat.Dense
		pp.Mul(p, p)
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				if math.Abs(pp.At(i, j)-p.At(i, j)) > tol {
					t.Fatalf("P*P != P at (%d,%d)", i, j)
				}
			}
		}
	})

	t.Run("TracelessOutput", func(t *testing.T) {
		v := []float64{3, -1, 5, 2, 0.5, -2}
		Apply(p, v)
		if tr := v[0] + v[1] + v[2]; math.Abs(tr) > tol {
			t.Errorf("trace of deviator = %g, want 0", tr)
		}
	})
}

func TestRotationSym_KnownRotation(t *testing.T) {
	// Under a 90 degree rotation about z: t11 and t22 swap, t12 flips sign,
	// t23 picks up t13 and t13 picks up -t23.
	s := math.Sqrt2
	vals := []float64{1, 2, 3, 4 * s, 5 * s, 6 * s}
	want := []float64{2, 1, 3, -4 * s, 6 * s, -5 * s}

	op, ok := RotationSym(rotZ90, 6)
	if !ok {
		t.Fatal("RotationSym rejected a valid 3D rotation")
	}
	Apply(op, vals)
	for i := range want {
		if math.Abs(vals[i]-want[i]) > 1e-10 {
			t.Errorf("component %d = %g, want %g", i, vals[i], want[i])
		}
	}
}

func TestRotationSym_Orthogonal(t *testing.T) {
	// Mandel packing preserves the Frobenius inner product, so the packed
	// operator of any rotation is orthogonal.
	c, s := math.Cos(0.7), math.Sin(0.7)
	r := mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
	for _, dim := range []int{4, 6} {
		op, ok := RotationSym(r, dim)
		if !ok {
			t.Fatalf("dim %d: rejected in-plane rotation", dim)
		}
		var oto mat.Dense
		oto.Mul(op.T(), op)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				if math.Abs(oto.At(i, j)-want) > 1e-10 {
					t.Fatalf("dim %d: op^T op not identity at (%d,%d): %g", dim, i, j, oto.At(i, j))
				}
			}
		}
	}
}

func TestRotationFull_KnownRotation(t *testing.T) {
	// Packed full ordering [11,22,33,12,21,13,31,23,32] under the z rotation.
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	want := []float64{2, 1, 3, -5, -4, -8, -9, 6, 7}

	op, ok := RotationFull(rotZ90, 9)
	if !ok {
		t.Fatal("RotationFull rejected a valid 3D rotation")
	}
	Apply(op, vals)
	for i := range want {
		if math.Abs(vals[i]-want[i]) > 1e-10 {
			t.Errorf("component %d = %g, want %g", i, vals[i], want[i])
		}
	}
}

func TestRotation_2DRequiresInPlane(t *testing.T) {
	if _, ok := RotationSym(rotX90, 4); ok {
		t.Error("RotationSym(dim 4) accepted an out-of-plane rotation")
	}
	if _, ok := RotationFull(rotX90, 5); ok {
		t.Error("RotationFull(dim 5) accepted an out-of-plane rotation")
	}
	if _, ok := RotationSym(rotX90, 6); !ok {
		t.Error("RotationSym(dim 6) must accept any rotation")
	}
	if _, ok := RotationSym(rotZ90, 3); ok {
		t.Error("RotationSym accepted an invalid packed dimension")
	}
}

func TestRotation_InverseRoundTrip(t *testing.T) {
	c, s := math.Cos(0.3), math.Sin(0.3)
	r := mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
	op, ok := RotationSym(r, 4)
	if !ok {
		t.Fatal("rejected in-plane rotation")
	}
	orig := []float64{1.5, -2, 0.25, 3}
	vals := append([]float64(nil), orig...)
	Apply(op, vals)
	Apply(op.T(), vals)
	for i := range orig {
		if math.Abs(vals[i]-orig[i]) > 1e-10 {
			t.Errorf("component %d = %g after round trip, want %g", i, vals[i], orig[i])
		}
	}
}

func TestApplyCongruence(t *testing.T) {
	// 2x2 congruence against a hand-computed product.
	opA := mat.NewDense(2, 2, []float64{0, 1, 1, 0}) // swap rows
	opB := mat.NewDense(2, 2, []float64{2, 0, 0, 3}) // scale cols
	block := []float64{
		1, 2,
		3, 4,
	}
	// opA*B = [[3,4],[1,2]]; times opB^T scales col 0 by 2, col 1 by 3.
	want := []float64{
		6, 12,
		2, 6,
	}
	ApplyCongruence(opA, opB, block, 2, 2)
	for i := range want {
		if math.Abs(block[i]-want[i]) > tol {
			t.Errorf("block[%d] = %g, want %g", i, block[i], want[i])
		}
	}
}
