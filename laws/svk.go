package laws

import (
	"fmt"
	"math"

	"github.com/matforge/constitutive/behavior"
)

// SaintVenantKirchhoff is a finite-strain hyperelastic law, natively
// formulated in the second Piola-Kirchhoff stress conjugate to the
// Green-Lagrange strain. It is loaded with the PK2 stress measure and the
// dPK2/dE_GL tangent convention; other convention pairs are rejected at
// load time.
type SaintVenantKirchhoff struct{}

func (SaintVenantKirchhoff) FiniteStrain() bool { return true }

func (SaintVenantKirchhoff) Variables(opts behavior.Options) []behavior.Variable {
	fluxType := behavior.SymmetricTensor
	if opts.StressMeasure == behavior.PK1 {
		fluxType = behavior.Tensor
	}
	return []behavior.Variable{
		{Name: "DeformationGradient", Kind: behavior.Gradient, Type: behavior.Tensor},
		{Name: "Stress", Kind: behavior.Flux, Type: fluxType},
		{Name: "YoungModulus", Kind: behavior.MaterialProperty, Type: behavior.Scalar},
		{Name: "PoissonRatio", Kind: behavior.MaterialProperty, Type: behavior.Scalar},
		{Name: "Temperature", Kind: behavior.ExternalStateVariable, Type: behavior.Scalar},
	}
}

func (SaintVenantKirchhoff) TangentOperatorBlocks(h behavior.Hypothesis, _ behavior.Options) []behavior.TangentBlock {
	n := behavior.SymmetricTensor.Size(h)
	return []behavior.TangentBlock{{A: "Stress", B: "GreenLagrangeStrain", SizeA: n, SizeB: n}}
}

func (SaintVenantKirchhoff) ParameterDefaults() map[string]float64 {
	return map[string]float64{"epsilon": 1e-8}
}

func (SaintVenantKirchhoff) NewKernel(h behavior.Hypothesis, opts behavior.Options, params map[string]float64) (behavior.Kernel, error) {
	if opts.StressMeasure != behavior.PK2 || opts.TangentConvention != behavior.DPK2DEGL {
		return nil, fmt.Errorf("SaintVenantKirchhoffElasticity supports the pk2/dpk2_degl convention pair, got %s/%s",
			opts.StressMeasure, opts.TangentConvention)
	}
	if h == behavior.PlaneStress {
		return nil, fmt.Errorf("plane stress is not supported by SaintVenantKirchhoffElasticity")
	}
	return &svkKernel{
		is2D:   h.Is2D(),
		nSym:   behavior.SymmetricTensor.Size(h),
		params: params,
	}, nil
}

type svkKernel struct {
	is2D   bool
	nSym   int
	params map[string]float64
}

// Integrate evaluates S = lambda tr(E) I + 2 mu E with
// E = (F^T F - I) / 2, packing S and E in the Mandel convention.
func (k *svkKernel) Integrate(pt *behavior.Point) int {
	e := pt.MaterialProperties[0]
	nu := pt.MaterialProperties[1]
	lambda, mu := lameConstants(e, nu)

	f := unpackTensor(pt.Gradients, k.is2D)

	// E = (F^T F - I) / 2
	var egl [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c := 0.0
			for a := 0; a < 3; a++ {
				c += f[a][i] * f[a][j]
			}
			if i == j {
				c -= 1
			}
			egl[i][j] = c / 2
		}
	}

	tr := egl[0][0] + egl[1][1] + egl[2][2]
	sym := func(i, j int) float64 {
		s := 2 * mu * egl[i][j]
		if i == j {
			s += lambda * tr
		}
		return s
	}

	pt.Fluxes[0] = sym(0, 0)
	pt.Fluxes[1] = sym(1, 1)
	pt.Fluxes[2] = sym(2, 2)
	pt.Fluxes[3] = math.Sqrt2 * sym(0, 1)
	if !k.is2D {
		pt.Fluxes[4] = math.Sqrt2 * sym(1, 2)
		pt.Fluxes[5] = math.Sqrt2 * sym(0, 2)
	}

	if pt.Selectors[0] > 0 {
		// dS/dE_GL is the constant Hookean operator in the Mandel basis.
		writeElasticTangent(pt.Tangent, k.nSym, lambda, mu)
	}
	return behavior.StatusSuccess
}

// unpackTensor expands a packed deformation gradient into a 3x3 matrix.
// The 2D packing is [11,22,33,12,21], the 3D packing
// [11,22,33,12,21,13,31,23,32].
func unpackTensor(g []float64, is2D bool) [3][3]float64 {
	f := [3][3]float64{
		{g[0], g[3], 0},
		{g[4], g[1], 0},
		{0, 0, g[2]},
	}
	if !is2D {
		f[0][2] = g[5]
		f[2][0] = g[6]
		f[1][2] = g[7]
		f[2][1] = g[8]
	}
	return f
}
