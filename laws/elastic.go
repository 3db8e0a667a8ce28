// Package laws provides the compiled-in reference behaviors registered under
// the "reference" library: a small-strain isotropic linear elastic law and a
// finite-strain Saint Venant-Kirchhoff law. They serve as integration
// oracles for tests and as usage examples; production material models are
// expected to arrive as external kernels.
package laws

import (
	"fmt"

	"github.com/matforge/constitutive/behavior"
)

// Library is the registry key the reference laws are published under.
const Library = "reference"

func init() {
	behavior.Register(Library, "LinearElasticIsotropic", LinearElasticIsotropic{})
	behavior.Register(Library, "SaintVenantKirchhoffElasticity", SaintVenantKirchhoff{})
}

// LinearElasticIsotropic is a small-strain Hookean law. Material properties
// are YoungModulus and PoissonRatio per point; it declares no internal state
// variables.
type LinearElasticIsotropic struct{}

func (LinearElasticIsotropic) FiniteStrain() bool { return false }

func (LinearElasticIsotropic) Variables(behavior.Options) []behavior.Variable {
	return []behavior.Variable{
		{Name: "Strain", Kind: behavior.Gradient, Type: behavior.SymmetricTensor},
		{Name: "Stress", Kind: behavior.Flux, Type: behavior.SymmetricTensor},
		{Name: "YoungModulus", Kind: behavior.MaterialProperty, Type: behavior.Scalar},
		{Name: "PoissonRatio", Kind: behavior.MaterialProperty, Type: behavior.Scalar},
		{Name: "Temperature", Kind: behavior.ExternalStateVariable, Type: behavior.Scalar},
	}
}

func (LinearElasticIsotropic) TangentOperatorBlocks(h behavior.Hypothesis, _ behavior.Options) []behavior.TangentBlock {
	n := behavior.SymmetricTensor.Size(h)
	return []behavior.TangentBlock{{A: "Stress", B: "Strain", SizeA: n, SizeB: n}}
}

func (LinearElasticIsotropic) ParameterDefaults() map[string]float64 {
	return map[string]float64{"epsilon": 1e-8}
}

func (LinearElasticIsotropic) NewKernel(h behavior.Hypothesis, _ behavior.Options, params map[string]float64) (behavior.Kernel, error) {
	if h == behavior.PlaneStress {
		return nil, fmt.Errorf("plane stress is not supported by LinearElasticIsotropic")
	}
	return &elasticKernel{n: behavior.SymmetricTensor.Size(h), params: params}, nil
}

type elasticKernel struct {
	n      int
	params map[string]float64
}

// Integrate evaluates sigma = lambda tr(eps) I + 2 mu eps in the Mandel
// packing, where the shear components already carry their sqrt2 factor so
// the shear stiffness is 2 mu on the diagonal.
func (k *elasticKernel) Integrate(pt *behavior.Point) int {
	e := pt.MaterialProperties[0]
	nu := pt.MaterialProperties[1]
	lambda, mu := lameConstants(e, nu)

	tr := pt.Gradients[0] + pt.Gradients[1] + pt.Gradients[2]
	for i := 0; i < k.n; i++ {
		s := 2 * mu * pt.Gradients[i]
		if i < 3 {
			s += lambda * tr
		}
		pt.Fluxes[i] = s
	}

	if pt.Selectors[0] > 0 {
		writeElasticTangent(pt.Tangent, k.n, lambda, mu)
	}
	return behavior.StatusSuccess
}

func lameConstants(e, nu float64) (lambda, mu float64) {
	lambda = e * nu / ((1 + nu) * (1 - 2*nu))
	mu = e / (2 * (1 + nu))
	return
}

// writeElasticTangent fills an n x n row-major block with
// lambda J + 2 mu I, J being ones over the leading 3x3.
func writeElasticTangent(block []float64, n int, lambda, mu float64) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := 0.0
			if i < 3 && j < 3 {
				v = lambda
			}
			if i == j {
				v += 2 * mu
			}
			block[i*n+j] = v
		}
	}
}
