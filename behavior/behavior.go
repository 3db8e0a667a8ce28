// Package behavior describes externally provided constitutive laws: the
// variable schema a loaded behavior declares, the finite-strain conventions
// it was loaded under, and the kernel contract used to integrate it at a
// batch of material points.
package behavior

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the construction-time failure taxonomy. Integration
// failure is not an error at this layer; it is reported through the result
// status (see the integrator package).
var (
	// ErrLoadFailure indicates the behavior library/name/hypothesis could not
	// be resolved, or the requested finite-strain options are incompatible
	// with the behavior.
	ErrLoadFailure = errors.New("behavior: load failure")

	// ErrSchemaMismatch indicates a variable, parameter or property name not
	// declared by the behavior.
	ErrSchemaMismatch = errors.New("behavior: schema mismatch")
)

// Hypothesis is the geometric modelling hypothesis a behavior is integrated
// under. It fixes the per-point size of tensorial variables.
type Hypothesis int

const (
	PlaneStrain Hypothesis = iota
	PlaneStress
	Axisymmetric
	Tridimensional
)

func (h Hypothesis) String() string {
	switch h {
	case PlaneStrain:
		return "plane_strain"
	case PlaneStress:
		return "plane_stress"
	case Axisymmetric:
		return "axisymmetric"
	case Tridimensional:
		return "3d"
	}
	return fmt.Sprintf("Hypothesis(%d)", int(h))
}

// ParseHypothesis maps the configuration-file spelling to a Hypothesis.
func ParseHypothesis(s string) (Hypothesis, error) {
	switch s {
	case "plane_strain":
		return PlaneStrain, nil
	case "plane_stress":
		return PlaneStress, nil
	case "axisymmetric":
		return Axisymmetric, nil
	case "3d":
		return Tridimensional, nil
	}
	return 0, fmt.Errorf("unknown modelling hypothesis %q", s)
}

// Is2D reports whether the hypothesis reduces tensor variables to their
// two-dimensional representation.
func (h Hypothesis) Is2D() bool {
	return h != Tridimensional
}

// VariableType is the tensorial nature of a declared variable. The per-point
// scalar size follows from the type and the modelling hypothesis.
type VariableType int

const (
	Scalar VariableType = iota
	SymmetricTensor
	Tensor
)

// Size returns the number of scalar components one variable of this type
// occupies per point under the given hypothesis. Symmetric tensors use the
// Mandel packing [11,22,33,sqrt2*12,(sqrt2*23,sqrt2*13)], full tensors the
// packing [11,22,33,12,21,(13,31,23,32)].
func (t VariableType) Size(h Hypothesis) int {
	switch t {
	case Scalar:
		return 1
	case SymmetricTensor:
		if h.Is2D() {
			return 4
		}
		return 6
	case Tensor:
		if h.Is2D() {
			return 5
		}
		return 9
	}
	return 0
}

// Kind classifies a declared variable.
type Kind int

const (
	Gradient Kind = iota
	Flux
	InternalStateVariable
	MaterialProperty
	Parameter
	ExternalStateVariable
)

func (k Kind) String() string {
	switch k {
	case Gradient:
		return "gradient"
	case Flux:
		return "flux"
	case InternalStateVariable:
		return "internal_state_variable"
	case MaterialProperty:
		return "material_property"
	case Parameter:
		return "parameter"
	case ExternalStateVariable:
		return "external_state_variable"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Variable is a single entry of a behavior's declaration, before hypothesis
// resolution.
type Variable struct {
	Name string
	Kind Kind
	Type VariableType
}

// SchemaVariable is a declared variable with its name sanitized and its size
// resolved against the loaded hypothesis.
type SchemaVariable struct {
	Name string
	Kind Kind
	Type VariableType
	Size int
}

// StressMeasure selects the finite-strain stress convention. The constant
// values are the selector codes passed to integration kernels.
type StressMeasure int

const (
	Cauchy StressMeasure = iota // 0 - Cauchy
	PK2                         // 1 - PK2
	PK1                         // 2 - PK1
)

func (m StressMeasure) String() string {
	switch m {
	case Cauchy:
		return "cauchy"
	case PK2:
		return "pk2"
	case PK1:
		return "pk1"
	}
	return fmt.Sprintf("StressMeasure(%d)", int(m))
}

// ParseStressMeasure maps the configuration-file spelling to a StressMeasure.
func ParseStressMeasure(s string) (StressMeasure, error) {
	switch s {
	case "cauchy":
		return Cauchy, nil
	case "pk2":
		return PK2, nil
	case "pk1":
		return PK1, nil
	}
	return 0, fmt.Errorf("unknown stress measure %q", s)
}

// TangentConvention selects which tangent operator variant a finite-strain
// behavior returns. The constant values are the selector codes passed to
// integration kernels.
type TangentConvention int

const (
	DCauchyDF TangentConvention = iota // 0 - dCauchy/dF
	DPK2DEGL                           // 1 - dPK2/dE_GL
	DPK1DF                             // 2 - dPK1/dF
)

func (t TangentConvention) String() string {
	switch t {
	case DCauchyDF:
		return "dcauchy_df"
	case DPK2DEGL:
		return "dpk2_degl"
	case DPK1DF:
		return "dpk1_df"
	}
	return fmt.Sprintf("TangentConvention(%d)", int(t))
}

// ParseTangentConvention maps the configuration-file spelling to a
// TangentConvention.
func ParseTangentConvention(s string) (TangentConvention, error) {
	switch s {
	case "dcauchy_df":
		return DCauchyDF, nil
	case "dpk2_degl":
		return DPK2DEGL, nil
	case "dpk1_df":
		return DPK1DF, nil
	}
	return 0, fmt.Errorf("unknown tangent convention %q", s)
}

// Options are the finite-strain conventions recorded at load time. Ignored
// for small-strain behaviors.
type Options struct {
	StressMeasure     StressMeasure
	TangentConvention TangentConvention
}

// DefaultOptions are the conventions used when a finite-strain behavior is
// loaded without explicit options: first Piola-Kirchhoff stress and dPK1/dF.
func DefaultOptions() Options {
	return Options{StressMeasure: PK1, TangentConvention: DPK1DF}
}

// TangentBlock is one declared tangent-operator block: the derivative of A
// with respect to B, flattened row-major to SizeA*SizeB scalars per point.
type TangentBlock struct {
	A     string
	B     string
	SizeA int
	SizeB int
}

// BlockKey identifies a tangent block by its (A, B) variable names.
type BlockKey [2]string

// sanitizeName strips bracket characters from variable names. Downstream
// symbolic systems disallow them. Applied exactly once, at schema
// construction.
func sanitizeName(name string) string {
	return strings.NewReplacer("[", "", "]", "").Replace(name)
}
