package behavior

import (
	"fmt"
)

// Descriptor is a loaded behavior: the resolved implementation handle plus
// the variable schema computed once at load time. It is immutable after
// construction apart from SetParameter, and is shared read-only by all
// integration calls.
type Descriptor struct {
	Library      string
	Name         string
	Hypothesis   Hypothesis
	FiniteStrain bool

	// Options are the finite-strain conventions recorded at load time.
	// Zero-valued for small-strain behaviors.
	Options Options

	impl   Implementation
	kernel Kernel
	params map[string]float64

	byKind map[Kind][]SchemaVariable
	blocks []TangentBlock
}

// LoadOption configures Load. Supplying any finite-strain option for a
// small-strain behavior is a load failure.
type LoadOption func(*loadConfig)

type loadConfig struct {
	opts         Options
	finiteStrain bool
}

// WithStressMeasure selects the finite-strain stress measure.
func WithStressMeasure(m StressMeasure) LoadOption {
	return func(c *loadConfig) {
		c.opts.StressMeasure = m
		c.finiteStrain = true
	}
}

// WithTangentConvention selects the finite-strain tangent operator variant.
func WithTangentConvention(t TangentConvention) LoadOption {
	return func(c *loadConfig) {
		c.opts.TangentConvention = t
		c.finiteStrain = true
	}
}

// Load resolves a behavior through the registry and builds its descriptor.
// The schema (sanitized names, sizes, tangent blocks) is computed here,
// exactly once. For finite-strain behaviors the stress-measure and tangent
// conventions default to PK1 and dPK1/dF when not supplied; for small-strain
// behaviors supplying them fails with ErrLoadFailure, as does an unresolvable
// (library, name) pair, or an option combination the behavior rejects.
func Load(library, name string, h Hypothesis, options ...LoadOption) (*Descriptor, error) {
	impl, ok := lookup(library, name)
	if !ok {
		return nil, fmt.Errorf("%w: behavior %q not found in library %q", ErrLoadFailure, name, library)
	}

	cfg := loadConfig{opts: DefaultOptions()}
	for _, o := range options {
		o(&cfg)
	}

	finite := impl.FiniteStrain()
	if cfg.finiteStrain && !finite {
		return nil, fmt.Errorf("%w: %q is not a finite-strain behavior but finite-strain options were supplied",
			ErrLoadFailure, name)
	}
	opts := Options{}
	if finite {
		opts = cfg.opts
	}

	d := &Descriptor{
		Library:      library,
		Name:         name,
		Hypothesis:   h,
		FiniteStrain: finite,
		Options:      opts,
		impl:         impl,
		params:       make(map[string]float64),
		byKind:       make(map[Kind][]SchemaVariable),
	}

	for _, v := range impl.Variables(opts) {
		d.byKind[v.Kind] = append(d.byKind[v.Kind], SchemaVariable{
			Name: sanitizeName(v.Name),
			Kind: v.Kind,
			Type: v.Type,
			Size: v.Type.Size(h),
		})
	}
	d.blocks = impl.TangentOperatorBlocks(h, opts)

	for k, v := range impl.ParameterDefaults() {
		d.params[k] = v
	}

	kernel, err := impl.NewKernel(h, opts, d.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrLoadFailure, name, err)
	}
	d.kernel = kernel

	return d, nil
}

// Kernel returns the integration kernel instantiated at load time.
func (d *Descriptor) Kernel() Kernel { return d.kernel }

// SetParameter overrides a scalar parameter. Parameters are constants fixed
// for the life of the behavior; the kernel reads the current value at
// integration time. Unknown names fail with ErrSchemaMismatch.
func (d *Descriptor) SetParameter(name string, value float64) error {
	if _, ok := d.impl.ParameterDefaults()[name]; !ok {
		return fmt.Errorf("%w: parameter %q not declared by %q", ErrSchemaMismatch, name, d.Name)
	}
	d.params[name] = value
	return nil
}

// ParameterDefault returns the declared default of a parameter.
func (d *Descriptor) ParameterDefault(name string) (float64, error) {
	v, ok := d.impl.ParameterDefaults()[name]
	if !ok {
		return 0, fmt.Errorf("%w: parameter %q not declared by %q", ErrSchemaMismatch, name, d.Name)
	}
	return v, nil
}

// VariablesOf returns the schema entries of one kind, in declaration order.
func (d *Descriptor) VariablesOf(kind Kind) []SchemaVariable {
	vars := d.byKind[kind]
	out := make([]SchemaVariable, len(vars))
	copy(out, vars)
	return out
}

// Names returns the sanitized names of one kind, in declaration order.
func (d *Descriptor) Names(kind Kind) []string {
	vars := d.byKind[kind]
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return names
}

// Sizes returns the per-point sizes of one kind, in declaration order.
func (d *Descriptor) Sizes(kind Kind) []int {
	vars := d.byKind[kind]
	sizes := make([]int, len(vars))
	for i, v := range vars {
		sizes[i] = v.Size
	}
	return sizes
}

// Width returns the summed per-point width of one kind.
func (d *Descriptor) Width(kind Kind) int {
	total := 0
	for _, v := range d.byKind[kind] {
		total += v.Size
	}
	return total
}

// Variables returns the union name-to-size mapping over gradients, fluxes
// and internal state variables.
func (d *Descriptor) Variables() map[string]int {
	out := make(map[string]int)
	for _, kind := range []Kind{Gradient, Flux, InternalStateVariable} {
		for _, v := range d.byKind[kind] {
			out[v.Name] = v.Size
		}
	}
	return out
}

// TangentBlocks returns the declared blocks keyed by their (A, B) names,
// each mapped to its flattened per-point size.
func (d *Descriptor) TangentBlocks() map[BlockKey]int {
	out := make(map[BlockKey]int, len(d.blocks))
	for _, b := range d.blocks {
		out[BlockKey{b.A, b.B}] = b.SizeA * b.SizeB
	}
	return out
}

// TangentBlockList returns the declared blocks in order.
func (d *Descriptor) TangentBlockList() []TangentBlock {
	out := make([]TangentBlock, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// TangentWidth returns the total flattened tangent size per point.
func (d *Descriptor) TangentWidth() int {
	total := 0
	for _, b := range d.blocks {
		total += b.SizeA * b.SizeB
	}
	return total
}

// HasInternalStateVariables reports whether the behavior declares any
// internal state variables.
func (d *Descriptor) HasInternalStateVariables() bool {
	return len(d.byKind[InternalStateVariable]) > 0
}

// Selectors derives the tangent-operator selector triple from the recorded
// convention: the consistent-tangent mode, the stress measure code and the
// tangent variant code. Small-strain behaviors only carry the mode; the
// measure and variant codes stay zero.
func (d *Descriptor) Selectors() [3]int {
	s := [3]int{4, 0, 0} // 4 requests the consistent tangent operator
	if d.FiniteStrain {
		s[1] = int(d.Options.StressMeasure)
		s[2] = int(d.Options.TangentConvention)
	}
	return s
}
