package state

import (
	"fmt"

	"github.com/matforge/constitutive/behavior"
)

// Which selects one of the two state buffers.
type Which int

const (
	Previous Which = iota
	Current
)

func (w Which) String() string {
	if w == Previous {
		return "previous"
	}
	return "current"
}

// Slab holds the flat state arrays of one time level, one contiguous array
// per variable family, each laid out as nPoints rows of the family width.
type Slab struct {
	Gradients  []float64
	Fluxes     []float64
	Internal   []float64
	Properties []float64
	External   []float64
}

func newSlab(n int, l Layout) Slab {
	return Slab{
		Gradients:  make([]float64, n*l.GradientWidth),
		Fluxes:     make([]float64, n*l.FluxWidth),
		Internal:   make([]float64, n*l.InternalWidth),
		Properties: make([]float64, n*l.PropertyWidth),
		External:   make([]float64, n*l.ExternalWidth),
	}
}

func (s *Slab) copyFrom(o *Slab) {
	copy(s.Gradients, o.Gradients)
	copy(s.Fluxes, o.Fluxes)
	copy(s.Internal, o.Internal)
	copy(s.Properties, o.Properties)
	copy(s.External, o.External)
}

func (s *Slab) family(kind behavior.Kind) []float64 {
	switch kind {
	case behavior.Gradient:
		return s.Gradients
	case behavior.Flux:
		return s.Fluxes
	case behavior.InternalStateVariable:
		return s.Internal
	case behavior.MaterialProperty:
		return s.Properties
	case behavior.ExternalStateVariable:
		return s.External
	}
	return nil
}

// Store is the material-point state manager for one behavior over a fixed
// set of quadrature points. It owns the previous and current slabs and the
// tangent-operator storage. A store persists across all nonlinear iterations
// and time steps; only a quadrature or mesh change requires reallocation.
type Store struct {
	Behavior *behavior.Descriptor
	NPoints  int
	Layout   Layout

	prev, cur Slab
	tangent   []float64
}

// Allocate builds the store for nPoints quadrature points. The tangent
// buffer starts empty; its shape depends on the finite-strain convention in
// force and it is sized on first request.
func Allocate(d *behavior.Descriptor, nPoints int) (*Store, error) {
	if nPoints <= 0 {
		return nil, fmt.Errorf("state: nPoints must be positive, got %d", nPoints)
	}
	l := NewLayout(d)
	return &Store{
		Behavior: d,
		NPoints:  nPoints,
		Layout:   l,
		prev:     newSlab(nPoints, l),
		cur:      newSlab(nPoints, l),
	}, nil
}

func (st *Store) slab(w Which) *Slab {
	if w == Previous {
		return &st.prev
	}
	return &st.cur
}

// PreviousSlab returns the last committed state. It is never written by an
// integration call; only Commit overwrites it.
func (st *Store) PreviousSlab() *Slab { return &st.prev }

// CurrentSlab returns the working state mutated by integration.
func (st *Store) CurrentSlab() *Slab { return &st.cur }

// Tangent returns the tangent-operator storage, nPoints rows of the tangent
// width, or nil if it has not been requested yet.
func (st *Store) Tangent() []float64 { return st.tangent }

// EnsureTangent sizes the tangent buffer to nPoints x tangentWidth if it has
// not been allocated yet, and returns it.
func (st *Store) EnsureTangent() []float64 {
	if st.tangent == nil && st.Layout.TangentWidth > 0 {
		st.tangent = make([]float64, st.NPoints*st.Layout.TangentWidth)
	}
	return st.tangent
}

// Commit copies the current state into the previous state. This is the
// advance-time-step hook driven by the surrounding solver after an accepted
// step; the integration call itself never performs it.
func (st *Store) Commit() {
	st.prev.copyFrom(&st.cur)
}

// setVariable writes values into one named variable of one slab. values is
// either one block of the variable size, broadcast to all points, or
// nPoints consecutive blocks.
func (st *Store) setVariable(s *Slab, name string, values []float64) error {
	sp, ok := st.Layout.lookup(name)
	if !ok {
		return fmt.Errorf("%w: variable %q not declared by %q",
			behavior.ErrSchemaMismatch, name, st.Behavior.Name)
	}
	buf := s.family(sp.kind)
	width := st.Layout.familyWidth(sp.kind)

	switch len(values) {
	case sp.size:
		for i := 0; i < st.NPoints; i++ {
			copy(buf[i*width+sp.offset:i*width+sp.offset+sp.size], values)
		}
	case sp.size * st.NPoints:
		for i := 0; i < st.NPoints; i++ {
			copy(buf[i*width+sp.offset:i*width+sp.offset+sp.size],
				values[i*sp.size:(i+1)*sp.size])
		}
	default:
		return fmt.Errorf("variable %q: values length %d, want %d (broadcast) or %d (per point)",
			name, len(values), sp.size, sp.size*st.NPoints)
	}
	return nil
}

// SetMaterialProperty writes a material property into both state slabs.
// Properties are not time-varying across the two buffers, so unlike state
// variables this always targets previous and current together. A single
// block broadcasts to every point. Unknown names fail with
// ErrSchemaMismatch.
func (st *Store) SetMaterialProperty(name string, values []float64) error {
	sp, ok := st.Layout.lookup(name)
	if !ok || sp.kind != behavior.MaterialProperty {
		return fmt.Errorf("%w: material property %q not declared by %q",
			behavior.ErrSchemaMismatch, name, st.Behavior.Name)
	}
	if err := st.setVariable(&st.prev, name, values); err != nil {
		return err
	}
	return st.setVariable(&st.cur, name, values)
}

// SetExternalStateVariable writes an external state variable into the
// selected slab. A single block broadcasts to every point.
func (st *Store) SetExternalStateVariable(name string, values []float64, which Which) error {
	sp, ok := st.Layout.lookup(name)
	if !ok || sp.kind != behavior.ExternalStateVariable {
		return fmt.Errorf("%w: external state variable %q not declared by %q",
			behavior.ErrSchemaMismatch, name, st.Behavior.Name)
	}
	return st.setVariable(st.slab(which), name, values)
}

// Batch builds the whole-call kernel view over this store. The previous
// slab is exposed read-only by contract.
func (st *Store) Batch(dt float64, selectors [3]int) *behavior.Batch {
	return &behavior.Batch{
		NPoints: st.NPoints,
		Widths:  st.Layout.Widths(),
		Prev: behavior.Buffers{
			Gradients:  st.prev.Gradients,
			Fluxes:     st.prev.Fluxes,
			Internal:   st.prev.Internal,
			Properties: st.prev.Properties,
			External:   st.prev.External,
		},
		Cur: behavior.Buffers{
			Gradients:  st.cur.Gradients,
			Fluxes:     st.cur.Fluxes,
			Internal:   st.cur.Internal,
			Properties: st.cur.Properties,
			External:   st.cur.External,
		},
		Tangent:   st.EnsureTangent(),
		Selectors: selectors,
		Dt:        dt,
	}
}
