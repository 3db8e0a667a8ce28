// Package state owns the double-buffered per-point constitutive state: the
// previous (last committed) and current buffers, the fixed offset layout
// computed once from a behavior's schema, and the name-keyed bridge between
// assembly code and the flat arrays.
package state

import (
	"github.com/matforge/constitutive/behavior"
)

// span locates one variable inside its family buffer.
type span struct {
	kind   behavior.Kind
	offset int
	size   int
}

// Layout is the offset map of a schema. It is computed once at allocation
// and never changes for the life of a store: assembly code addresses points
// and components by fixed offset across all calls.
type Layout struct {
	GradientWidth int
	FluxWidth     int
	InternalWidth int
	PropertyWidth int
	ExternalWidth int
	TangentWidth  int

	spans map[string]span
}

// NewLayout computes the per-family offsets from a descriptor's schema.
func NewLayout(d *behavior.Descriptor) Layout {
	l := Layout{spans: make(map[string]span)}

	families := []struct {
		kind  behavior.Kind
		width *int
	}{
		{behavior.Gradient, &l.GradientWidth},
		{behavior.Flux, &l.FluxWidth},
		{behavior.InternalStateVariable, &l.InternalWidth},
		{behavior.MaterialProperty, &l.PropertyWidth},
		{behavior.ExternalStateVariable, &l.ExternalWidth},
	}
	for _, f := range families {
		off := 0
		for _, v := range d.VariablesOf(f.kind) {
			l.spans[v.Name] = span{kind: f.kind, offset: off, size: v.Size}
			off += v.Size
		}
		*f.width = off
	}
	l.TangentWidth = d.TangentWidth()
	return l
}

// lookup returns the span of a named variable.
func (l Layout) lookup(name string) (span, bool) {
	s, ok := l.spans[name]
	return s, ok
}

// familyWidth returns the total per-point width of one kind.
func (l Layout) familyWidth(kind behavior.Kind) int {
	switch kind {
	case behavior.Gradient:
		return l.GradientWidth
	case behavior.Flux:
		return l.FluxWidth
	case behavior.InternalStateVariable:
		return l.InternalWidth
	case behavior.MaterialProperty:
		return l.PropertyWidth
	case behavior.ExternalStateVariable:
		return l.ExternalWidth
	}
	return 0
}

// Widths returns the per-point family widths in kernel form.
func (l Layout) Widths() behavior.FamilyWidths {
	return behavior.FamilyWidths{
		Gradients:  l.GradientWidth,
		Fluxes:     l.FluxWidth,
		Internal:   l.InternalWidth,
		Properties: l.PropertyWidth,
		External:   l.ExternalWidth,
		Tangent:    l.TangentWidth,
	}
}
