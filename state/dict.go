package state

import (
	"fmt"

	"github.com/matforge/constitutive/behavior"
)

// The dictionary bridge converts between name-keyed partial variable
// mappings, as assembly code sees the state, and the flat offset-addressed
// buffers the integration call requires. It covers gradients, fluxes and
// internal state variables; properties and parameters have their own write
// paths on the store and descriptor.

var dictKinds = []behavior.Kind{
	behavior.Gradient,
	behavior.Flux,
	behavior.InternalStateVariable,
}

// SetFromDict writes the named subsets present in dict into the selected
// slab. Schema names absent from dict are left untouched: partial updates
// are the contract here, not an error. Keys in dict that the schema does
// not declare are ignored. Each value is one block of the variable size
// (broadcast) or nPoints consecutive blocks.
func (st *Store) SetFromDict(which Which, dict map[string][]float64) error {
	s := st.slab(which)
	for _, kind := range dictKinds {
		for _, v := range st.Behavior.VariablesOf(kind) {
			values, ok := dict[v.Name]
			if !ok {
				continue
			}
			if err := st.setVariable(s, v.Name, values); err != nil {
				return fmt.Errorf("set %s state: %w", which, err)
			}
		}
	}
	return nil
}

// AsDict returns a name-keyed copy of every gradient, flux and internal
// state variable in the selected slab, each value holding nPoints blocks of
// the variable size. The returned slices are copies; later writes to the
// store do not alias them.
func (st *Store) AsDict(which Which) map[string][]float64 {
	s := st.slab(which)
	out := make(map[string][]float64)
	for _, kind := range dictKinds {
		buf := s.family(kind)
		width := st.Layout.familyWidth(kind)
		for _, v := range st.Behavior.VariablesOf(kind) {
			sp, _ := st.Layout.lookup(v.Name)
			vals := make([]float64, st.NPoints*sp.size)
			for i := 0; i < st.NPoints; i++ {
				copy(vals[i*sp.size:(i+1)*sp.size],
					buf[i*width+sp.offset:i*width+sp.offset+sp.size])
			}
			out[v.Name] = vals
		}
	}
	return out
}
