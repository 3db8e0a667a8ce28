package behavior

import (
	"fmt"
	"sync"
)

// Implementation is the contract a compiled-in behavior fulfills. It plays
// the role of the externally compiled shared library: it declares the
// variable schema, answers the finite-strain query, and instantiates the
// integration kernel for a loaded configuration.
type Implementation interface {
	// FiniteStrain reports whether the behavior is a standard finite-strain
	// law. Finite-strain laws are loaded with explicit stress-measure and
	// tangent-convention options.
	FiniteStrain() bool

	// Variables returns the ordered variable declaration under the given
	// options. The flux type of a finite-strain law may depend on the
	// stress measure in force.
	Variables(opts Options) []Variable

	// TangentOperatorBlocks returns the declared tangent blocks with their
	// per-point sizes resolved against the hypothesis and options.
	TangentOperatorBlocks(h Hypothesis, opts Options) []TangentBlock

	// ParameterDefaults returns the scalar parameter defaults declared by
	// the behavior.
	ParameterDefaults() map[string]float64

	// NewKernel instantiates the integration kernel. params is the live
	// parameter table of the descriptor; implementations read it at
	// integration time. Unsupported hypotheses or option combinations are
	// rejected here and surface as a load failure.
	NewKernel(h Hypothesis, opts Options, params map[string]float64) (Kernel, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Implementation)
)

func registryKey(library, name string) string {
	return library + "::" + name
}

// Register makes a behavior implementation available to Load under the
// (library, name) pair. The library key models the shared-object path of an
// externally compiled behavior collection. Registering the same pair twice
// panics.
func Register(library, name string, impl Implementation) {
	registryMu.Lock()
	defer registryMu.Unlock()
	k := registryKey(library, name)
	if _, ok := registry[k]; ok {
		panic(fmt.Sprintf("behavior %q already registered in library %q", name, library))
	}
	registry[k] = impl
}

func lookup(library, name string) (Implementation, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	impl, ok := registry[registryKey(library, name)]
	return impl, ok
}
