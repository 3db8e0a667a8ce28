package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"

	"github.com/matforge/constitutive/behavior"
	"github.com/matforge/constitutive/state"
)

// Executor owns the device resources for one behavior/store pair: the
// compiled integration kernel and the pooled state buffers. It implements
// behavior.BatchKernel, so an integrator dispatches the whole point range as
// one launch and reads back per-point statuses.
type Executor struct {
	Device *gocca.OCCADevice

	desc    *behavior.Descriptor
	layout  state.Layout
	nPoints int

	kernel *gocca.OCCAKernel
	memory map[string]*gocca.OCCAMemory
	status []int64
}

// segment names double as pool keys; the order matches the kernel signature.
var segmentNames = []string{
	"prev_grad", "cur_grad",
	"prev_flux", "cur_flux",
	"prev_isv", "cur_isv",
	"props",
	"prev_ext", "cur_ext",
	"tangent",
}

// NewExecutor compiles the behavior's per-point OKL body for the store's
// point count and allocates the pooled device buffers. The source is built
// once; a quadrature change requires a new executor.
func NewExecutor(dev *gocca.OCCADevice, st *state.Store, body string) (*Executor, error) {
	if dev == nil {
		return nil, fmt.Errorf("device: nil device")
	}
	ex := &Executor{
		Device:  dev,
		desc:    st.Behavior,
		layout:  st.Layout,
		nPoints: st.NPoints,
		memory:  make(map[string]*gocca.OCCAMemory),
		status:  make([]int64, st.NPoints),
	}

	source := AssembleSource(st.Behavior, st.Layout, st.NPoints, body)

	// OCCA bug workaround carried over from host runners: OpenMP does not
	// get the default -O3 flag.
	var kernel *gocca.OCCAKernel
	var err error
	if dev.Mode() == "OpenMP" {
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = dev.BuildKernelFromString(source, kernelName, props)
	} else {
		kernel, err = dev.BuildKernelFromString(source, kernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("device: failed to build kernel for %q: %w", st.Behavior.Name, err)
	}
	ex.kernel = kernel

	for _, name := range segmentNames {
		ex.memory[name] = dev.Malloc(ex.segmentBytes(name), nil, nil)
	}
	ex.memory["status"] = dev.Malloc(int64(st.NPoints*8), nil, nil)

	return ex, nil
}

func (ex *Executor) segmentWidth(name string) int {
	l := ex.layout
	switch name {
	case "prev_grad", "cur_grad":
		return l.GradientWidth
	case "prev_flux", "cur_flux":
		return l.FluxWidth
	case "prev_isv", "cur_isv":
		return l.InternalWidth
	case "props":
		return l.PropertyWidth
	case "prev_ext", "cur_ext":
		return l.ExternalWidth
	case "tangent":
		return l.TangentWidth
	}
	return 0
}

// segmentBytes sizes a pooled buffer. Zero-width families still get one
// element so every kernel argument is a valid allocation.
func (ex *Executor) segmentBytes(name string) int64 {
	n := ex.nPoints * ex.segmentWidth(name)
	if n == 0 {
		n = 1
	}
	return int64(n * 8)
}

func (ex *Executor) hostSegments(b *behavior.Batch) map[string][]float64 {
	return map[string][]float64{
		"prev_grad": b.Prev.Gradients,
		"cur_grad":  b.Cur.Gradients,
		"prev_flux": b.Prev.Fluxes,
		"cur_flux":  b.Cur.Fluxes,
		"prev_isv":  b.Prev.Internal,
		"cur_isv":   b.Cur.Internal,
		"props":     b.Cur.Properties,
		"prev_ext":  b.Prev.External,
		"cur_ext":   b.Cur.External,
		"tangent":   b.Tangent,
	}
}

// IntegrateBatch copies the state in, launches the compiled kernel over
// [begin,end) and copies fluxes, internal variables, tangent and the
// per-point status array back. It implements behavior.BatchKernel.
func (ex *Executor) IntegrateBatch(b *behavior.Batch, begin, end int, statuses []int) int {
	host := ex.hostSegments(b)
	for _, name := range segmentNames {
		data := host[name]
		if len(data) == 0 {
			continue
		}
		ex.memory[name].CopyFrom(unsafe.Pointer(&data[0]), int64(len(data)*8))
	}

	args := make([]interface{}, 0, len(segmentNames)+4)
	for _, name := range segmentNames {
		args = append(args, ex.memory[name])
	}
	args = append(args, ex.memory["status"], b.Dt, int64(begin), int64(end))

	if err := ex.kernel.RunWithArgs(args...); err != nil {
		// A launch failure fails the whole batch; the previous state is
		// untouched and the caller sees a failed status.
		for i := range statuses {
			statuses[i] = behavior.StatusFailure
		}
		return behavior.StatusFailure
	}
	ex.Device.Finish()

	for _, name := range []string{"cur_flux", "cur_isv", "tangent"} {
		data := host[name]
		if len(data) == 0 {
			continue
		}
		ex.memory[name].CopyTo(unsafe.Pointer(&data[0]), int64(len(data)*8))
	}
	ex.memory["status"].CopyTo(unsafe.Pointer(&ex.status[0]), int64(ex.nPoints*8))

	agg := behavior.StatusSuccess
	for i := begin; i < end; i++ {
		s := int(ex.status[i])
		statuses[i-begin] = s
		if s < agg {
			agg = s
		}
	}
	return agg
}

// Free releases the kernel and all pooled device memory.
func (ex *Executor) Free() {
	if ex.kernel != nil {
		ex.kernel.Free()
	}
	for _, mem := range ex.memory {
		mem.Free()
	}
}
