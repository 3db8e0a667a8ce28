// Package integrator drives the batched constitutive integration call:
// it pushes new gradients into the current state, derives the tangent
// selector flags from the loaded convention, dispatches the external kernel
// over all points, and collects fluxes, internal variables, tangent blocks
// and the per-point status.
package integrator

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/matforge/constitutive/behavior"
	"github.com/matforge/constitutive/state"
)

// Integrator binds one state store to one integration kernel. The behavior
// descriptor is shared read-only; a single store must not have more than one
// in-flight Integrate call.
type Integrator struct {
	store   *state.Store
	kernel  behavior.Kernel
	batch   behavior.BatchKernel
	log     *zap.Logger
	workers int
}

// Option configures an Integrator.
type Option func(*Integrator)

// WithKernel overrides the kernel instantiated at behavior load time, e.g.
// with a device-backed batch executor.
func WithKernel(k behavior.Kernel) Option {
	return func(it *Integrator) { it.kernel = k }
}

// WithBatchKernel installs a whole-range kernel (the richer collaborator
// contract with per-point statuses).
func WithBatchKernel(k behavior.BatchKernel) Option {
	return func(it *Integrator) { it.batch = k }
}

// WithLogger installs a logger for the warning-level failure channel.
func WithLogger(log *zap.Logger) Option {
	return func(it *Integrator) { it.log = log }
}

// WithWorkers sets the number of host goroutines used for per-point
// dispatch. Points are independent, so any positive count is valid.
func WithWorkers(n int) Option {
	return func(it *Integrator) {
		if n > 0 {
			it.workers = n
		}
	}
}

// New builds an integrator over a store. By default it uses the kernel the
// behavior descriptor instantiated at load time and fans points out over
// GOMAXPROCS goroutines.
func New(store *state.Store, opts ...Option) (*Integrator, error) {
	it := &Integrator{
		store:   store,
		kernel:  store.Behavior.Kernel(),
		log:     zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(it)
	}
	if it.batch == nil {
		if bk, ok := it.kernel.(behavior.BatchKernel); ok {
			it.batch = bk
		}
	}
	if it.kernel == nil && it.batch == nil {
		return nil, fmt.Errorf("integrator: no kernel available for behavior %q", store.Behavior.Name)
	}
	return it, nil
}

// Integrate runs the constitutive update over every point in the store.
func (it *Integrator) Integrate(newGradients []float64, dt float64) (*Result, error) {
	return it.IntegrateRange(newGradients, dt, 0, it.store.NPoints)
}

// IntegrateRange runs the constitutive update over the half-open point range
// [begin,end). newGradients holds (end-begin) rows of the gradient width and
// is written into the current-state gradient slice before dispatch.
//
// Only the current slab and the tangent buffer are mutated; the previous
// slab remains the last known-good state. Kernel failure is not an error:
// the returned result carries the status and the caller decides whether to
// reject the step. The error return covers misuse only (bad range, wrong
// gradient length).
func (it *Integrator) IntegrateRange(newGradients []float64, dt float64, begin, end int) (*Result, error) {
	st := it.store
	if begin < 0 || end > st.NPoints || begin >= end {
		return nil, fmt.Errorf("integrator: invalid point range [%d,%d) for %d points", begin, end, st.NPoints)
	}
	gw := st.Layout.GradientWidth
	n := end - begin
	if len(newGradients) != n*gw {
		return nil, fmt.Errorf("integrator: gradients length %d, want %d points x width %d = %d",
			len(newGradients), n, gw, n*gw)
	}

	// Step 1: write the new gradients into the current state.
	copy(st.CurrentSlab().Gradients[begin*gw:end*gw], newGradients)

	// Steps 2-3: size the tangent storage and derive the selector triple
	// from the convention recorded at load time.
	st.EnsureTangent()
	selectors := st.Behavior.Selectors()
	batch := st.Batch(dt, selectors)

	// Step 4: dispatch the kernel over the range.
	statuses := make([]int, n)
	if it.batch != nil {
		it.batch.IntegrateBatch(batch, begin, end, statuses)
	} else {
		it.dispatch(batch, begin, end, statuses)
	}

	// Step 5: inspect the status. Failure is surfaced, never raised.
	agg := behavior.StatusSuccess
	failed := 0
	first := -1
	for i, s := range statuses {
		if s < agg {
			agg = s
		}
		if s < behavior.StatusSuccess {
			failed++
			if first < 0 {
				first = begin + i
			}
		}
	}
	if failed > 0 {
		it.log.Warn("integration of constitutive law failed",
			zap.String("behavior", st.Behavior.Name),
			zap.Int("failed_points", failed),
			zap.Int("first_failed", first),
			zap.Int("range_begin", begin),
			zap.Int("range_end", end),
		)
	}

	// Steps 6-7: the tangent storage is already one flat row per point;
	// return views over the integrated range.
	fw := st.Layout.FluxWidth
	iw := st.Layout.InternalWidth
	tw := st.Layout.TangentWidth

	res := &Result{
		behavior:    st.Behavior,
		Fluxes:      st.CurrentSlab().Fluxes[begin*fw : end*fw],
		Status:      agg,
		PointStatus: statuses,
		begin:       begin,
	}
	if iw > 0 {
		res.InternalStateVariables = st.CurrentSlab().Internal[begin*iw : end*iw]
	} else {
		res.InternalStateVariables = []float64{}
	}
	if tw > 0 {
		res.Tangent = st.Tangent()[begin*tw : end*tw]
	}
	return res, nil
}

// dispatch fans the per-point kernel out over the worker pool. Points are
// mutually independent, so workers stride the range with no ordering or
// synchronization beyond the final barrier.
func (it *Integrator) dispatch(batch *behavior.Batch, begin, end int, statuses []int) {
	workers := it.workers
	if n := end - begin; workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := begin + w; i < end; i += workers {
				pt := batch.Point(i)
				statuses[i-begin] = it.kernel.Integrate(&pt)
			}
		}(w)
	}
	wg.Wait()
}
