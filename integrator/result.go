package integrator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/matforge/constitutive/behavior"
)

// Result is the outcome of one batched integration call. Fluxes,
// InternalStateVariables and Tangent are views into the store's current
// buffers for the integrated range; they stay valid until the next
// integration or commit. A failed call still yields a well-formed result so
// the surrounding solver can reject the step.
type Result struct {
	// Fluxes is the current-state flux slice, one row per point.
	Fluxes []float64

	// InternalStateVariables is the current-state internal-variable slice,
	// empty when the behavior declares none.
	InternalStateVariables []float64

	// Tangent is the flattened tangent storage, one row of all declared
	// blocks per point.
	Tangent []float64

	// Status is the aggregate signal: the minimum point status. Values
	// below behavior.StatusSuccess mean at least one point failed.
	Status int

	// PointStatus carries one status per integrated point.
	PointStatus []int

	behavior *behavior.Descriptor
	begin    int
}

// OK reports whether every point integrated successfully.
func (r *Result) OK() bool {
	return r.Status >= behavior.StatusSuccess
}

// FailedPoints returns the store-relative indices of the points that failed.
func (r *Result) FailedPoints() []int {
	var out []int
	for i, s := range r.PointStatus {
		if s < behavior.StatusSuccess {
			out = append(out, r.begin+i)
		}
	}
	return out
}

// TangentBlock extracts one declared tangent block at one point of the
// integrated range as a SizeA x SizeB matrix.
func (r *Result) TangentBlock(point int, key behavior.BlockKey) (*mat.Dense, error) {
	if point < 0 || point >= len(r.PointStatus) {
		return nil, fmt.Errorf("point %d outside integrated range of %d points", point, len(r.PointStatus))
	}
	tw := r.behavior.TangentWidth()
	off := point * tw
	for _, b := range r.behavior.TangentBlockList() {
		n := b.SizeA * b.SizeB
		if (behavior.BlockKey{b.A, b.B}) == key {
			data := make([]float64, n)
			copy(data, r.Tangent[off:off+n])
			return mat.NewDense(b.SizeA, b.SizeB, data), nil
		}
		off += n
	}
	return nil, fmt.Errorf("%w: tangent block %v not declared by %q",
		behavior.ErrSchemaMismatch, key, r.behavior.Name)
}

// TangentAt returns the full flattened tangent row of one point.
func (r *Result) TangentAt(point int) []float64 {
	tw := r.behavior.TangentWidth()
	return r.Tangent[point*tw : (point+1)*tw]
}
