package behavior

// Point is the per-point view an integration kernel operates on. The Prev*
// slices belong to the previous (last committed) state and must not be
// written; kernels write Fluxes, Internal and, when Selectors[0] requests a
// consistent tangent, Tangent.
type Point struct {
	PrevGradients []float64
	Gradients     []float64

	PrevFluxes []float64
	Fluxes     []float64

	PrevInternal []float64
	Internal     []float64

	MaterialProperties []float64

	PrevExternal []float64
	External     []float64

	// Tangent is the flattened per-point tangent storage, one declared block
	// after another, each row-major.
	Tangent []float64

	// Selectors is the tangent-operator selector triple:
	// [0] integration mode (4 requests the consistent tangent),
	// [1] stress measure code, [2] tangent convention code.
	Selectors [3]int

	Dt float64
}

// Status values returned by integration kernels. Any value below
// StatusSuccess signals that the point failed to converge.
const (
	StatusSuccess = 1
	StatusFailure = -1
)

// Kernel integrates the constitutive law at a single material point.
// Implementations live outside this layer: compiled-in reference laws,
// device-built kernels, test stubs. A Kernel must not retain pt or its
// slices past the call.
type Kernel interface {
	Integrate(pt *Point) int
}

// FamilyWidths are the per-point scalar widths of each buffer family.
type FamilyWidths struct {
	Gradients  int
	Fluxes     int
	Internal   int
	Properties int
	External   int
	Tangent    int
}

// Buffers are the flat per-family state arrays for one time level, each laid
// out as nPoints rows of the family width.
type Buffers struct {
	Gradients  []float64
	Fluxes     []float64
	Internal   []float64
	Properties []float64
	External   []float64
}

// Batch is the whole-call view handed to batched kernels: both time levels,
// the tangent storage and the selector triple shared by all points. The Prev
// buffers are read-only during integration.
type Batch struct {
	NPoints   int
	Widths    FamilyWidths
	Prev      Buffers
	Cur       Buffers
	Tangent   []float64
	Selectors [3]int
	Dt        float64
}

// Point slices the batch into the per-point view for point i.
func (b *Batch) Point(i int) Point {
	w := b.Widths
	return Point{
		PrevGradients:      slicePoint(b.Prev.Gradients, i, w.Gradients),
		Gradients:          slicePoint(b.Cur.Gradients, i, w.Gradients),
		PrevFluxes:         slicePoint(b.Prev.Fluxes, i, w.Fluxes),
		Fluxes:             slicePoint(b.Cur.Fluxes, i, w.Fluxes),
		PrevInternal:       slicePoint(b.Prev.Internal, i, w.Internal),
		Internal:           slicePoint(b.Cur.Internal, i, w.Internal),
		MaterialProperties: slicePoint(b.Cur.Properties, i, w.Properties),
		PrevExternal:       slicePoint(b.Prev.External, i, w.External),
		External:           slicePoint(b.Cur.External, i, w.External),
		Tangent:            slicePoint(b.Tangent, i, w.Tangent),
		Selectors:          b.Selectors,
		Dt:                 b.Dt,
	}
}

func slicePoint(buf []float64, i, width int) []float64 {
	if width == 0 {
		return nil
	}
	return buf[i*width : (i+1)*width]
}

// BatchKernel is the richer collaborator contract: one call integrates the
// half-open point range [begin,end) and fills statuses (length end-begin)
// with one status per point. The return value is the aggregate status, the
// minimum over the range. Device-backed executors implement this so the
// whole range runs as a single kernel launch.
type BatchKernel interface {
	IntegrateBatch(b *Batch, begin, end int, statuses []int) int
}
