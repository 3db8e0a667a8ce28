package behavior

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/matforge/constitutive/tensor"
)

// The rotation protocol transforms packed tensor variables between the
// global frame and a per-point material frame. Gradients rotate from the
// global into the material frame before integration; fluxes and tangent
// blocks rotate back out afterwards. Scalar components are left untouched.
// These are pure transforms: they never touch the state store, and callers
// choose when to apply them.

// rotationAt returns the 3x3 rotation for point i. rotation holds either a
// single row-major 3x3 matrix broadcast to every point, or one per point.
func rotationAt(rotation []float64, i, nPoints int) (*mat.Dense, error) {
	switch len(rotation) {
	case 9:
		return mat.NewDense(3, 3, rotation), nil
	case 9 * nPoints:
		return mat.NewDense(3, 3, rotation[9*i:9*(i+1)]), nil
	}
	return nil, fmt.Errorf("rotation data length %d: want 9 or %d", len(rotation), 9*nPoints)
}

// operatorFor builds the packed rotation operator for a variable of the
// given per-point size. Size 1 is scalar and yields nil.
func operatorFor(r *mat.Dense, size int) (*mat.Dense, error) {
	switch size {
	case 1:
		return nil, nil
	case 4, 6:
		op, ok := tensor.RotationSym(r, size)
		if !ok {
			return nil, fmt.Errorf("rotation is not in-plane for a 2D symmetric tensor")
		}
		return op, nil
	case 5, 9:
		op, ok := tensor.RotationFull(r, size)
		if !ok {
			return nil, fmt.Errorf("rotation is not in-plane for a 2D tensor")
		}
		return op, nil
	}
	return nil, fmt.Errorf("no rotation operator for variable size %d", size)
}

// rotateFamily applies per-variable rotation operators across all points of
// one flat family array. transpose selects the inverse transform
// (material back to global).
func (d *Descriptor) rotateFamily(kind Kind, vals, rotation []float64, transpose bool) error {
	width := d.Width(kind)
	if width == 0 {
		return nil
	}
	if len(vals)%width != 0 {
		return fmt.Errorf("values length %d not a multiple of the %s width %d", len(vals), kind, width)
	}
	nPoints := len(vals) / width
	vars := d.byKind[kind]

	for i := 0; i < nPoints; i++ {
		r, err := rotationAt(rotation, i, nPoints)
		if err != nil {
			return err
		}
		off := i * width
		for _, v := range vars {
			op, err := operatorFor(r, v.Size)
			if err != nil {
				return fmt.Errorf("%s %q: %w", kind, v.Name, err)
			}
			if op != nil {
				if transpose {
					tensor.Apply(op.T(), vals[off:off+v.Size])
				} else {
					tensor.Apply(op, vals[off:off+v.Size])
				}
			}
			off += v.Size
		}
	}
	return nil
}

// RotateGradients rotates a flat gradient array (nPoints rows of the
// gradient width) from the global into the material frame.
func (d *Descriptor) RotateGradients(vals, rotation []float64) error {
	return d.rotateFamily(Gradient, vals, rotation, false)
}

// RotateFluxes rotates a flat flux array from the material frame back into
// the global frame.
func (d *Descriptor) RotateFluxes(vals, rotation []float64) error {
	return d.rotateFamily(Flux, vals, rotation, true)
}

// RotateTangentBlocks rotates a flat tangent array (nPoints rows of the
// tangent width) from the material frame back into the global frame. Each
// block transforms by congruence, rows with the operator of its A variable
// and columns with the operator of its B variable.
func (d *Descriptor) RotateTangentBlocks(vals, rotation []float64) error {
	width := d.TangentWidth()
	if width == 0 {
		return nil
	}
	if len(vals)%width != 0 {
		return fmt.Errorf("tangent length %d not a multiple of the tangent width %d", len(vals), width)
	}
	nPoints := len(vals) / width

	for i := 0; i < nPoints; i++ {
		r, err := rotationAt(rotation, i, nPoints)
		if err != nil {
			return err
		}
		off := i * width
		for _, b := range d.blocks {
			opA, err := operatorFor(r, b.SizeA)
			if err != nil {
				return fmt.Errorf("tangent block %s/%s: %w", b.A, b.B, err)
			}
			opB, err := operatorFor(r, b.SizeB)
			if err != nil {
				return fmt.Errorf("tangent block %s/%s: %w", b.A, b.B, err)
			}
			block := vals[off : off+b.SizeA*b.SizeB]
			switch {
			case opA != nil && opB != nil:
				tensor.ApplyCongruence(opA.T(), opB.T(), block, b.SizeA, b.SizeB)
			case opA != nil:
				// Scalar columns: rotate each column vector independently.
				tensor.ApplyCongruence(opA.T(), identity(b.SizeB), block, b.SizeA, b.SizeB)
			case opB != nil:
				tensor.ApplyCongruence(identity(b.SizeA), opB.T(), block, b.SizeA, b.SizeB)
			}
			off += b.SizeA * b.SizeB
		}
	}
	return nil
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
