// Package tensor provides the small tensor-algebra helpers used by the
// rotation protocol and the reference laws: identities and projectors on the
// Mandel-packed symmetric-tensor space, and frame-rotation operators for
// packed tensor variables.
package tensor

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Identity returns the identity operator on the space of symmetric tensors
// of dimension d, i.e. a d(d+1)/2 square identity matrix.
func Identity(d int) *mat.Dense {
	n := d * (d + 1) / 2
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// DeviatoricProjector returns the 6x6 projector onto the deviatoric part of
// a Mandel-packed symmetric tensor: block-diag(K, I3) with
// K = I3 - (1/3) ones.
func DeviatoricProjector() *mat.Dense {
	m := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := -1.0 / 3.0
			if i == j {
				v = 2.0 / 3.0
			}
			m.Set(i, j, v)
		}
	}
	for i := 3; i < 6; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Component orderings of the packed representations. Symmetric tensors use
// the Mandel packing [11,22,33,s12,s23,s13] with sqrt2 factors on the shear
// components; full tensors use [11,22,33,12,21,13,31,23,32]. The 2D
// representations are the leading 4 and 5 components respectively.
var (
	symIndex  = [6][2]int{{0, 0}, {1, 1}, {2, 2}, {0, 1}, {1, 2}, {0, 2}}
	fullIndex = [9][2]int{{0, 0}, {1, 1}, {2, 2}, {0, 1}, {1, 0}, {0, 2}, {2, 0}, {1, 2}, {2, 1}}
)

// symBasis returns the k-th Mandel basis tensor as a 3x3 matrix.
func symBasis(k int) *mat.Dense {
	b := mat.NewDense(3, 3, nil)
	i, j := symIndex[k][0], symIndex[k][1]
	if i == j {
		b.Set(i, j, 1)
	} else {
		v := 1 / math.Sqrt2
		b.Set(i, j, v)
		b.Set(j, i, v)
	}
	return b
}

// fullBasis returns the k-th full-tensor basis element e_i (x) e_j.
func fullBasis(k int) *mat.Dense {
	b := mat.NewDense(3, 3, nil)
	b.Set(fullIndex[k][0], fullIndex[k][1], 1)
	return b
}

// rotationOperator projects T -> R T R^T onto the packed basis given by the
// basis generator, yielding the dim x dim operator on packed components.
func rotationOperator(r mat.Matrix, basis func(int) *mat.Dense, dim int) *mat.Dense {
	op := mat.NewDense(dim, dim, nil)
	var rot, tmp mat.Dense
	for k := 0; k < dim; k++ {
		tmp.Mul(r, basis(k))
		rot.Mul(&tmp, r.T())
		for l := 0; l < dim; l++ {
			// Frobenius projection onto the l-th basis element.
			bl := basis(l)
			s := 0.0
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					s += bl.At(i, j) * rot.At(i, j)
				}
			}
			op.Set(l, k, s)
		}
	}
	return op
}

// checkInPlane verifies that a rotation keeps the out-of-plane axis fixed,
// which is required for the truncated 2D representations to stay closed
// under the transform.
func checkInPlane(r mat.Matrix) bool {
	const tol = 1e-12
	return math.Abs(r.At(0, 2)) < tol && math.Abs(r.At(1, 2)) < tol &&
		math.Abs(r.At(2, 0)) < tol && math.Abs(r.At(2, 1)) < tol &&
		math.Abs(math.Abs(r.At(2, 2))-1) < tol
}

// RotationSym builds the operator that applies the 3x3 rotation r to a
// Mandel-packed symmetric tensor of the given packed dimension (4 or 6).
// For dim 4 the rotation must be in-plane.
func RotationSym(r mat.Matrix, dim int) (*mat.Dense, bool) {
	if dim != 4 && dim != 6 {
		return nil, false
	}
	if dim == 4 && !checkInPlane(r) {
		return nil, false
	}
	op := rotationOperator(r, symBasis, 6)
	if dim == 6 {
		return op, true
	}
	return truncate(op, 4), true
}

// RotationFull builds the operator that applies the 3x3 rotation r to a
// packed full tensor of the given packed dimension (5 or 9). For dim 5 the
// rotation must be in-plane.
func RotationFull(r mat.Matrix, dim int) (*mat.Dense, bool) {
	if dim != 5 && dim != 9 {
		return nil, false
	}
	if dim == 5 && !checkInPlane(r) {
		return nil, false
	}
	op := rotationOperator(r, fullBasis, 9)
	if dim == 9 {
		return op, true
	}
	return truncate(op, 5), true
}

func truncate(m *mat.Dense, n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}

// Apply multiplies the packed values in place: vals <- op * vals.
func Apply(op mat.Matrix, vals []float64) {
	n, _ := op.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < n; j++ {
			s += op.At(i, j) * vals[j]
		}
		out[i] = s
	}
	copy(vals, out)
}

// ApplyCongruence transforms the rows-by-cols block in place:
// block <- opA * block * opB^T. Used for tangent blocks whose row variable
// rotates with opA and whose column variable rotates with opB.
func ApplyCongruence(opA, opB mat.Matrix, block []float64, rows, cols int) {
	b := mat.NewDense(rows, cols, block)
	var tmp, out mat.Dense
	tmp.Mul(opA, b)
	out.Mul(&tmp, opB.T())
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			block[i*cols+j] = out.At(i, j)
		}
	}
}
