package integrator

import (
	"math"
	"testing"

	"github.com/matforge/constitutive/behavior"
	"github.com/matforge/constitutive/state"

	_ "github.com/matforge/constitutive/laws"
)

const tol = 1e-8

func elasticStore(t *testing.T, nPoints int) *state.Store {
	t.Helper()
	d, err := behavior.Load("reference", "LinearElasticIsotropic", behavior.PlaneStrain)
	if err != nil {
		t.Fatal(err)
	}
	st, err := state.Allocate(d, nPoints)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetMaterialProperty("YoungModulus", []float64{2e5}); err != nil {
		t.Fatal(err)
	}
	if err := st.SetMaterialProperty("PoissonRatio", []float64{0.3}); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestIntegrate_ElasticClosedForm(t *testing.T) {
	st := elasticStore(t, 3)
	it, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	// Uniaxial strain eps11 = 1e-3 at every point.
	eps := 1e-3
	grads := []float64{
		eps, 0, 0, 0,
		eps, 0, 0, 0,
		eps, 0, 0, 0,
	}
	res, err := it.Integrate(grads, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.Status)
	}

	lambda := 2e5 * 0.3 / (1.3 * 0.4)
	mu := 2e5 / (2 * 1.3)
	want := []float64{(lambda + 2*mu) * eps, lambda * eps, lambda * eps, 0}
	for p := 0; p < 3; p++ {
		for i := 0; i < 4; i++ {
			if got := res.Fluxes[p*4+i]; math.Abs(got-want[i]) > tol {
				t.Errorf("point %d stress[%d] = %g, want %g", p, i, got, want[i])
			}
		}
	}

	blk, err := res.TangentBlock(0, behavior.BlockKey{"Stress", "Strain"})
	if err != nil {
		t.Fatal(err)
	}
	if got := blk.At(0, 0); math.Abs(got-(lambda+2*mu)) > tol {
		t.Errorf("tangent(0,0) = %g, want %g", got, lambda+2*mu)
	}
	if got := blk.At(0, 1); math.Abs(got-lambda) > tol {
		t.Errorf("tangent(0,1) = %g, want %g", got, lambda)
	}
	if got := blk.At(3, 3); math.Abs(got-2*mu) > tol {
		t.Errorf("tangent(3,3) = %g, want %g", got, 2*mu)
	}

	if _, err := res.TangentBlock(0, behavior.BlockKey{"Stress", "Nope"}); err == nil {
		t.Error("expected an error for an undeclared tangent block")
	}
}

func TestIntegrate_SaintVenantKirchhoffSimpleShear(t *testing.T) {
	d, err := behavior.Load("reference", "SaintVenantKirchhoffElasticity", behavior.PlaneStrain,
		behavior.WithStressMeasure(behavior.PK2),
		behavior.WithTangentConvention(behavior.DPK2DEGL))
	if err != nil {
		t.Fatal(err)
	}
	st, err := state.Allocate(d, 2)
	if err != nil {
		t.Fatal(err)
	}
	st.SetMaterialProperty("YoungModulus", []float64{2e5})
	st.SetMaterialProperty("PoissonRatio", []float64{0.3})

	it, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	// Simple shear F12 = 1: F = I + e1 (x) e2, packed [11,22,33,12,21].
	f := []float64{1, 1, 1, 1, 0}
	res, err := it.Integrate(append(append([]float64(nil), f...), f...), 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.Status)
	}

	// E_GL = [[0, 1/2, 0], [1/2, 1/2, 0], [0, 0, 0]],
	// S = lambda tr(E) I + 2 mu E.
	lambda := 2e5 * 0.3 / (1.3 * 0.4)
	mu := 2e5 / (2 * 1.3)
	want := []float64{
		lambda / 2,
		lambda/2 + mu,
		lambda / 2,
		math.Sqrt2 * mu,
	}
	for p := 0; p < 2; p++ {
		for i := 0; i < 4; i++ {
			if got := res.Fluxes[p*4+i]; math.Abs(got-want[i]) > 1e-6 {
				t.Errorf("point %d S[%d] = %g, want %g", p, i, got, want[i])
			}
		}
	}

	// The tangent block is dS/dE_GL, 4x4 even though the gradient is a full
	// 5-component tensor.
	blk, err := res.TangentBlock(1, behavior.BlockKey{"Stress", "GreenLagrangeStrain"})
	if err != nil {
		t.Fatal(err)
	}
	r, c := blk.Dims()
	if r != 4 || c != 4 {
		t.Fatalf("tangent block dims = %dx%d, want 4x4", r, c)
	}
	if got := blk.At(0, 0); math.Abs(got-(lambda+2*mu)) > tol {
		t.Errorf("tangent(0,0) = %g, want %g", got, lambda+2*mu)
	}
}

func TestIntegrate_PointsAreIndependent(t *testing.T) {
	// Integrating all points at once and one point at a time must produce
	// identical fluxes.
	grads := []float64{
		1e-3, 0, 0, 0,
		-2e-3, 1e-3, 0, 0.5e-3,
		0, 0, 0, 2e-3,
		3e-3, -1e-3, 0, -0.5e-3,
	}

	stAll := elasticStore(t, 4)
	itAll, err := New(stAll, WithWorkers(3))
	if err != nil {
		t.Fatal(err)
	}
	resAll, err := itAll.Integrate(grads, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	stOne := elasticStore(t, 4)
	itOne, err := New(stOne)
	if err != nil {
		t.Fatal(err)
	}
	// Visit the points out of order.
	for _, p := range []int{2, 0, 3, 1} {
		if _, err := itOne.IntegrateRange(grads[p*4:(p+1)*4], 1.0, p, p+1); err != nil {
			t.Fatal(err)
		}
	}

	for i := range resAll.Fluxes {
		if resAll.Fluxes[i] != stOne.CurrentSlab().Fluxes[i] {
			t.Fatalf("flux %d differs between batch and per-point integration", i)
		}
	}
}

func TestIntegrate_NullIncrementIsStable(t *testing.T) {
	st := elasticStore(t, 2)
	it, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	grads := []float64{1e-3, 2e-3, 0, -1e-3, 0, 1e-3, 0, 0}
	res1, err := it.Integrate(grads, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	first := append([]float64(nil), res1.Fluxes...)
	st.Commit()

	// Re-integrating with unchanged gradients reproduces the state exactly.
	res2, err := it.Integrate(grads, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if res2.Fluxes[i] != first[i] {
			t.Fatalf("flux %d changed on a null increment", i)
		}
	}
}

// failingKernel fails every point whose shear component is negative.
type failingKernel struct{}

func (failingKernel) Integrate(pt *behavior.Point) int {
	if pt.Gradients[3] < 0 {
		return behavior.StatusFailure
	}
	for i := range pt.Fluxes {
		pt.Fluxes[i] = pt.Gradients[i]
	}
	return behavior.StatusSuccess
}

func TestIntegrate_FailureIsSignaledNotRaised(t *testing.T) {
	st := elasticStore(t, 3)

	// Seed and commit a known previous state.
	itSeed, err := New(st)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := itSeed.Integrate(make([]float64, 12), 1.0); err != nil {
		t.Fatal(err)
	}
	st.Commit()
	prevGrads := append([]float64(nil), st.PreviousSlab().Gradients...)
	prevFluxes := append([]float64(nil), st.PreviousSlab().Fluxes...)

	it, err := New(st, WithKernel(failingKernel{}), WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	grads := []float64{
		0, 0, 0, 1,
		0, 0, 0, -1,
		0, 0, 0, 1,
	}
	res, err := it.Integrate(grads, 1.0)
	if err != nil {
		t.Fatalf("kernel failure must not surface as an error, got %v", err)
	}

	if res.OK() {
		t.Fatal("expected a failed aggregate status")
	}
	if res.Status != behavior.StatusFailure {
		t.Errorf("aggregate status = %d, want %d", res.Status, behavior.StatusFailure)
	}
	if fp := res.FailedPoints(); len(fp) != 1 || fp[0] != 1 {
		t.Errorf("failed points = %v, want [1]", fp)
	}
	if res.PointStatus[0] != behavior.StatusSuccess || res.PointStatus[2] != behavior.StatusSuccess {
		t.Errorf("point statuses = %v", res.PointStatus)
	}

	// The previous slab is the rollback state and must be untouched.
	for i := range prevGrads {
		if st.PreviousSlab().Gradients[i] != prevGrads[i] {
			t.Fatal("previous gradients mutated by a failing integration")
		}
	}
	for i := range prevFluxes {
		if st.PreviousSlab().Fluxes[i] != prevFluxes[i] {
			t.Fatal("previous fluxes mutated by a failing integration")
		}
	}
}

// recordingBatchKernel implements the whole-range contract and records the
// call it received.
type recordingBatchKernel struct {
	begin, end int
	calls      int
}

func (k *recordingBatchKernel) IntegrateBatch(b *behavior.Batch, begin, end int, statuses []int) int {
	k.calls++
	k.begin, k.end = begin, end
	for i := begin; i < end; i++ {
		pt := b.Point(i)
		copy(pt.Fluxes, pt.Gradients)
		statuses[i-begin] = behavior.StatusSuccess
	}
	return behavior.StatusSuccess
}

func TestIntegrate_BatchKernelGetsOneCall(t *testing.T) {
	st := elasticStore(t, 4)
	bk := &recordingBatchKernel{}
	it, err := New(st, WithBatchKernel(bk))
	if err != nil {
		t.Fatal(err)
	}

	grads := make([]float64, 8)
	grads[0] = 0.5
	res, err := it.IntegrateRange(grads, 1.0, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if bk.calls != 1 || bk.begin != 1 || bk.end != 3 {
		t.Fatalf("batch kernel saw calls=%d range [%d,%d), want one call over [1,3)", bk.calls, bk.begin, bk.end)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.Status)
	}
	if res.Fluxes[0] != 0.5 {
		t.Errorf("flux view does not start at the range begin: %v", res.Fluxes[:4])
	}
}

func TestIntegrate_Misuse(t *testing.T) {
	st := elasticStore(t, 2)
	it, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("WrongGradientLength", func(t *testing.T) {
		if _, err := it.Integrate(make([]float64, 7), 1.0); err == nil {
			t.Error("expected an error for a wrong gradient length")
		}
	})

	t.Run("BadRange", func(t *testing.T) {
		if _, err := it.IntegrateRange(make([]float64, 4), 1.0, 2, 1); err == nil {
			t.Error("expected an error for an inverted range")
		}
		if _, err := it.IntegrateRange(make([]float64, 4), 1.0, -1, 0); err == nil {
			t.Error("expected an error for a negative begin")
		}
		if _, err := it.IntegrateRange(make([]float64, 12), 1.0, 0, 3); err == nil {
			t.Error("expected an error for an end past the store")
		}
	})
}
