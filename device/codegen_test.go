package device

import (
	"strings"
	"testing"

	"github.com/matforge/constitutive/behavior"
	"github.com/matforge/constitutive/state"

	_ "github.com/matforge/constitutive/laws"
)

func planeStrainElastic(t *testing.T) (*behavior.Descriptor, state.Layout) {
	t.Helper()
	d, err := behavior.Load("reference", "LinearElasticIsotropic", behavior.PlaneStrain)
	if err != nil {
		t.Fatal(err)
	}
	return d, state.NewLayout(d)
}

func TestGeneratePreamble(t *testing.T) {
	d, l := planeStrainElastic(t)
	src := GeneratePreamble(d, l, 1000)

	for _, want := range []string{
		"typedef double real_t;",
		"#define GRAD_W 4",
		"#define FLUX_W 4",
		"#define ISV_W 0",
		"#define PROP_W 2",
		"#define EXT_W 1",
		"#define TGT_W 16",
		"#define SEL_MODE 4",
		"#define SEL_MEASURE 0",
		"#define SEL_TANGENT 0",
		"#define NPOINTS 1000",
		"#define BLOCK 256",
		"#define NBLOCKS 4",
		"#define GRAD(buf, q)",
		"#define TGT(buf, q)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("preamble missing %q", want)
		}
	}
}

func TestGeneratePreamble_FiniteStrainSelectors(t *testing.T) {
	d, err := behavior.Load("reference", "SaintVenantKirchhoffElasticity", behavior.PlaneStrain,
		behavior.WithStressMeasure(behavior.PK2),
		behavior.WithTangentConvention(behavior.DPK2DEGL))
	if err != nil {
		t.Fatal(err)
	}
	src := GeneratePreamble(d, state.NewLayout(d), 10)

	for _, want := range []string{
		"#define GRAD_W 5",
		"#define FLUX_W 4",
		"#define SEL_MEASURE 1",
		"#define SEL_TANGENT 1",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("preamble missing %q", want)
		}
	}
}

func TestAssembleSource(t *testing.T) {
	d, l := planeStrainElastic(t)
	body := "status[q] = 1;\n"
	src := AssembleSource(d, l, 300, body)

	for _, want := range []string{
		"@kernel void integrateBatch(",
		"const real_t* prev_grad",
		"real_t* cur_flux",
		"int_t* status",
		"const int_t begin",
		"for (int blk = 0; blk < NBLOCKS; ++blk; @outer)",
		"for (int tid = 0; tid < BLOCK; ++tid; @inner)",
		"if (q >= begin && q < end)",
		"status[q] = 1;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("source missing %q", want)
		}
	}

	// The preamble must precede the kernel so the defines are in scope.
	if strings.Index(src, "#define GRAD_W") > strings.Index(src, "@kernel") {
		t.Error("preamble emitted after the kernel")
	}

	// Buffers the kernel writes must not be const.
	for _, sig := range []string{"const real_t* cur_flux", "const real_t* cur_isv", "const real_t* tangent", "const int_t* status"} {
		if strings.Contains(src, sig) {
			t.Errorf("writable parameter declared const: %q", sig)
		}
	}
}

func TestIndent(t *testing.T) {
	got := indent("a;\n\nb;\n", "  ")
	want := "  a;\n\n  b;"
	if got != want {
		t.Errorf("indent = %q, want %q", got, want)
	}
}
