// Package device executes a behavior's integration kernel on a gocca device:
// the whole point range runs as a single kernel launch over pooled device
// buffers, and a per-point status array comes back with the results. It is
// the richer batched-kernel collaborator; host-side reference laws cover the
// per-point contract.
package device

import (
	"fmt"
	"strings"

	"github.com/matforge/constitutive/behavior"
	"github.com/matforge/constitutive/state"
)

// blockSize is the @inner extent of the generated kernel. 256 keeps CUDA
// and OpenCL work-group limits satisfied.
const blockSize = 256

// kernelName is the entry point of every generated integration kernel.
const kernelName = "integrateBatch"

// GeneratePreamble emits the typedefs and width/selector defines the kernel
// body compiles against. Selector codes are baked in at build time because
// they are fixed by the convention recorded on the descriptor.
func GeneratePreamble(d *behavior.Descriptor, l state.Layout, nPoints int) string {
	var sb strings.Builder

	sb.WriteString("typedef double real_t;\n")
	sb.WriteString("typedef long int_t;\n\n")

	sel := d.Selectors()
	sb.WriteString(fmt.Sprintf("#define GRAD_W %d\n", l.GradientWidth))
	sb.WriteString(fmt.Sprintf("#define FLUX_W %d\n", l.FluxWidth))
	sb.WriteString(fmt.Sprintf("#define ISV_W %d\n", l.InternalWidth))
	sb.WriteString(fmt.Sprintf("#define PROP_W %d\n", l.PropertyWidth))
	sb.WriteString(fmt.Sprintf("#define EXT_W %d\n", l.ExternalWidth))
	sb.WriteString(fmt.Sprintf("#define TGT_W %d\n", l.TangentWidth))
	sb.WriteString(fmt.Sprintf("#define SEL_MODE %d\n", sel[0]))
	sb.WriteString(fmt.Sprintf("#define SEL_MEASURE %d\n", sel[1]))
	sb.WriteString(fmt.Sprintf("#define SEL_TANGENT %d\n", sel[2]))
	sb.WriteString(fmt.Sprintf("#define NPOINTS %d\n", nPoints))
	sb.WriteString(fmt.Sprintf("#define BLOCK %d\n", blockSize))
	sb.WriteString(fmt.Sprintf("#define NBLOCKS %d\n\n", (nPoints+blockSize-1)/blockSize))

	// Per-point segment access macros, one per state family.
	sb.WriteString("#define GRAD(buf, q) ((buf) + (q) * GRAD_W)\n")
	sb.WriteString("#define FLUX(buf, q) ((buf) + (q) * FLUX_W)\n")
	sb.WriteString("#define ISV(buf, q) ((buf) + (q) * ISV_W)\n")
	sb.WriteString("#define PROP(buf, q) ((buf) + (q) * PROP_W)\n")
	sb.WriteString("#define EXT(buf, q) ((buf) + (q) * EXT_W)\n")
	sb.WriteString("#define TGT(buf, q) ((buf) + (q) * TGT_W)\n\n")

	return sb.String()
}

// KernelSignature returns the fixed parameter list of the generated kernel.
// The previous-state buffers are const: integration never writes them.
func KernelSignature() string {
	params := []string{
		"const real_t* prev_grad",
		"const real_t* cur_grad",
		"const real_t* prev_flux",
		"real_t* cur_flux",
		"const real_t* prev_isv",
		"real_t* cur_isv",
		"const real_t* props",
		"const real_t* prev_ext",
		"const real_t* cur_ext",
		"real_t* tangent",
		"int_t* status",
		"const real_t dt",
		"const int_t begin",
		"const int_t end",
	}
	return strings.Join(params, ",\n\t")
}

// AssembleSource wraps a per-point OKL body in the batched @kernel loop.
// The body sees the point index q, the per-point segment pointers through
// the access macros, dt, and the selector defines; it must write FLUX, ISV
// and TGT segments for its point and set status[q].
func AssembleSource(d *behavior.Descriptor, l state.Layout, nPoints int, body string) string {
	var sb strings.Builder
	sb.WriteString(GeneratePreamble(d, l, nPoints))
	sb.WriteString(fmt.Sprintf("@kernel void %s(\n\t%s\n) {\n", kernelName, KernelSignature()))
	sb.WriteString("\tfor (int blk = 0; blk < NBLOCKS; ++blk; @outer) {\n")
	sb.WriteString("\t\tfor (int tid = 0; tid < BLOCK; ++tid; @inner) {\n")
	sb.WriteString("\t\t\tconst int q = blk * BLOCK + tid;\n")
	sb.WriteString("\t\t\tif (q >= begin && q < end) {\n")
	sb.WriteString(indent(body, "\t\t\t\t"))
	sb.WriteString("\n\t\t\t}\n\t\t}\n\t}\n}\n")
	return sb.String()
}

func indent(body, prefix string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
