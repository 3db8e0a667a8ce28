// matinfo loads a material definition, resolves its behavior and prints the
// variable schema, buffer layout and tangent blocks the behavior declares.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/matforge/constitutive/behavior"
	"github.com/matforge/constitutive/config"
	_ "github.com/matforge/constitutive/laws"
	"github.com/matforge/constitutive/state"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to the material definition YAML")
		nPoints    = pflag.IntP("points", "n", 1, "number of quadrature points to lay out")
	)
	pflag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *configPath == "" {
		log.Fatal("missing --config")
	}

	mtl, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load material definition", zap.Error(err))
	}
	desc, err := mtl.Open()
	if err != nil {
		log.Fatal("failed to load behavior", zap.Error(err))
	}
	st, err := state.Allocate(desc, *nPoints)
	if err != nil {
		log.Fatal("failed to allocate state", zap.Error(err))
	}
	if err := mtl.Apply(st); err != nil {
		log.Fatal("failed to apply material definition", zap.Error(err))
	}

	fmt.Printf("behavior      %s (library %s)\n", desc.Name, desc.Library)
	fmt.Printf("hypothesis    %s\n", desc.Hypothesis)
	if desc.FiniteStrain {
		fmt.Printf("finite strain %s / %s\n", desc.Options.StressMeasure, desc.Options.TangentConvention)
	} else {
		fmt.Println("finite strain no")
	}

	kinds := []behavior.Kind{
		behavior.Gradient,
		behavior.Flux,
		behavior.InternalStateVariable,
		behavior.MaterialProperty,
		behavior.ExternalStateVariable,
	}
	for _, kind := range kinds {
		vars := desc.VariablesOf(kind)
		if len(vars) == 0 {
			continue
		}
		fmt.Printf("\n%s (width %d):\n", kind, desc.Width(kind))
		off := 0
		for _, v := range vars {
			fmt.Printf("  [%2d:%2d] %s\n", off, off+v.Size, v.Name)
			off += v.Size
		}
	}

	blocks := desc.TangentBlockList()
	if len(blocks) > 0 {
		fmt.Printf("\ntangent blocks (width %d):\n", desc.TangentWidth())
		for _, b := range blocks {
			fmt.Printf("  d%s/d%s  %dx%d\n", b.A, b.B, b.SizeA, b.SizeB)
		}
	}

	fmt.Printf("\nstate buffers: %d points, %d+%d+%d scalars per point\n",
		st.NPoints, st.Layout.GradientWidth, st.Layout.FluxWidth, st.Layout.InternalWidth)
}
