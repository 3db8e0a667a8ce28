// Package config loads material definitions from YAML files: which behavior
// to load from which library, under which hypothesis and finite-strain
// conventions, and the property, parameter and external-state values to
// apply to a freshly allocated state store.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matforge/constitutive/behavior"
	"github.com/matforge/constitutive/state"
)

// defaultTemperature is applied to a declared Temperature external state
// variable when the definition does not set one.
const defaultTemperature = 293.15

// Material is one material definition.
type Material struct {
	// Library is the registry key of the behavior collection (the
	// shared-object path of an externally compiled behavior).
	Library string `yaml:"library"`

	// Behaviour is the behavior name inside the library.
	Behaviour string `yaml:"behaviour"`

	// Hypothesis is the modelling hypothesis: plane_strain, plane_stress,
	// axisymmetric or 3d.
	Hypothesis string `yaml:"hypothesis"`

	// StressMeasure and TangentOperator select the finite-strain
	// conventions. Leave empty for small-strain behaviors or to accept the
	// pk1/dpk1_df defaults.
	StressMeasure   string `yaml:"stress_measure,omitempty"`
	TangentOperator string `yaml:"tangent_operator,omitempty"`

	// MaterialProperties are uniform scalar property values, keyed by the
	// declared property names.
	MaterialProperties map[string]float64 `yaml:"material_properties,omitempty"`

	// Parameters override declared parameter defaults.
	Parameters map[string]float64 `yaml:"parameters,omitempty"`

	// ExternalStateVariables are uniform external state values applied to
	// both state buffers.
	ExternalStateVariables map[string]float64 `yaml:"external_state_variables,omitempty"`
}

// Load reads and validates a material definition. Unknown YAML fields are
// rejected.
func Load(path string) (*Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a material definition from YAML bytes.
func Parse(data []byte) (*Material, error) {
	var m Material
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the required fields and the enum spellings.
func (m *Material) Validate() error {
	if m.Library == "" {
		return fmt.Errorf("library must be set")
	}
	if m.Behaviour == "" {
		return fmt.Errorf("behaviour must be set")
	}
	if _, err := behavior.ParseHypothesis(m.Hypothesis); err != nil {
		return err
	}
	if m.StressMeasure != "" {
		if _, err := behavior.ParseStressMeasure(m.StressMeasure); err != nil {
			return err
		}
	}
	if m.TangentOperator != "" {
		if _, err := behavior.ParseTangentConvention(m.TangentOperator); err != nil {
			return err
		}
	}
	return nil
}

// Open loads the behavior this definition names and applies its parameter
// overrides.
func (m *Material) Open() (*behavior.Descriptor, error) {
	h, err := behavior.ParseHypothesis(m.Hypothesis)
	if err != nil {
		return nil, err
	}

	var opts []behavior.LoadOption
	if m.StressMeasure != "" {
		sm, err := behavior.ParseStressMeasure(m.StressMeasure)
		if err != nil {
			return nil, err
		}
		opts = append(opts, behavior.WithStressMeasure(sm))
	}
	if m.TangentOperator != "" {
		tc, err := behavior.ParseTangentConvention(m.TangentOperator)
		if err != nil {
			return nil, err
		}
		opts = append(opts, behavior.WithTangentConvention(tc))
	}

	d, err := behavior.Load(m.Library, m.Behaviour, h, opts...)
	if err != nil {
		return nil, err
	}
	for name, value := range m.Parameters {
		if err := d.SetParameter(name, value); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Apply writes the definition's material properties and external state
// variables into a store. A declared Temperature external state variable
// defaults to 293.15 on both buffers when the definition does not set it.
func (m *Material) Apply(st *state.Store) error {
	for name, value := range m.MaterialProperties {
		if err := st.SetMaterialProperty(name, []float64{value}); err != nil {
			return err
		}
	}

	esv := make(map[string]float64, len(m.ExternalStateVariables)+1)
	for name, value := range m.ExternalStateVariables {
		esv[name] = value
	}
	if _, set := esv["Temperature"]; !set {
		for _, name := range st.Behavior.Names(behavior.ExternalStateVariable) {
			if name == "Temperature" {
				esv["Temperature"] = defaultTemperature
			}
		}
	}
	for name, value := range esv {
		for _, which := range []state.Which{state.Previous, state.Current} {
			if err := st.SetExternalStateVariable(name, []float64{value}, which); err != nil {
				return err
			}
		}
	}
	return nil
}
