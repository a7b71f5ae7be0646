package api

import "strings"

// ParameterType is inferred from the prefix of a parameter name
type ParameterType string

const (
	ParameterTypeEnvironment   ParameterType = "environment"
	ParameterTypeSystem        ParameterType = "system"
	ParameterTypeBuild         ParameterType = "build"
	ParameterTypeConfiguration ParameterType = "configuration"
)

// ParameterSource records where a parameter value came from
type ParameterSource string

const (
	ParameterSourceUser     ParameterSource = "user"
	ParameterSourceTemplate ParameterSource = "template"
	ParameterSourceConfig   ParameterSource = "config"
	ParameterSourceDefault  ParameterSource = "default"
)

// InferParameterType maps env., system., teamcity. and build. prefixes to their type; anything else is a configuration parameter
func InferParameterType(name string) ParameterType {
	switch {
	case strings.HasPrefix(name, "env."):
		return ParameterTypeEnvironment
	case strings.HasPrefix(name, "system."), strings.HasPrefix(name, "teamcity."):
		return ParameterTypeSystem
	case strings.HasPrefix(name, "build."):
		return ParameterTypeBuild
	default:
		return ParameterTypeConfiguration
	}
}

// Parameter is a single typed build parameter
type Parameter struct {
	Name       string          `json:"name"`
	Value      string          `json:"value"`
	Type       ParameterType   `json:"type"`
	Source     ParameterSource `json:"source"`
	Overridden bool            `json:"overridden,omitempty"`
}

// ParameterSet is an ordered collection of parameters with unique names; the order is only used for serialization
type ParameterSet struct {
	parameters []Parameter
	index      map[string]int

	Metadata map[string]interface{}
}

// NewParameterSet returns an empty ParameterSet
func NewParameterSet() *ParameterSet {
	return &ParameterSet{
		parameters: make([]Parameter, 0),
		index:      make(map[string]int),
		Metadata:   make(map[string]interface{}),
	}
}

// Set inserts the parameter or replaces the value of an existing one while keeping its position
func (ps *ParameterSet) Set(p Parameter) {
	if p.Type == "" {
		p.Type = InferParameterType(p.Name)
	}
	if i, ok := ps.index[p.Name]; ok {
		ps.parameters[i] = p
		return
	}
	ps.index[p.Name] = len(ps.parameters)
	ps.parameters = append(ps.parameters, p)
}

// Get returns the parameter with the given name
func (ps *ParameterSet) Get(name string) (Parameter, bool) {
	if ps == nil {
		return Parameter{}, false
	}
	i, ok := ps.index[name]
	if !ok {
		return Parameter{}, false
	}
	return ps.parameters[i], true
}

// Value returns the value of the named parameter or an empty string
func (ps *ParameterSet) Value(name string) string {
	p, _ := ps.Get(name)
	return p.Value
}

// Has returns true if a parameter with the given name exists
func (ps *ParameterSet) Has(name string) bool {
	_, ok := ps.Get(name)
	return ok
}

// Remove deletes the named parameter, preserving the order of the others
func (ps *ParameterSet) Remove(name string) {
	i, ok := ps.index[name]
	if !ok {
		return
	}
	ps.parameters = append(ps.parameters[:i], ps.parameters[i+1:]...)
	delete(ps.index, name)
	for j := i; j < len(ps.parameters); j++ {
		ps.index[ps.parameters[j].Name] = j
	}
}

// Len returns the number of parameters
func (ps *ParameterSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.parameters)
}

// Parameters returns a copy of all parameters in insertion order
func (ps *ParameterSet) Parameters() []Parameter {
	if ps == nil {
		return []Parameter{}
	}
	return append([]Parameter{}, ps.parameters...)
}

// Names returns all parameter names in insertion order
func (ps *ParameterSet) Names() []string {
	names := make([]string, 0, ps.Len())
	for _, p := range ps.Parameters() {
		names = append(names, p.Name)
	}
	return names
}

// Clone returns a copy that can be modified without touching the original
func (ps *ParameterSet) Clone() *ParameterSet {
	clone := NewParameterSet()
	if ps == nil {
		return clone
	}
	for _, p := range ps.parameters {
		clone.Set(p)
	}
	for k, v := range ps.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}
