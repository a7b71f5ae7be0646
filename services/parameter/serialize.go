package parameter

import (
	"strings"

	"github.com/estafette/estafette-ci-teamcity/api"
	foundation "github.com/estafette/estafette-foundation"
)

func (s *service) ToProperties(set *api.ParameterSet) []api.Property {
	properties := make([]api.Property, 0, set.Len())
	for _, p := range set.Parameters() {
		properties = append(properties, api.Property{Name: p.Name, Value: p.Value})
	}
	return properties
}

func (s *service) ToObject(set *api.ParameterSet) map[string]string {
	object := make(map[string]string, set.Len())
	for _, p := range set.Parameters() {
		object[p.Name] = p.Value
	}
	return object
}

func (s *service) ToCommandLine(set *api.ParameterSet) []string {
	args := make([]string, 0, set.Len())
	for _, p := range set.Parameters() {
		args = append(args, commandLinePrefix+p.Name+"="+p.Value)
	}
	return args
}

func (s *service) ToEnvironment(set *api.ParameterSet) map[string]string {
	environment := make(map[string]string, set.Len())
	for _, p := range set.Parameters() {
		environment[EnvironmentVariableName(p.Name)] = p.Value
	}
	return environment
}

// EnvironmentVariableName converts every dot separated segment to upper snake case and joins them with underscores
func EnvironmentVariableName(name string) string {
	segments := strings.Split(name, ".")
	for i, segment := range segments {
		segments[i] = foundation.ToUpperSnakeCase(segment)
	}
	return strings.Join(segments, "_")
}
