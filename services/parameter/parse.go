package parameter

import (
	"sort"
	"strings"
	"unicode"

	"github.com/estafette/estafette-ci-teamcity/api"
)

const commandLinePrefix = "-P"

func (s *service) ParseParameters(values map[string]string) (*api.ParameterSet, error) {

	// map iteration order is random, sort for deterministic serialization
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	set := api.NewParameterSet()
	for _, name := range names {
		if err := validateName(name); err != nil {
			return nil, err
		}
		set.Set(newParameter(name, values[name], api.ParameterSourceUser))
	}

	return set, nil
}

func (s *service) ParseCommandLine(args []string) (*api.ParameterSet, error) {

	set := api.NewParameterSet()
	for _, arg := range args {
		if !strings.HasPrefix(arg, commandLinePrefix) {
			return nil, &api.ValidationError{Field: "parameter", Value: arg, Message: "expected -P<name>=<value>"}
		}

		nameAndValue := strings.TrimPrefix(arg, commandLinePrefix)
		separator := strings.Index(nameAndValue, "=")
		if separator < 0 {
			return nil, &api.ValidationError{Field: "parameter", Value: arg, Message: "expected -P<name>=<value>"}
		}

		name := nameAndValue[:separator]
		if err := validateName(name); err != nil {
			return nil, err
		}

		// later tokens override earlier ones
		set.Set(newParameter(name, nameAndValue[separator+1:], api.ParameterSourceUser))
	}

	return set, nil
}

func newParameter(name, value string, source api.ParameterSource) api.Parameter {
	return api.Parameter{
		Name:   name,
		Value:  value,
		Type:   api.InferParameterType(name),
		Source: source,
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &api.ValidationError{Field: "parameter name", Value: name, Message: "name is empty"}
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return &api.ValidationError{Field: "parameter name", Value: name, Message: "name contains whitespace"}
	}
	if strings.ContainsAny(name, `<>"|\`) {
		return &api.ValidationError{Field: "parameter name", Value: name, Message: `name contains one of the characters <>"|\`}
	}
	return nil
}
