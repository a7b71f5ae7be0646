package parameter

import (
	"regexp"

	"github.com/estafette/estafette-ci-teamcity/api"
)

var referenceRegex = regexp.MustCompile(`%([^%\s<>"|\\]+)%`)

// References returns the distinct parameter names referenced as %name% in value, in order of appearance
func References(value string) []string {
	names := []string{}
	seen := map[string]bool{}
	for _, match := range referenceRegex.FindAllStringSubmatch(value, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

func (s *service) ResolveReferences(set *api.ParameterSet) (*api.ParameterSet, error) {

	dependencies := map[string][]string{}
	for _, p := range set.Parameters() {
		for _, name := range References(p.Value) {
			// references to unknown parameters stay verbatim
			if set.Has(name) {
				dependencies[p.Name] = append(dependencies[p.Name], name)
			}
		}
	}

	order, err := resolutionOrder(set.Names(), dependencies)
	if err != nil {
		return nil, err
	}

	resolved := set.Clone()
	values := map[string]string{}
	for _, name := range order {
		p, _ := set.Get(name)
		p.Value = referenceRegex.ReplaceAllStringFunc(p.Value, func(match string) string {
			if value, ok := values[match[1:len(match)-1]]; ok {
				return value
			}
			return match
		})
		values[name] = p.Value
		resolved.Set(p)
	}

	return resolved, nil
}

// resolutionOrder sorts names so every parameter comes after the ones it references
func resolutionOrder(names []string, dependencies map[string][]string) ([]string, error) {

	const (
		unvisited = iota
		visiting
		visited
	)

	state := map[string]int{}
	order := make([]string, 0, len(names))
	stack := []string{}

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			for i, n := range stack {
				if n == name {
					chain := append(append([]string{}, stack[i:]...), name)
					return &api.CircularReferenceError{Chain: chain}
				}
			}
		}

		state[name] = visiting
		stack = append(stack, name)
		for _, dependency := range dependencies[name] {
			if err := visit(dependency); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = visited
		order = append(order, name)

		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return order, nil
}
