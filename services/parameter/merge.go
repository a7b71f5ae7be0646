package parameter

import (
	"sort"

	"github.com/estafette/estafette-ci-teamcity/api"
)

func (s *service) MergeParameters(user *api.ParameterSet, configDefaults map[string]string) *api.ParameterSet {

	names := make([]string, 0, len(configDefaults))
	for name := range configDefaults {
		names = append(names, name)
	}
	sort.Strings(names)

	merged := api.NewParameterSet()
	for _, name := range names {
		merged.Set(newParameter(name, configDefaults[name], api.ParameterSourceDefault))
	}

	for _, p := range user.Parameters() {
		_, hadDefault := configDefaults[p.Name]
		p.Overridden = hadDefault
		merged.Set(p)
	}

	if user != nil {
		for k, v := range user.Metadata {
			merged.Metadata[k] = v
		}
	}

	return merged
}

func (s *service) MergeParametersWithPrecedence(user, template, config *api.ParameterSet) *api.ParameterSet {

	merged := api.NewParameterSet()

	// lowest precedence first, every later layer overrides
	layers := []struct {
		set    *api.ParameterSet
		source api.ParameterSource
	}{
		{config, api.ParameterSourceConfig},
		{template, api.ParameterSourceTemplate},
		{user, api.ParameterSourceUser},
	}

	for _, layer := range layers {
		for _, p := range layer.set.Parameters() {
			p.Overridden = merged.Has(p.Name)
			p.Source = layer.source
			merged.Set(p)
		}
		if layer.set != nil {
			for k, v := range layer.set.Metadata {
				merged.Metadata[k] = v
			}
		}
	}

	return merged
}

func (s *service) DetectConflicts(a, b *api.ParameterSet) []api.ParameterConflict {

	conflicts := []api.ParameterConflict{}
	for _, p := range a.Parameters() {
		other, ok := b.Get(p.Name)
		if ok && other.Value != p.Value {
			conflicts = append(conflicts, api.ParameterConflict{
				Name:   p.Name,
				Values: []string{p.Value, other.Value},
			})
		}
	}

	return conflicts
}

// CombineParameters joins sets from sources of equal standing; a name present in more than one set must carry the same value everywhere
func (s *service) CombineParameters(sets ...*api.ParameterSet) (*api.ParameterSet, error) {

	combined := api.NewParameterSet()
	conflicting := map[string]int{}
	conflicts := []api.ParameterConflict{}

	for _, set := range sets {
		for _, c := range s.DetectConflicts(combined, set) {
			i, ok := conflicting[c.Name]
			if !ok {
				conflicting[c.Name] = len(conflicts)
				conflicts = append(conflicts, c)
				continue
			}
			if !containsString(conflicts[i].Values, c.Values[1]) {
				conflicts[i].Values = append(conflicts[i].Values, c.Values[1])
			}
		}
		for _, p := range set.Parameters() {
			if !combined.Has(p.Name) {
				combined.Set(p)
			}
		}
		if set != nil {
			for k, v := range set.Metadata {
				combined.Metadata[k] = v
			}
		}
	}

	if err := api.NewParameterConflictError(conflicts); err != nil {
		return nil, err
	}

	return combined, nil
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
