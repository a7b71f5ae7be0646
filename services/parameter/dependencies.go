package parameter

import (
	"fmt"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/rs/zerolog/log"
)

// DependencyRule makes Parameter depend on the presence or value of DependsOn
type DependencyRule struct {
	Parameter     string
	DependsOn     string
	RequiredValue string
	Condition     string
	Default       *string
}

// DependencyState is the outcome of checking a single rule
type DependencyState string

const (
	DependencySatisfied DependencyState = "satisfied"
	DependencyMissing   DependencyState = "missing"
	DependencyDisabled  DependencyState = "disabled"
)

// DependencyStatus reports the state of one rule
type DependencyStatus struct {
	Parameter string
	DependsOn string
	State     DependencyState
	Reason    string
}

func (s *service) ValidateDependencies(set *api.ParameterSet, rules []DependencyRule) ([]DependencyStatus, error) {

	statuses := make([]DependencyStatus, 0, len(rules))
	for _, rule := range rules {
		met, reason, err := s.prerequisiteMet(set, rule)
		if err != nil {
			return nil, err
		}

		status := DependencyStatus{
			Parameter: rule.Parameter,
			DependsOn: rule.DependsOn,
		}
		switch {
		case !met:
			status.State = DependencyDisabled
			status.Reason = reason
		case set.Has(rule.Parameter):
			status.State = DependencySatisfied
		default:
			status.State = DependencyMissing
			status.Reason = fmt.Sprintf("%v is required when %v", rule.Parameter, reason)
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (s *service) AddDependentParameters(set *api.ParameterSet, rules []DependencyRule) ([]string, error) {

	added := []string{}
	for _, rule := range rules {
		if rule.Default == nil || set.Has(rule.Parameter) {
			continue
		}

		met, _, err := s.prerequisiteMet(set, rule)
		if err != nil {
			return added, err
		}
		if !met {
			continue
		}

		log.Debug().Msgf("Adding default value for dependent parameter %v", rule.Parameter)
		set.Set(newParameter(rule.Parameter, *rule.Default, api.ParameterSourceDefault))
		added = append(added, rule.Parameter)
	}

	return added, nil
}

// prerequisiteMet returns the reason as a description of the prerequisite when met and of the failure otherwise
func (s *service) prerequisiteMet(set *api.ParameterSet, rule DependencyRule) (bool, string, error) {

	prerequisite, ok := set.Get(rule.DependsOn)
	if !ok {
		return false, fmt.Sprintf("%v is not set", rule.DependsOn), nil
	}

	if rule.RequiredValue != "" && prerequisite.Value != rule.RequiredValue {
		return false, fmt.Sprintf("%v is '%v' instead of '%v'", rule.DependsOn, prerequisite.Value, rule.RequiredValue), nil
	}

	if rule.Condition != "" {
		result, err := s.evaluationService.Evaluate(rule.Condition, s.evaluationService.GetParameters(set))
		if err != nil {
			return false, "", &api.ValidationError{Field: "dependency condition", Value: rule.Condition, Message: err.Error()}
		}
		if !result {
			return false, fmt.Sprintf("condition %v is false", rule.Condition), nil
		}
		return true, fmt.Sprintf("condition %v is true", rule.Condition), nil
	}

	if rule.RequiredValue != "" {
		return true, fmt.Sprintf("%v is '%v'", rule.DependsOn, rule.RequiredValue), nil
	}

	return true, fmt.Sprintf("%v is set", rule.DependsOn), nil
}
