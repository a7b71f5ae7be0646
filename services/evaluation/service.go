package evaluation

import (
	"context"
	"errors"
	"strconv"

	"github.com/Knetic/govaluate"
	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/rs/zerolog/log"
)

// Service evaluates condition expressions of dependency rules against parameters
//
//go:generate mockgen -package=evaluation -destination ./mock.go -source=service.go
type Service interface {
	Evaluate(input string, parameters map[string]interface{}) (bool, error)
	GetParameters(set *api.ParameterSet) map[string]interface{}
}

// NewService returns a new evaluation.Service
func NewService(ctx context.Context) (Service, error) {
	return &service{}, nil
}

type service struct{}

func (s *service) Evaluate(input string, parameters map[string]interface{}) (result bool, err error) {

	if input == "" {
		return false, errors.New("Condition expression is empty")
	}

	expression, err := govaluate.NewEvaluableExpression(input)
	if err != nil {
		return
	}

	r, err := expression.Evaluate(parameters)
	if err != nil {
		return false, err
	}

	log.Debug().Msgf("Result of condition \"%v\" is \"%v\"", input, r)

	if result, ok := r.(bool); ok {
		return result, nil
	}

	return false, errors.New("Result of evaluating condition is not of type boolean")
}

// GetParameters exposes parameter values to expressions; numeric and boolean looking values get their native type so comparisons work
func (s *service) GetParameters(set *api.ParameterSet) map[string]interface{} {

	parameters := make(map[string]interface{}, set.Len())
	for _, p := range set.Parameters() {
		if b, err := strconv.ParseBool(p.Value); err == nil && (p.Value == "true" || p.Value == "false") {
			parameters[p.Name] = b
			continue
		}
		if f, err := strconv.ParseFloat(p.Value, 64); err == nil {
			parameters[p.Name] = f
			continue
		}
		parameters[p.Name] = p.Value
	}

	return parameters
}
