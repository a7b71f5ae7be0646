package parameter

import (
	"context"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/services/evaluation"
)

// Service parses, validates, merges and resolves build parameters; it never talks to the server
//
//go:generate mockgen -package=parameter -destination ./mock.go -source=service.go
type Service interface {
	ParseParameters(values map[string]string) (*api.ParameterSet, error)
	ParseCommandLine(args []string) (*api.ParameterSet, error)
	ValidateParameters(set *api.ParameterSet, required []string, schemas map[string]Schema) (*ValidationResult, error)
	MergeParameters(user *api.ParameterSet, configDefaults map[string]string) *api.ParameterSet
	MergeParametersWithPrecedence(user, template, config *api.ParameterSet) *api.ParameterSet
	DetectConflicts(a, b *api.ParameterSet) []api.ParameterConflict
	CombineParameters(sets ...*api.ParameterSet) (*api.ParameterSet, error)
	ResolveReferences(set *api.ParameterSet) (*api.ParameterSet, error)
	ValidateDependencies(set *api.ParameterSet, rules []DependencyRule) ([]DependencyStatus, error)
	AddDependentParameters(set *api.ParameterSet, rules []DependencyRule) ([]string, error)
	ResolveBranch(request BranchRequest) (string, error)
	ConfigurePersonalBuild(set *api.ParameterSet, configuration *api.Configuration, options PersonalBuildOptions) error
	ToProperties(set *api.ParameterSet) []api.Property
	ToObject(set *api.ParameterSet) map[string]string
	ToCommandLine(set *api.ParameterSet) []string
	ToEnvironment(set *api.ParameterSet) map[string]string
}

// NewService returns a new parameter.Service
func NewService(ctx context.Context, evaluationService evaluation.Service) (Service, error) {
	return &service{
		evaluationService: evaluationService,
	}, nil
}

type service struct {
	evaluationService evaluation.Service
}
