package parameter

import (
	"github.com/estafette/estafette-ci-teamcity/api"
)

const (
	ParameterPersonalBuild = "teamcity.build.personal"
	ParameterTriggeredBy   = "teamcity.build.triggeredBy.username"

	metadataPersonal    = "personal"
	metadataDescription = "description"
	metadataPatches     = "patches"
)

// PersonalBuildOptions configures a personal build
type PersonalBuildOptions struct {
	User        string
	Description string
	Patches     []Patch
}

// Patch is a local change applied to a personal build
type Patch struct {
	Path    string
	Content string
}

func (s *service) ConfigurePersonalBuild(set *api.ParameterSet, configuration *api.Configuration, options PersonalBuildOptions) error {

	if configuration == nil {
		return &api.ValidationError{Field: "personal build", Message: "build configuration is unknown"}
	}
	if !configuration.AllowPersonalBuilds {
		return &api.ValidationError{Field: "personal build", Value: configuration.ID, Message: "build configuration doesn't allow personal builds"}
	}

	set.Set(newParameter(ParameterPersonalBuild, "true", api.ParameterSourceUser))
	if options.User != "" {
		set.Set(newParameter(ParameterTriggeredBy, options.User, api.ParameterSourceUser))
	}

	set.Metadata[metadataPersonal] = true
	if _, ok := set.Metadata[metadataDescription]; !ok && options.Description != "" {
		set.Metadata[metadataDescription] = options.Description
	}
	if len(options.Patches) > 0 {
		patches, _ := set.Metadata[metadataPatches].([]Patch)
		set.Metadata[metadataPatches] = append(patches, options.Patches...)
	}

	return nil
}

// IsPersonal returns true if ConfigurePersonalBuild marked the set as personal
func IsPersonal(set *api.ParameterSet) bool {
	if set == nil {
		return false
	}
	personal, _ := set.Metadata[metadataPersonal].(bool)
	return personal || set.Value(ParameterPersonalBuild) == "true"
}
