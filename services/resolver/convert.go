package resolver

import (
	"strings"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
)

// SettingAllowPersonalBuilds is the build type setting that controls personal builds
const SettingAllowPersonalBuilds = "allowPersonalBuildTriggering"

func toConfiguration(bt *teamcityapi.BuildType) *api.Configuration {

	configuration := &api.Configuration{
		ID:                  bt.ID,
		Name:                bt.Name,
		Description:         bt.Description,
		ProjectID:           bt.ProjectID,
		ProjectName:         bt.ProjectName,
		Paused:              bt.Paused,
		IsTemplate:          bt.TemplateFlag,
		AllowPersonalBuilds: true,
		Parameters:          bt.Parameters.ToMap(),
		WebURL:              bt.WebURL,
	}

	// personal builds are allowed unless explicitly switched off
	if value, ok := bt.Settings.Get(SettingAllowPersonalBuilds); ok && strings.EqualFold(value, "false") {
		configuration.AllowPersonalBuilds = false
	}

	if bt.VcsRootEntries != nil {
		for _, entry := range bt.VcsRootEntries.VcsRootEntry {
			id := entry.ID
			if entry.VcsRoot != nil && entry.VcsRoot.ID != "" {
				id = entry.VcsRoot.ID
			}
			if id != "" {
				configuration.VcsRootIDs = append(configuration.VcsRootIDs, id)
			}
		}
	}

	return configuration
}
