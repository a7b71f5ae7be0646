package api

// Configuration is a resolved TeamCity build configuration
type Configuration struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	ProjectID           string            `json:"projectId"`
	ProjectName         string            `json:"projectName"`
	Paused              bool              `json:"paused"`
	IsTemplate          bool              `json:"isTemplate"`
	AllowPersonalBuilds bool              `json:"allowPersonalBuilds"`
	VcsRootIDs          []string          `json:"vcsRootIds,omitempty"`
	Parameters          map[string]string `json:"parameters,omitempty"`
	WebURL              string            `json:"webUrl,omitempty"`
}

// Clone returns a deep copy, so cached configurations can't be altered by callers
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}

	clone := *c
	if c.VcsRootIDs != nil {
		clone.VcsRootIDs = append([]string{}, c.VcsRootIDs...)
	}
	if c.Parameters != nil {
		clone.Parameters = make(map[string]string, len(c.Parameters))
		for k, v := range c.Parameters {
			clone.Parameters[k] = v
		}
	}

	return &clone
}

// FullName returns 'project :: name' the way TeamCity shows it in the ui
func (c *Configuration) FullName() string {
	if c.ProjectName == "" {
		return c.Name
	}
	return c.ProjectName + " :: " + c.Name
}
