package teamcityapi

// Property is a TeamCity name/value property
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Properties wraps a property list the way the rest api nests it
type Properties struct {
	Count    int        `json:"count,omitempty"`
	Property []Property `json:"property"`
}

// Get returns the value of the named property
func (p *Properties) Get(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, prop := range p.Property {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// ToMap converts the property list to a map
func (p *Properties) ToMap() map[string]string {
	m := map[string]string{}
	if p == nil {
		return m
	}
	for _, prop := range p.Property {
		m[prop.Name] = prop.Value
	}
	return m
}

// VcsRootEntry links a build configuration to a vcs root
type VcsRootEntry struct {
	ID      string   `json:"id"`
	VcsRoot *VcsRoot `json:"vcs-root,omitempty"`
}

// VcsRoot is a version control root
type VcsRoot struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// VcsRootEntries wraps the vcs root entries of a build configuration
type VcsRootEntries struct {
	VcsRootEntry []VcsRootEntry `json:"vcs-root-entry"`
}

// BuildType is a build configuration as returned by /app/rest/buildTypes
type BuildType struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	ProjectID      string          `json:"projectId"`
	ProjectName    string          `json:"projectName"`
	Paused         bool            `json:"paused,omitempty"`
	TemplateFlag   bool            `json:"templateFlag,omitempty"`
	Href           string          `json:"href,omitempty"`
	WebURL         string          `json:"webUrl,omitempty"`
	Parameters     *Properties     `json:"parameters,omitempty"`
	Settings       *Properties     `json:"settings,omitempty"`
	VcsRootEntries *VcsRootEntries `json:"vcs-root-entries,omitempty"`
}

// BuildTypes is the list response of /app/rest/buildTypes
type BuildTypes struct {
	Count     int          `json:"count"`
	BuildType []*BuildType `json:"buildType"`
}

// BuildTypeRef references a build configuration in requests
type BuildTypeRef struct {
	ID string `json:"id"`
}

// BuildRef references a build in requests and responses
type BuildRef struct {
	ID int `json:"id"`
}

// BuildRefs wraps a list of build references
type BuildRefs struct {
	Count int        `json:"count,omitempty"`
	Build []BuildRef `json:"build"`
}

// Comment is a free text comment attached to a build
type Comment struct {
	Text string `json:"text"`
}

// User is a TeamCity user
type User struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// Triggered describes who or what triggered a build
type Triggered struct {
	Type string `json:"type"`
	User *User  `json:"user,omitempty"`
}

// RunningInfo is present while a build runs
type RunningInfo struct {
	PercentageComplete    int `json:"percentageComplete"`
	ElapsedSeconds        int `json:"elapsedSeconds"`
	EstimatedTotalSeconds int `json:"estimatedTotalSeconds"`
}

// Artifacts summarizes the artifacts of a build
type Artifacts struct {
	Count int    `json:"count"`
	Href  string `json:"href,omitempty"`
}

// TestOccurrences summarizes the tests of a build
type TestOccurrences struct {
	Count   int `json:"count"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Ignored int `json:"ignored"`
	Muted   int `json:"muted"`
}

// CanceledInfo is present when a build got canceled
type CanceledInfo struct {
	Text string `json:"text,omitempty"`
	User *User  `json:"user,omitempty"`
}

// Build is a queued, running or finished build; most fields are optional depending on the state
type Build struct {
	ID                   *int             `json:"id,omitempty"`
	BuildTypeID          *string          `json:"buildTypeId,omitempty"`
	Number               string           `json:"number,omitempty"`
	State                *string          `json:"state,omitempty"`
	Status               string           `json:"status,omitempty"`
	StatusText           string           `json:"statusText,omitempty"`
	BranchName           *string          `json:"branchName,omitempty"`
	Personal             *bool            `json:"personal,omitempty"`
	WaitReason           string           `json:"waitReason,omitempty"`
	StartEstimate        string           `json:"startEstimate,omitempty"`
	WebURL               *string          `json:"webUrl,omitempty"`
	Triggered            *Triggered       `json:"triggered,omitempty"`
	Properties           *Properties      `json:"properties,omitempty"`
	SnapshotDependencies *BuildRefs       `json:"snapshot-dependencies,omitempty"`
	RunningInfo          *RunningInfo     `json:"running-info,omitempty"`
	Artifacts            *Artifacts       `json:"artifacts,omitempty"`
	TestOccurrences      *TestOccurrences `json:"testOccurrences,omitempty"`
	CanceledInfo         *CanceledInfo    `json:"canceledInfo,omitempty"`
}

// Builds is the list response of /app/rest/buildQueue
type Builds struct {
	Count int      `json:"count"`
	Build []*Build `json:"build"`
}

// TriggerBuildRequest is posted to /app/rest/buildQueue
type TriggerBuildRequest struct {
	BuildType            BuildTypeRef `json:"buildType"`
	BranchName           string       `json:"branchName,omitempty"`
	Personal             bool         `json:"personal,omitempty"`
	Comment              *Comment     `json:"comment,omitempty"`
	Properties           *Properties  `json:"properties,omitempty"`
	SnapshotDependencies *BuildRefs   `json:"snapshot-dependencies,omitempty"`
}

// CancelRequest is posted to a queued build to remove it from the queue
type CancelRequest struct {
	Comment        string `json:"comment"`
	ReaddIntoQueue bool   `json:"readdIntoQueue"`
}

// Branch is a branch known by a vcs root
type Branch struct {
	Name        string `json:"name"`
	Default     bool   `json:"default,omitempty"`
	Unspecified bool   `json:"unspecified,omitempty"`
}

// Branches is the list response for vcs root branches
type Branches struct {
	Count  int      `json:"count"`
	Branch []Branch `json:"branch"`
}

type countResponse struct {
	Count int `json:"count"`
}
