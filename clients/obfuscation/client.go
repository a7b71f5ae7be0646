package obfuscation

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/estafette/estafette-ci-teamcity/api"
)

const maxLengthToSkipObfuscation = 3

// key only counts as a whole name segment, so keyboard or monkey don't look secret
var secretNameRegex = regexp.MustCompile(`(?i)(password|passwd|secret|token|apikey|credentials|(^|[._-])key([._-]|$))`)

// Client hides secure parameter values from the logs
//
//go:generate mockgen -package=obfuscation -destination ./mock.go -source=client.go
type Client interface {
	CollectSecrets(parameters *api.ParameterSet, secureNames []string)
	IsSecret(name string) bool
	Obfuscate(input string) string
	ObfuscateParameters(parameters *api.ParameterSet) map[string]string
}

// NewClient returns a new Client
func NewClient() (Client, error) {
	return &client{
		secrets: map[string]struct{}{},
	}, nil
}

type client struct {
	mutex    sync.RWMutex
	secrets  map[string]struct{}
	replacer *strings.Replacer
}

func (ob *client) CollectSecrets(parameters *api.ParameterSet, secureNames []string) {

	secure := map[string]bool{}
	for _, n := range secureNames {
		secure[n] = true
	}

	ob.mutex.Lock()
	defer ob.mutex.Unlock()

	for _, p := range parameters.Parameters() {
		if !secure[p.Name] && !ob.IsSecret(p.Name) {
			continue
		}
		// values split over multiple lines get obfuscated per line as well
		for _, l := range strings.Split(p.Value, "\n") {
			if len(l) > maxLengthToSkipObfuscation {
				ob.secrets[l] = struct{}{}
			}
		}
		if len(p.Value) > maxLengthToSkipObfuscation {
			ob.secrets[p.Value] = struct{}{}
		}
	}

	// the replacer prefers earlier pairs, longest first hides a secret completely when another one is its prefix
	secrets := make([]string, 0, len(ob.secrets))
	for s := range ob.secrets {
		secrets = append(secrets, s)
	}
	sort.Slice(secrets, func(i, j int) bool {
		if len(secrets[i]) != len(secrets[j]) {
			return len(secrets[i]) > len(secrets[j])
		}
		return secrets[i] < secrets[j]
	})

	replacerStrings := make([]string, 0, 2*len(secrets))
	for _, s := range secrets {
		replacerStrings = append(replacerStrings, s, "***")
	}
	ob.replacer = strings.NewReplacer(replacerStrings...)
}

func (ob *client) IsSecret(name string) bool {
	return secretNameRegex.MatchString(name)
}

func (ob *client) Obfuscate(input string) string {
	ob.mutex.RLock()
	defer ob.mutex.RUnlock()

	if ob.replacer == nil {
		return input
	}
	return ob.replacer.Replace(input)
}

func (ob *client) ObfuscateParameters(parameters *api.ParameterSet) map[string]string {
	obfuscated := make(map[string]string, parameters.Len())
	for _, p := range parameters.Parameters() {
		if ob.IsSecret(p.Name) {
			obfuscated[p.Name] = "***"
			continue
		}
		obfuscated[p.Name] = ob.Obfuscate(p.Value)
	}
	return obfuscated
}
