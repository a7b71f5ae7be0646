package parameter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/rs/zerolog/log"
)

// SchemaType is the declared type of a parameter
type SchemaType string

const (
	SchemaTypeString   SchemaType = "string"
	SchemaTypeNumber   SchemaType = "number"
	SchemaTypeBoolean  SchemaType = "boolean"
	SchemaTypeEnum     SchemaType = "enum"
	SchemaTypePassword SchemaType = "password"
)

// Schema declares what values a parameter accepts; mismatches only result in warnings
type Schema struct {
	Type    SchemaType
	Min     *float64
	Max     *float64
	Enum    []string
	Pattern string
}

// ValidationResult holds non-fatal warnings
type ValidationResult struct {
	Valid    bool
	Warnings []string
}

// SecureNames returns the names of all parameters declared as password
func SecureNames(schemas map[string]Schema) []string {
	names := []string{}
	for name, schema := range schemas {
		if schema.Type == SchemaTypePassword {
			names = append(names, name)
		}
	}
	return names
}

func (s *service) ValidateParameters(set *api.ParameterSet, required []string, schemas map[string]Schema) (*ValidationResult, error) {

	missing := []string{}
	for _, name := range required {
		p, ok := set.Get(name)
		if !ok || strings.TrimSpace(p.Value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &api.RequiredParameterError{Missing: missing}
	}

	result := &ValidationResult{
		Valid:    true,
		Warnings: []string{},
	}

	for _, p := range set.Parameters() {
		schema, ok := schemas[p.Name]
		if !ok {
			continue
		}
		result.Warnings = append(result.Warnings, validateAgainstSchema(p, schema)...)
	}

	for _, w := range result.Warnings {
		log.Warn().Msg(w)
	}

	return result, nil
}

func validateAgainstSchema(p api.Parameter, schema Schema) (warnings []string) {

	switch schema.Type {
	case SchemaTypeNumber:
		number, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Parameter %v should be numeric but is '%v'", p.Name, p.Value))
			break
		}
		if schema.Min != nil && number < *schema.Min {
			warnings = append(warnings, fmt.Sprintf("Parameter %v value %v is below minimum %v", p.Name, number, *schema.Min))
		}
		if schema.Max != nil && number > *schema.Max {
			warnings = append(warnings, fmt.Sprintf("Parameter %v value %v is above maximum %v", p.Name, number, *schema.Max))
		}
	case SchemaTypeBoolean:
		lower := strings.ToLower(strings.TrimSpace(p.Value))
		if lower != "true" && lower != "false" {
			warnings = append(warnings, fmt.Sprintf("Parameter %v should be true or false but is '%v'", p.Name, p.Value))
		}
	}

	if len(schema.Enum) > 0 {
		allowed := false
		for _, e := range schema.Enum {
			if e == p.Value {
				allowed = true
				break
			}
		}
		if !allowed {
			warnings = append(warnings, fmt.Sprintf("Parameter %v value '%v' is not one of %v", p.Name, p.Value, strings.Join(schema.Enum, ", ")))
		}
	}

	if schema.Pattern != "" {
		pattern, err := regexp.Compile(schema.Pattern)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Parameter %v has invalid pattern %v: %v", p.Name, schema.Pattern, err))
		} else if !pattern.MatchString(p.Value) {
			warnings = append(warnings, fmt.Sprintf("Parameter %v value '%v' does not match pattern %v", p.Name, p.Value, schema.Pattern))
		}
	}

	return
}
