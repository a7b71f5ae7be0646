package teamcityapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/estafette/estafette-ci-teamcity/api"
)

const teamcityDateFormat = "20060102T150405-0700"

// Locator builds TeamCity locator strings like 'buildType:(id:Proj_Build1),running:true'
type Locator struct {
	dimensions []string
	err        error
}

// NewLocator returns an empty Locator
func NewLocator() *Locator {
	return &Locator{}
}

// With adds a dimension; values containing locator syntax are wrapped in parentheses
func (l *Locator) With(dimension, value string) *Locator {
	if strings.ContainsAny(value, ",:()") {
		value = "(" + value + ")"
	}
	l.dimensions = append(l.dimensions, dimension+":"+value)
	return l
}

// WithNested adds a dimension with a nested locator
func (l *Locator) WithNested(dimension string, nested *Locator) *Locator {
	if nested.err != nil && l.err == nil {
		l.err = nested.err
	}
	l.dimensions = append(l.dimensions, dimension+":("+nested.String()+")")
	return l
}

// WithBuildType restricts the locator to a build configuration
func (l *Locator) WithBuildType(id string) *Locator {
	return l.WithNested("buildType", NewLocator().With("id", id))
}

// WithCount limits the number of returned items
func (l *Locator) WithCount(count int) *Locator {
	return l.With("count", fmt.Sprint(count))
}

// WithSinceDate accepts 2006-01-02 (midnight utc), RFC3339 or the TeamCity date format
func (l *Locator) WithSinceDate(date string) *Locator {
	t, err := ParseDate(date)
	if err != nil {
		if l.err == nil {
			l.err = err
		}
		return l
	}
	return l.With("sinceDate", FormatDate(t))
}

// Build returns the locator string or the first validation error
func (l *Locator) Build() (string, error) {
	if l.err != nil {
		return "", l.err
	}
	return l.String(), nil
}

func (l *Locator) String() string {
	return strings.Join(l.dimensions, ",")
}

// ParseDate parses the date formats accepted by WithSinceDate
func ParseDate(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	layouts := []string{"2006-01-02", time.RFC3339, teamcityDateFormat}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &api.ValidationError{Field: "date", Value: date, Message: "expected YYYY-MM-DD, RFC3339 or yyyyMMddTHHmmss+ZZZZ"}
}

// FormatDate renders a time in the TeamCity date format, in utc
func FormatDate(t time.Time) string {
	return t.UTC().Format(teamcityDateFormat)
}
