// Package pattern provides the declarative rule library for driver-history
// document extraction. Field pattern sets and section anchors are defined in
// YAML, validated and compiled on registration, and looked up by document
// kind at parse time.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insurelab/driverabstract/pkg/extract"
)

// Library defines the extraction rules for one document kind.
type Library struct {
	// Metadata
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Kind    string `yaml:"kind"`

	// Fields holds the ordered candidate patterns per logical field.
	Fields []FieldRule `yaml:"fields"`

	// Sections holds the anchor pairs bounding list-bearing regions.
	Sections []SectionRule `yaml:"sections,omitempty"`

	// Convictions holds the increasingly permissive sub-patterns used to
	// extract conviction entries on MVR documents.
	Convictions []ConvictionRule `yaml:"convictions,omitempty"`

	compiled bool
}

// FieldRule defines the candidate patterns for one logical field. Patterns
// are evaluated case-insensitively in order; the first match wins.
type FieldRule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`

	// WholeMatch selects the entire match instead of capture group 1, for
	// patterns like bare e-mail addresses with no label anchor.
	WholeMatch bool `yaml:"whole_match,omitempty"`

	// Date marks the value for normalization to MM/DD/YYYY.
	Date bool `yaml:"date,omitempty"`

	// Default is the documented value used when no pattern matches. Most
	// fields have none: absence means the key stays unset.
	Default string `yaml:"default,omitempty"`

	compiled []*regexp.Regexp
}

// SectionRule defines the boundary anchors for one section.
type SectionRule struct {
	Name  string   `yaml:"name"`
	Start string   `yaml:"start"`
	Ends  []string `yaml:"ends,omitempty"`

	startCompiled *regexp.Regexp
	endCompiled   []*regexp.Regexp
}

// ConvictionRule is one sub-pattern for conviction entries, capturing a date
// and a description group.
type ConvictionRule struct {
	Pattern   string `yaml:"pattern"`
	DateGroup int    `yaml:"date_group,omitempty"` // defaults to 1
	DescGroup int    `yaml:"desc_group,omitempty"` // defaults to 2

	compiled *regexp.Regexp
}

// Validate checks the library structure before compilation.
func (l *Library) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("library name is required")
	}
	if l.Kind == "" {
		return fmt.Errorf("library %q: kind is required", l.Name)
	}
	if len(l.Fields) == 0 {
		return fmt.Errorf("library %q: at least one field rule is required", l.Name)
	}
	seen := make(map[string]bool, len(l.Fields))
	for i, f := range l.Fields {
		if f.Name == "" {
			return fmt.Errorf("library %q: field %d has no name", l.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("library %q: duplicate field %q", l.Name, f.Name)
		}
		seen[f.Name] = true
		if len(f.Patterns) == 0 {
			return fmt.Errorf("library %q: field %q has no patterns", l.Name, f.Name)
		}
	}
	for i, s := range l.Sections {
		if s.Name == "" {
			return fmt.Errorf("library %q: section %d has no name", l.Name, i)
		}
		if s.Start == "" {
			return fmt.Errorf("library %q: section %q has no start anchor", l.Name, s.Name)
		}
	}
	for i, c := range l.Convictions {
		if c.Pattern == "" {
			return fmt.Errorf("library %q: conviction rule %d has no pattern", l.Name, i)
		}
	}
	return nil
}

// Compile compiles every pattern in the library. All patterns are compiled
// case-insensitively, matching the source documents' inconsistent casing.
func (l *Library) Compile() error {
	for i := range l.Fields {
		f := &l.Fields[i]
		f.compiled = make([]*regexp.Regexp, 0, len(f.Patterns))
		for _, p := range f.Patterns {
			re, err := compileInsensitive(p)
			if err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
			f.compiled = append(f.compiled, re)
		}
	}
	for i := range l.Sections {
		s := &l.Sections[i]
		re, err := compileInsensitive(s.Start)
		if err != nil {
			return fmt.Errorf("section %q start: %w", s.Name, err)
		}
		s.startCompiled = re
		s.endCompiled = make([]*regexp.Regexp, 0, len(s.Ends))
		for _, e := range s.Ends {
			endRe, err := compileInsensitive(e)
			if err != nil {
				return fmt.Errorf("section %q end: %w", s.Name, err)
			}
			s.endCompiled = append(s.endCompiled, endRe)
		}
	}
	for i := range l.Convictions {
		c := &l.Convictions[i]
		re, err := compileInsensitive(c.Pattern)
		if err != nil {
			return fmt.Errorf("conviction rule %d: %w", i, err)
		}
		c.compiled = re
	}
	l.compiled = true
	return nil
}

// IsCompiled reports whether Compile has run successfully.
func (l *Library) IsCompiled() bool {
	return l.compiled
}

// Rule returns the field rule for a logical field name.
func (l *Library) Rule(name string) (*FieldRule, bool) {
	for i := range l.Fields {
		if l.Fields[i].Name == name {
			return &l.Fields[i], true
		}
	}
	return nil, false
}

// Field returns the compiled extractor for a logical field name.
func (l *Library) Field(name string) (extract.Field, bool) {
	r, ok := l.Rule(name)
	if !ok || r.compiled == nil {
		return extract.Field{}, false
	}
	group := 1
	if r.WholeMatch {
		group = 0
	}
	return extract.Field{Name: r.Name, Group: group, Patterns: r.compiled}, true
}

// Section returns the compiled locator for a section name.
func (l *Library) Section(name string) (extract.Section, bool) {
	for i := range l.Sections {
		s := &l.Sections[i]
		if s.Name != name || s.startCompiled == nil {
			continue
		}
		return extract.Section{Name: s.Name, Start: s.startCompiled, Ends: s.endCompiled}, true
	}
	return extract.Section{}, false
}

// ConvictionMatch is one date/description pair found by a conviction rule.
type ConvictionMatch struct {
	Date        string
	Description string
}

// FindAll returns every conviction match for this rule in the text.
func (c *ConvictionRule) FindAll(text string) []ConvictionMatch {
	if c.compiled == nil {
		return nil
	}
	dateGroup, descGroup := c.DateGroup, c.DescGroup
	if dateGroup == 0 {
		dateGroup = 1
	}
	if descGroup == 0 {
		descGroup = 2
	}
	var out []ConvictionMatch
	for _, m := range c.compiled.FindAllStringSubmatch(text, -1) {
		if dateGroup >= len(m) || descGroup >= len(m) {
			continue
		}
		out = append(out, ConvictionMatch{
			Date:        strings.TrimSpace(m[dateGroup]),
			Description: strings.TrimSpace(m[descGroup]),
		})
	}
	return out
}

func compileInsensitive(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", pattern, err)
	}
	return re, nil
}
