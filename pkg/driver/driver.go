// Package driver orchestrates the DASH and MVR extraction pipelines. Each
// pipeline is a fixed sequence of extraction steps over one full-text input;
// the text is assumed to be already recovered from the document's pages and
// concatenated in page order with newline separators.
package driver

import (
	"fmt"
	"strings"

	"github.com/insurelab/driverabstract/pkg/dates"
	"github.com/insurelab/driverabstract/pkg/pattern"
	"github.com/insurelab/driverabstract/pkg/report"
	"github.com/insurelab/driverabstract/pkg/trace"
)

// Kind selects which extraction pipeline to run.
type Kind string

const (
	KindDASH Kind = "dash"
	KindMVR  Kind = "mvr"
)

// ParseKind converts a user-supplied kind string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDASH:
		return KindDASH, nil
	case KindMVR:
		return KindMVR, nil
	default:
		return "", fmt.Errorf("unknown document kind %q (want dash or mvr)", s)
	}
}

// Parser runs extraction pipelines against the rule libraries. A Parser is
// immutable after construction and safe for concurrent use; each Parse call
// depends only on its own input text.
type Parser struct {
	rules *pattern.Registry
	sink  trace.Sink
}

// Option configures a Parser.
type Option func(*Parser)

// WithSink directs extraction trace events to the given sink.
func WithSink(s trace.Sink) Option {
	return func(p *Parser) { p.sink = s }
}

// WithRules uses the given rule registry instead of the built-in libraries.
func WithRules(r *pattern.Registry) Option {
	return func(p *Parser) { p.rules = r }
}

// NewParser creates a parser, loading the built-in rule libraries unless
// WithRules supplies a registry.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{sink: trace.Nop}
	for _, opt := range opts {
		opt(p)
	}
	if p.rules == nil {
		rules, err := pattern.LoadBuiltin()
		if err != nil {
			return nil, err
		}
		p.rules = rules
	}
	return p, nil
}

// Parse runs the pipeline for the given document kind and returns the
// result. A pipeline always completes and returns a record, however many
// fields stayed unset; Success is false only when no text was recovered
// from the document at all.
func (p *Parser) Parse(kind Kind, text string) report.ParsedDocument {
	if strings.TrimSpace(text) == "" {
		return report.ParsedDocument{
			Success: false,
			Error:   "no document text: upstream page extraction produced nothing",
		}
	}

	lib, ok := p.rules.Get(string(kind))
	if !ok {
		return report.ParsedDocument{
			Success: false,
			Error:   fmt.Sprintf("no rule library registered for document kind %q", kind),
		}
	}

	var rec *report.Record
	switch kind {
	case KindDASH:
		rec = p.parseDASH(lib, text)
	case KindMVR:
		rec = p.parseMVR(lib, text)
	default:
		return report.ParsedDocument{
			Success: false,
			Error:   fmt.Sprintf("unknown document kind %q", kind),
		}
	}
	return report.ParsedDocument{Success: true, Data: rec}
}

// lookup applies a named field rule to text and returns the value, date-
// normalized when the rule asks for it. Defaults are not applied here.
func (p *Parser) lookup(lib *pattern.Library, text, name string) (string, bool) {
	rule, ok := lib.Rule(name)
	if !ok {
		return "", false
	}
	field, ok := lib.Field(name)
	if !ok {
		return "", false
	}
	v, found := field.First(text)
	if !found {
		return "", false
	}
	if rule.Date {
		// OCR occasionally injects spaces inside date digits.
		v = dates.Normalize(strings.ReplaceAll(v, " ", ""))
	}
	return v, true
}

// setField extracts a named field into the record, falling back to the
// rule's documented default when no pattern matches. It returns the stored
// value, if any.
func (p *Parser) setField(lib *pattern.Library, rec *report.Record, text, name string) (string, bool) {
	v, found := p.lookup(lib, text, name)
	if found {
		rec.Set(name, v)
		p.sink.Emit(trace.Event{
			Level: trace.LevelInfo, Stage: "field", Field: name, Value: v,
			Message: "field populated",
		})
		return v, true
	}

	rule, ok := lib.Rule(name)
	if ok && rule.Default != "" {
		rec.Set(name, rule.Default)
		p.sink.Emit(trace.Event{
			Level: trace.LevelInfo, Stage: "field", Field: name, Value: rule.Default,
			Message: "field defaulted",
		})
		return rule.Default, true
	}

	p.sink.Emit(trace.Event{
		Level: trace.LevelInfo, Stage: "field", Field: name,
		Message: "no pattern matched; field left unset",
	})
	return "", false
}
