package payslip

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed patterns.json
var defaultPatternsJSON []byte

//go:embed patterns.schema.json
var patternsSchemaJSON []byte

// Rule captures a raw candidate for one field from text.
type Rule interface {
	Capture(text string) (string, bool)
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc func(text string) (string, bool)

func (f RuleFunc) Capture(text string) (string, bool) { return f(text) }

// RegexRule is a case-insensitive, multi-line search whose first capturing
// group is the candidate.
type RegexRule struct {
	re *regexp.Regexp
}

// NewRegexRule compiles pattern. The pattern must declare at least one group.
func NewRegexRule(pattern string) (*RegexRule, error) {
	re, err := regexp.Compile("(?im)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("pattern %q has no capturing group", pattern)
	}
	return &RegexRule{re: re}, nil
}

// MustRegexRule is NewRegexRule that panics on error.
func MustRegexRule(pattern string) *RegexRule {
	r, err := NewRegexRule(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *RegexRule) Capture(text string) (string, bool) {
	m := r.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (r *RegexRule) String() string { return r.re.String() }

// PatternSet maps each field to its rules in priority order. It is never
// mutated after construction and may be shared between goroutines.
type PatternSet struct {
	rules map[Field][]Rule
}

// NewPatternSet copies rules into a new set. Unknown fields are dropped.
func NewPatternSet(rules map[Field][]Rule) *PatternSet {
	ps := &PatternSet{rules: make(map[Field][]Rule, len(rules))}
	for f, rs := range rules {
		if !f.Valid() || len(rs) == 0 {
			continue
		}
		ps.rules[f] = append([]Rule(nil), rs...)
	}
	return ps
}

// Rules returns the rules for f in priority order.
func (ps *PatternSet) Rules(f Field) []Rule {
	if ps == nil {
		return nil
	}
	return ps.rules[f]
}

type patternFile struct {
	Version int                 `json:"version"`
	Fields  map[string][]string `json:"fields"`
}

var patternsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("patterns.schema.json", bytes.NewReader(patternsSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("patterns.schema.json")
})

// LoadPatternSet reads a JSON pattern file of the form
// {"fields": {"<field>": ["<regex>", ...]}}.
func LoadPatternSet(r io.Reader) (*PatternSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}
	schema, err := patternsSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal patterns: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("patterns do not match schema: %w", err)
	}

	var pf patternFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	rules := make(map[Field][]Rule, len(pf.Fields))
	for name, patterns := range pf.Fields {
		f := Field(name)
		for _, p := range patterns {
			rule, err := NewRegexRule(p)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f, err)
			}
			rules[f] = append(rules[f], rule)
		}
	}
	return NewPatternSet(rules), nil
}

var defaultPatternSet = sync.OnceValues(func() (*PatternSet, error) {
	return LoadPatternSet(bytes.NewReader(defaultPatternsJSON))
})

// DefaultPatternSet returns the built-in Brazilian payslip patterns. The set
// is loaded once per process.
func DefaultPatternSet() (*PatternSet, error) {
	return defaultPatternSet()
}
