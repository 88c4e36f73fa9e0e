package intent

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// ErrInvalidRule is returned when a rule table cannot be compiled.
var ErrInvalidRule = errors.New("intent: invalid rule")

// Rule maps a pattern to an intent template.
type Rule struct {
	// Pattern is an RE2 expression matched against normalized text.
	Pattern string `yaml:"pattern"`
	Kind    Kind   `yaml:"kind"`
	// Arg becomes Intent.Arg unless Capture is set.
	Arg string `yaml:"arg,omitempty"`
	// Capture names a group in Pattern whose text becomes Intent.Arg.
	Capture string `yaml:"capture,omitempty"`
}

// RuleSet holds the ordered rule table of each context.
type RuleSet map[Context][]Rule

// DefaultRules returns the embedded rule tables.
func DefaultRules() RuleSet {
	rs, err := LoadRules(bytes.NewReader(defaultRules))
	if err != nil {
		panic(fmt.Sprintf("intent: embedded rules: %v", err))
	}
	return rs
}

// LoadRules decodes a YAML rule document.
func LoadRules(r io.Reader) (RuleSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidRule, err)
	}
	return rs, nil
}

// LoadRulesFile reads a YAML rule document from path.
func LoadRulesFile(path string) (RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("intent: open rules: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}
