package intent

import (
	"errors"
	"fmt"
	"regexp"
)

type compiledRule struct {
	re      *regexp.Regexp
	kind    Kind
	arg     string
	capture int // group index, 0 when unused
}

// Matcher evaluates rule tables. It is immutable after construction and safe
// for concurrent use.
type Matcher struct {
	tables map[Context][]compiledRule
}

// NewMatcher compiles rs. Every pattern must compile, every kind must be
// known, every context must be a screen context and every capture must name a
// group of its pattern.
func NewMatcher(rs RuleSet) (*Matcher, error) {
	known := make(map[Context]bool, len(Contexts))
	for _, c := range Contexts {
		known[c] = true
	}

	m := &Matcher{tables: make(map[Context][]compiledRule, len(rs))}
	for ctx, rules := range rs {
		if !known[ctx] {
			return nil, fmt.Errorf("%w: unknown context %q", ErrInvalidRule, ctx)
		}
		table := make([]compiledRule, 0, len(rules))
		for i, r := range rules {
			cr, err := compileRule(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %s[%d]: %v", ErrInvalidRule, ctx, i, err)
			}
			table = append(table, cr)
		}
		m.tables[ctx] = table
	}
	return m, nil
}

// DefaultMatcher compiles the embedded rule tables.
func DefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultRules())
	if err != nil {
		panic(err)
	}
	return m
}

func compileRule(r Rule) (compiledRule, error) {
	if !r.Kind.Valid() {
		return compiledRule{}, fmt.Errorf("unknown kind %q", r.Kind)
	}
	if r.Pattern == "" {
		return compiledRule{}, errors.New("empty pattern")
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return compiledRule{}, err
	}
	cr := compiledRule{re: re, kind: r.Kind, arg: r.Arg}
	if r.Capture != "" {
		idx := re.SubexpIndex(r.Capture)
		if idx < 0 {
			return compiledRule{}, fmt.Errorf("pattern has no group %q", r.Capture)
		}
		cr.capture = idx
	}
	return cr, nil
}

// Match returns the candidate intents for normalized text in ctx. The result
// always has exactly one element: the intent of the first matching rule, or
// Unrecognized. Unknown contexts yield Unrecognized.
func (m *Matcher) Match(normalized string, ctx Context) []Intent {
	for _, r := range m.tables[ctx] {
		in, ok := r.apply(normalized)
		if !ok {
			continue
		}
		in.Text = normalized
		in.Context = ctx
		return []Intent{in}
	}
	un := Unrecognized()
	un.Text = normalized
	un.Context = ctx
	return []Intent{un}
}

// Primary is Match(...)[0].
func (m *Matcher) Primary(normalized string, ctx Context) Intent {
	return m.Match(normalized, ctx)[0]
}

// Rules reports how many rules ctx has.
func (m *Matcher) Rules(ctx Context) int {
	return len(m.tables[ctx])
}

func (r compiledRule) apply(s string) (Intent, bool) {
	if r.kind == KindDigits {
		if !r.re.MatchString(s) {
			return Intent{}, false
		}
		d := ExtractDigits(s)
		if d == "" {
			return Intent{}, false
		}
		return Digits(d), true
	}

	in := Intent{Kind: r.kind}
	if r.capture > 0 {
		sub := r.re.FindStringSubmatch(s)
		if sub == nil {
			return Intent{}, false
		}
		in.Arg = sub[r.capture]
	} else {
		if !r.re.MatchString(s) {
			return Intent{}, false
		}
		in.Arg = r.arg
	}
	return in, true
}
