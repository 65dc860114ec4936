// internal/rules/ruleset.go
package rules

import (
	"fmt"
	"slices"

	"github.com/solatis/beacon/internal/types"
)

/*
 * RuleSet evaluation.
 *
 * Decision policy, in fixed order:
 *   1. any reject rule matches -> deny (reject takes precedence)
 *   2. any accept rule matches -> allow
 *   3. otherwise               -> deny (no explicit accept is not an allow)
 *
 * Rule sets are validated when they are built (NewRuleSet, ParseRuleSet),
 * not when they are matched. Raw declarations decoded from JSON or YAML may
 * carry "accept"/"reject" as a single string or a list; both normalize to
 * a list before compilation.
 */

// RuleSet is an accept-list/reject-list pair governing context attachment.
// Empty lists are valid and mean "no rules of that kind".
type RuleSet struct {
	Accept []string
	Reject []string

	accept []Rule
	reject []Rule
}

// NewRuleSet validates and compiles accept and reject rules.
// Returns an error wrapping ErrInvalidRuleSet if any rule is invalid.
func NewRuleSet(accept, reject []string) (RuleSet, error) {
	compiledAccept, err := compileAll(accept)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: accept: %w", types.ErrInvalidRuleSet, err)
	}
	compiledReject, err := compileAll(reject)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: reject: %w", types.ErrInvalidRuleSet, err)
	}
	return RuleSet{
		Accept: slices.Clone(accept),
		Reject: slices.Clone(reject),
		accept: compiledAccept,
		reject: compiledReject,
	}, nil
}

// ParseRuleSet builds a RuleSet from a decoded declaration.
// Only "accept" and "reject" keys are allowed; each must satisfy IsValidRuleSetArg.
func ParseRuleSet(raw map[string]any) (RuleSet, error) {
	var accept, reject []string
	for key, val := range raw {
		rules, ok := normalizeRuleSetArg(val)
		if !ok {
			return RuleSet{}, fmt.Errorf("%w: %s must be a rule or list of rules", types.ErrInvalidRuleSet, key)
		}
		switch key {
		case "accept":
			accept = rules
		case "reject":
			reject = rules
		default:
			return RuleSet{}, fmt.Errorf("%w: unknown key %q", types.ErrInvalidRuleSet, key)
		}
	}
	return NewRuleSet(accept, reject)
}

// IsValidRuleSetArg reports whether arg is a valid rule or list of valid rules.
func IsValidRuleSetArg(arg any) bool {
	rules, ok := normalizeRuleSetArg(arg)
	if !ok {
		return false
	}
	for _, r := range rules {
		if !IsValidRule(r) {
			return false
		}
	}
	return true
}

// IsRuleSet reports whether a decoded value has the rule set shape:
// an object whose only keys are "accept"/"reject", each holding valid rules.
func IsRuleSet(raw any) bool {
	m, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["accept"]; !ok {
		if _, ok := m["reject"]; !ok {
			return false
		}
	}
	for key, val := range m {
		if key != "accept" && key != "reject" {
			return false
		}
		if !IsValidRuleSetArg(val) {
			return false
		}
	}
	return true
}

// normalizeRuleSetArg turns a string, []string or []any of strings into a list.
// A nil value normalizes to an empty list.
func normalizeRuleSetArg(arg any) ([]string, bool) {
	switch v := arg.(type) {
	case nil:
		return nil, true
	case string:
		return []string{v}, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Equal reports structural equality of accept and reject lists.
func (rs RuleSet) Equal(other RuleSet) bool {
	return slices.Equal(rs.Accept, other.Accept) && slices.Equal(rs.Reject, other.Reject)
}

// Matches applies the decision policy to a parsed schema.
func (rs RuleSet) Matches(schema SchemaParts) bool {
	for _, r := range compiledOrFallback(rs.Reject, rs.reject) {
		if r.Matches(schema) {
			return false
		}
	}
	for _, r := range compiledOrFallback(rs.Accept, rs.accept) {
		if r.Matches(schema) {
			return true
		}
	}
	return false
}

// MatchSchemaAgainstRuleSet applies the decision policy to a schema string.
// Unparseable schemas are denied.
func MatchSchemaAgainstRuleSet(rs RuleSet, schema string) bool {
	parts, ok := GetSchemaParts(schema)
	if !ok {
		return false
	}
	return rs.Matches(parts)
}

// compiledOrFallback returns pre-compiled rules, compiling on demand for
// RuleSet literals that bypassed NewRuleSet. Invalid rules are skipped.
func compiledOrFallback(sources []string, compiled []Rule) []Rule {
	if len(compiled) == len(sources) {
		return compiled
	}
	out := make([]Rule, 0, len(sources))
	for _, s := range sources {
		if c, err := Compile(s); err == nil {
			out = append(out, c)
		}
	}
	return out
}
