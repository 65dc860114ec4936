// internal/rules/compile.go
package rules

import (
	"fmt"

	"github.com/solatis/beacon/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles a rule string into a Rule holding pre-split parts so matching
 * never re-parses the pattern. Validation happens here, at rule creation
 * time, rather than at match time: an invalid rule is rejected outright
 * and can never silently match.
 *
 * Rule grammar per position:
 *   - vendor: ValidateVendor (concrete segments, then trailing wildcards)
 *   - name/format: "*" or identifier characters
 *   - model/revision/addition: "*" or non-negative integer
 */

// Rule is a validated schema pattern ready for matching.
type Rule struct {
	Source string
	Parts  SchemaParts
	vendor []string // pre-split vendor segments
}

// GetRuleParts parses and validates a rule string.
// Returns ok=false if any position violates the rule grammar.
func GetRuleParts(rule string) (SchemaParts, bool) {
	parts, ok := splitSchema(rule)
	if !ok {
		return SchemaParts{}, false
	}
	if !ValidateVendor(parts.Vendor) {
		return SchemaParts{}, false
	}
	for _, ident := range []string{parts.Name, parts.Format} {
		if ident != Wildcard && !identifierPattern.MatchString(ident) {
			return SchemaParts{}, false
		}
	}
	for _, v := range []string{parts.Model, parts.Revision, parts.Addition} {
		if v != Wildcard && !versionPattern.MatchString(v) {
			return SchemaParts{}, false
		}
	}
	return parts, true
}

// IsValidRule reports whether rule parses under the wildcard grammar.
func IsValidRule(rule string) bool {
	_, ok := GetRuleParts(rule)
	return ok
}

// Compile validates a rule string and pre-splits it for matching.
// Returns an error wrapping ErrInvalidRule for grammar violations.
func Compile(rule string) (Rule, error) {
	parts, ok := GetRuleParts(rule)
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", types.ErrInvalidRule, rule)
	}
	return Rule{
		Source: rule,
		Parts:  parts,
		vendor: parts.VendorParts(),
	}, nil
}

// compileAll compiles every rule, stopping at the first invalid one.
func compileAll(rules []string) ([]Rule, error) {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		c, err := Compile(r)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}
