// internal/rules/schema.go
package rules

import (
	"regexp"
	"strings"
)

/*
 * Schema identifier parsing.
 *
 * Splits "iglu:vendor/name/format/model-revision-addition" strings into
 * SchemaParts. The "iglu:" prefix is optional. Parsing never returns an
 * error: malformed input yields ok=false and every matcher built on top of
 * it fails closed.
 *
 * Key functions:
 *   - GetSchemaParts: concrete schema strings (no wildcards)
 *   - ValidateVendor / ValidateVendorParts: wildcard grammar for rule vendors
 *
 * Vendor grammar: zero or more concrete segments followed by zero or more
 * "*" segments. A concrete segment after a wildcard is rejected, so
 * "com.*.acme" never becomes a rule.
 */

// Wildcard is the token matching any value in a rule segment.
const Wildcard = "*"

const igluPrefix = "iglu:"

var (
	vendorSegmentPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	identifierPattern    = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	versionPattern       = regexp.MustCompile(`^[0-9]+$`)
)

// SchemaParts is the structural decomposition of a schema string or rule.
// Derived purely from its source string; never mutated after parsing.
type SchemaParts struct {
	Vendor   string // dot-separated reverse-domain segments
	Name     string
	Format   string // "jsonschema" for every known schema
	Model    string
	Revision string
	Addition string
}

// VendorParts returns the dot-separated vendor segments.
func (p SchemaParts) VendorParts() []string {
	return strings.Split(p.Vendor, ".")
}

// Version returns the MODEL-REVISION-ADDITION suffix.
func (p SchemaParts) Version() string {
	return p.Model + "-" + p.Revision + "-" + p.Addition
}

// String renders the parts back into the canonical "iglu:" form.
func (p SchemaParts) String() string {
	return igluPrefix + p.Vendor + "/" + p.Name + "/" + p.Format + "/" + p.Version()
}

// splitSchema applies the fixed delimiter structure shared by schemas and rules.
// Checks segment counts only; character classes are validated by callers.
func splitSchema(input string) (SchemaParts, bool) {
	segments := strings.Split(strings.TrimPrefix(input, igluPrefix), "/")
	if len(segments) != 4 {
		return SchemaParts{}, false
	}
	version := strings.Split(segments[3], "-")
	if len(version) != 3 {
		return SchemaParts{}, false
	}
	return SchemaParts{
		Vendor:   segments[0],
		Name:     segments[1],
		Format:   segments[2],
		Model:    version[0],
		Revision: version[1],
		Addition: version[2],
	}, true
}

// GetSchemaParts parses a concrete schema identifier.
// Returns ok=false for wrong segment counts, wildcards, or non-numeric versions.
func GetSchemaParts(schema string) (SchemaParts, bool) {
	parts, ok := splitSchema(schema)
	if !ok {
		return SchemaParts{}, false
	}
	if parts.Vendor == "" {
		return SchemaParts{}, false
	}
	for _, seg := range parts.VendorParts() {
		if !vendorSegmentPattern.MatchString(seg) {
			return SchemaParts{}, false
		}
	}
	if !identifierPattern.MatchString(parts.Name) || !identifierPattern.MatchString(parts.Format) {
		return SchemaParts{}, false
	}
	for _, v := range []string{parts.Model, parts.Revision, parts.Addition} {
		if !versionPattern.MatchString(v) {
			return SchemaParts{}, false
		}
	}
	return parts, true
}

// ValidateVendor reports whether a rule vendor obeys the wildcard grammar.
// An empty vendor is invalid; a lone "*" is valid.
func ValidateVendor(vendor string) bool {
	if vendor == "" {
		return false
	}
	return ValidateVendorParts(strings.Split(vendor, "."))
}

// ValidateVendorParts checks already-split vendor segments.
// Once a wildcard appears every following segment must also be a wildcard.
func ValidateVendorParts(parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	wildcard := false
	for _, part := range parts {
		switch {
		case part == Wildcard:
			wildcard = true
		case wildcard:
			return false
		case !vendorSegmentPattern.MatchString(part):
			return false
		}
	}
	return true
}
