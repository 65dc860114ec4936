// internal/rules/evaluate.go
package rules

/*
 * Rule evaluation.
 *
 * Matches a compiled Rule against a parsed schema, part by part. Every part
 * must match for the rule to match.
 *
 * Vendor semantics: segments compare positionally. A schema with fewer
 * vendor segments than the rule never matches. Extra schema segments are
 * absorbed only when the rule's last vendor segment is a wildcard, so
 * "com.acme.*" matches "com.acme.sub.module" but "com.acme" matches only
 * "com.acme".
 *
 * Fail-closed: unparseable schemas or invalid rules return false instead of
 * an error. Matching is pure; identical inputs always give identical output.
 */

// Matches reports whether the compiled rule matches a parsed schema.
func (r Rule) Matches(schema SchemaParts) bool {
	vendor := r.vendor
	if vendor == nil {
		vendor = r.Parts.VendorParts()
	}
	if !matchVendor(vendor, schema.VendorParts()) {
		return false
	}
	return matchPart(r.Parts.Name, schema.Name) &&
		matchPart(r.Parts.Format, schema.Format) &&
		matchPart(r.Parts.Model, schema.Model) &&
		matchPart(r.Parts.Revision, schema.Revision) &&
		matchPart(r.Parts.Addition, schema.Addition)
}

// MatchSchemaAgainstRule parses both strings and matches them.
// Returns false if either fails to parse or the rule is invalid.
func MatchSchemaAgainstRule(rule, schema string) bool {
	compiled, err := Compile(rule)
	if err != nil {
		return false
	}
	parts, ok := GetSchemaParts(schema)
	if !ok {
		return false
	}
	return compiled.Matches(parts)
}

// matchVendor compares vendor segments, letting a trailing wildcard absorb the rest.
func matchVendor(rule, vendor []string) bool {
	if len(vendor) < len(rule) {
		return false
	}
	if len(vendor) > len(rule) && rule[len(rule)-1] != Wildcard {
		return false
	}
	for i, part := range rule {
		if part != Wildcard && part != vendor[i] {
			return false
		}
	}
	return true
}

// matchPart matches a single non-vendor position.
func matchPart(rule, value string) bool {
	return rule == Wildcard || rule == value
}
