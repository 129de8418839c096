package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxQueryLength is the hard cap on submitted query text.
const MaxQueryLength = 5000

// BlockedKeywords are statement and keyword tokens that must never reach the
// data source. Matched case-insensitively on word boundaries so identifiers
// that merely contain a keyword (e.g. an "updated_at" column) pass.
var BlockedKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER",
	"CREATE", "TRUNCATE", "GRANT", "REVOKE", "EXEC",
	"EXECUTE", "PRAGMA", "ATTACH", "DETACH", "VACUUM",
	"REINDEX", "REPLACE", "UPSERT", "MERGE",
}

var (
	// Comments are stripped for keyword scanning only; the sanitized
	// original (comments intact) is what gets executed.
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// A terminator followed by anything non-whitespace means a second
	// statement was smuggled in.
	multiStatementRe = regexp.MustCompile(`;\s*\S`)

	blockedKeywordRes = make([]*regexp.Regexp, len(BlockedKeywords))

	suspiciousPatterns = []struct {
		re      *regexp.Regexp
		message string
	}{
		{regexp.MustCompile(`INTO\s+OUTFILE`), "INTO OUTFILE is not allowed"},
		{regexp.MustCompile(`INTO\s+DUMPFILE`), "INTO DUMPFILE is not allowed"},
		{regexp.MustCompile(`\bLOAD_FILE\b`), "LOAD_FILE is not allowed"},
		{regexp.MustCompile(`\bBENCHMARK\s*\(`), "BENCHMARK is not allowed"},
		{regexp.MustCompile(`\bSLEEP\s*\(`), "SLEEP is not allowed"},
	}
)

func init() {
	for i, kw := range BlockedKeywords {
		blockedKeywordRes[i] = regexp.MustCompile(`\b` + kw + `\b`)
	}
}

// Validator is the lexical safety gate in front of the executor. It is pure
// and stateless: the same input always yields the same verdict.
type Validator struct{}

// NewValidator returns a ready-to-use validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Sanitize trims the query, normalizes line endings, and strips a single
// trailing statement terminator. Comments are left intact.
func (v *Validator) Sanitize(query string) string {
	query = strings.ReplaceAll(query, "\r\n", "\n")
	query = strings.ReplaceAll(query, "\r", "\n")
	query = strings.TrimSpace(query)
	if strings.HasSuffix(query, ";") {
		query = strings.TrimSpace(strings.TrimSuffix(query, ";"))
	}
	return query
}

// Validate applies the safety rules in order; the first failure wins.
// It returns (false, reason) on rejection and (true, "") on admission.
func (v *Validator) Validate(query string) (bool, string) {
	if strings.TrimSpace(query) == "" {
		return false, "Query cannot be empty"
	}

	query = v.Sanitize(query)

	noComments := blockCommentRe.ReplaceAllString(query, "")
	noComments = lineCommentRe.ReplaceAllString(noComments, "")
	upper := strings.ToUpper(strings.TrimSpace(noComments))

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return false, "Only SELECT queries are allowed. Your query must start with SELECT or WITH."
	}

	for i, re := range blockedKeywordRes {
		if re.MatchString(upper) {
			return false, fmt.Sprintf("Forbidden keyword detected: %s. Only SELECT queries are allowed.", BlockedKeywords[i])
		}
	}

	if multiStatementRe.MatchString(query) {
		return false, "Multiple statements are not allowed. Please submit one query at a time."
	}

	if len(query) > MaxQueryLength {
		return false, fmt.Sprintf("Query is too long. Maximum %d characters allowed.", MaxQueryLength)
	}

	for _, p := range suspiciousPatterns {
		if p.re.MatchString(upper) {
			return false, p.message
		}
	}

	return true, ""
}
