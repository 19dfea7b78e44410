package sqlbuilder

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/model"
)

// blockedKeywords are rejected as standalone SQL keyword tokens, never as
// substrings, so a column named update_count stays legal.
var blockedKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER",
	"TRUNCATE", "CREATE", "GRANT", "REVOKE",
}

var (
	blockedKeywordRe = regexp.MustCompile(`(?i)\b(` + strings.Join(blockedKeywords, "|") + `)\b`)
	unionRe          = regexp.MustCompile(`(?i)\bUNION\b`)
	limitClauseRe    = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
)

// BuildRaw sanitizes and bounds caller-supplied SQL. The filters run in a
// fixed order and each match is a hard reject; a statement that comes out the
// other side contains no blocked keyword, no multi-statement separator, no
// comment syntax, no UNION, and begins with SELECT.
func BuildRaw(args model.RawQueryArgs, timeout time.Duration) (Statement, error) {
	sql := strings.TrimSpace(args.SQL)
	if sql == "" {
		return Statement{}, apperr.New(apperr.KindUnsafeQuery, "empty query")
	}

	// 1. Blocked keywords, token-boundary aware.
	if m := blockedKeywordRe.FindString(sql); m != "" {
		return Statement{}, apperr.New(apperr.KindUnsafeQuery,
			"blocked keyword %q", strings.ToUpper(m))
	}

	// 2. Statement separators. A single trailing terminator is stripped;
	// any other semicolon means multiple statements.
	sql = strings.TrimSpace(strings.TrimSuffix(sql, ";"))
	if strings.Contains(sql, ";") {
		return Statement{}, apperr.New(apperr.KindUnsafeQuery,
			"multiple statements are not allowed")
	}

	// 3. Comment tokens, rejected unconditionally.
	if strings.Contains(sql, "--") || strings.Contains(sql, "/*") {
		return Statement{}, apperr.New(apperr.KindUnsafeQuery,
			"SQL comments are not allowed")
	}

	// 4. UNION.
	if unionRe.MatchString(sql) {
		return Statement{}, apperr.New(apperr.KindUnsafeQuery,
			"UNION is not allowed")
	}

	// 5. Must be a SELECT.
	if !hasSelectPrefix(sql) {
		return Statement{}, apperr.New(apperr.KindUnsafeQuery,
			"only SELECT queries are allowed")
	}

	sql = boundLimit(sql)

	return Statement{SQL: sql, MaxRows: MaxRows, Timeout: timeout}, nil
}

func hasSelectPrefix(sql string) bool {
	if len(sql) < len("SELECT") {
		return false
	}
	head := strings.ToUpper(sql[:len("SELECT")])
	if head != "SELECT" {
		return false
	}
	// "SELECTX" must not pass; require a boundary after the keyword.
	if len(sql) > len("SELECT") {
		c := sql[len("SELECT")]
		return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '('
	}
	return false
}

// boundLimit guarantees the executed statement carries a LIMIT of at most
// MaxRows: appended when absent, clamped downward when the caller supplied a
// larger one. Clamping touches every LIMIT occurrence, including subqueries —
// an accepted over-restriction in exchange for a hard row bound.
func boundLimit(sql string) string {
	if !limitClauseRe.MatchString(sql) {
		return sql + " LIMIT " + strconv.Itoa(MaxRows)
	}
	return limitClauseRe.ReplaceAllStringFunc(sql, func(clause string) string {
		sub := limitClauseRe.FindStringSubmatch(clause)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n > MaxRows {
			return clause[:len(clause)-len(sub[1])] + strconv.Itoa(MaxRows)
		}
		return clause
	})
}
