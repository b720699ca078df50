// Package orders provides order lookup: the safe default query, validation
// of model-proposed queries, and the SQLite-backed store.
package orders

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultOrderID is used when no order number can be extracted from the
// question.
const DefaultOrderID = "20251114001"

// fallbackSQL is the guaranteed-safe query executed when a proposal is
// rejected or fails. Placeholders use %s and are translated to the driver
// placeholder at execution time.
const fallbackSQL = "SELECT order_id, status, amount, updated_at, start_time FROM orders WHERE order_id = %s LIMIT 1"

var orderIDPattern = regexp.MustCompile(`\d{3,20}`)

// ExtractOrderID pulls the first 3-20 digit run out of the text, without
// any # prefix. Returns DefaultOrderID when nothing matches.
func ExtractOrderID(text string) string {
	if m := orderIDPattern.FindString(text); m != "" {
		return m
	}
	return DefaultOrderID
}

// DefaultQuery builds the safe fallback query and parameters for a
// question.
func DefaultQuery(text string) (string, []string) {
	return fallbackSQL, []string{ExtractOrderID(text)}
}

// Proposal is a validated model-proposed query.
type Proposal struct {
	SQL    string
	Params []string
}

// Validation errors.
var (
	ErrNotSelect    = errors.New("proposal is not a SELECT")
	ErrWrongTable   = errors.New("proposal does not query the orders table")
	ErrNoTimeColumn = errors.New("proposal omits the start_time column")
	ErrNoPlaceholder = errors.New("proposal has no parameter placeholders")
	ErrNoParams     = errors.New("proposal has no parameters")
)

// ValidateProposal checks a model-proposed query's shape: it must be a
// SELECT against the orders table, reference the start_time column, use
// positional %s placeholders, and carry a non-empty parameter list. Params
// are coerced to strings with any # prefix stripped. Any mismatch rejects
// the proposal; the caller substitutes the safe fallback.
func ValidateProposal(sqlText string, params []any) (Proposal, error) {
	t := strings.ToLower(sqlText)
	switch {
	case !strings.Contains(t, "select"):
		return Proposal{}, ErrNotSelect
	case !strings.Contains(t, "from orders"):
		return Proposal{}, ErrWrongTable
	case !strings.Contains(t, "start_time"):
		return Proposal{}, ErrNoTimeColumn
	case !strings.Contains(t, "%s"):
		return Proposal{}, ErrNoPlaceholder
	case len(params) == 0:
		return Proposal{}, ErrNoParams
	}

	out := make([]string, len(params))
	for i, p := range params {
		out[i] = strings.TrimPrefix(stringify(p), "#")
	}
	return Proposal{SQL: sqlText, Params: out}, nil
}

// stringify renders a parameter without the exponent notation fmt would
// use for JSON-decoded numbers.
func stringify(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

var startTimeKeywords = []string{"开课", "开课时间", "什么时候开课"}

// TimeSensitive reports whether the question asks about the course start
// time; such questions require the start_time field to be present.
func TimeSensitive(question string) bool {
	for _, k := range startTimeKeywords {
		if strings.Contains(question, k) {
			return true
		}
	}
	return false
}
