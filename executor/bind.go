package executor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/numkem/sqlscript"
)

// Params maps placeholder names to the values bound at execution time.
// Named placeholders (:name or @name) bind by key. The i-th bare ? binds
// from the key "param_<i>", counting from zero.
type Params map[string]any

// Matches @name and :name placeholders plus bare ? markers. Script bodies
// are opaque: no SQL parsing beyond this.
var placeholderRe = regexp.MustCompile(`@(\w+)|:(\w+)|\?`)

// bindParams rewrites every placeholder in sqlText to a positional ? and
// collects the bound values in order. Every placeholder must have a value in
// params; a missing key fails before the driver is ever invoked.
func bindParams(script, sqlText string, params Params) (string, []any, error) {
	var args []any
	var bindErr error
	ordinal := 0

	bound := placeholderRe.ReplaceAllStringFunc(sqlText, func(m string) string {
		if bindErr != nil {
			return m
		}

		var key string
		if m == "?" {
			key = "param_" + strconv.Itoa(ordinal)
			ordinal++
		} else {
			key = m[1:]
		}

		value, found := params[key]
		if !found {
			bindErr = &sqlscript.ParameterBindingError{Script: script, Key: key}
			return m
		}

		args = append(args, value)
		return "?"
	})
	if bindErr != nil {
		return "", nil, bindErr
	}

	return bound, args, nil
}

// rebindDollar rewrites ? placeholders into the $1, $2, ... form expected by
// postgres drivers.
func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		b.WriteRune(c)
	}

	return b.String()
}

var returningRe = regexp.MustCompile(`(?i)\breturning\b`)

// returnsRows reports whether the statement is expected to produce a result
// set, based on its leading keyword plus a RETURNING clause check for writes.
func returnsRows(sqlText string) bool {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "select", "with", "values", "show", "pragma", "explain", "describe":
		return true
	case "insert", "update", "delete":
		return returningRe.MatchString(sqlText)
	}

	return false
}
