package ast

import (
	"regexp"
	"strings"
)

var identifierShape = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// Identifier normalizes an expression fragment into a plain column name.
//
// Dialects disagree on how a bare name arrives: a column reference, a
// double-quoted string literal, or an identifier-shaped constant. Every call
// site that needs "the name this node refers to" goes through here instead of
// switching on node kinds itself.
//
// Qualified references keep their qualifier ("t.col"). Returns false when
// the expression does not denote a name.
func Identifier(expr Expr) (string, bool) {
	switch e := expr.(type) {
	case *ColumnRef:
		if e.Column == "" {
			return "", false
		}
		if e.Table != "" {
			return e.Table + "." + e.Column, true
		}
		return e.Column, true
	case *Literal:
		s, ok := e.Value.(string)
		if !ok || !identifierShape.MatchString(s) {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

// Identifiers normalizes a list of expressions, dropping entries that do not
// denote a name.
func Identifiers(exprs []Expr) []string {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if name, ok := Identifier(e); ok {
			out = append(out, name)
		}
	}
	return out
}

// Unqualified strips a leading "table." prefix from a column name.
func Unqualified(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ColumnName returns the output name of a projection item: the alias, the
// bare column name, the lower-cased function name, or the formatted text.
func ColumnName(item SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	switch e := item.Expr.(type) {
	case *ColumnRef:
		return e.Column
	case *Func:
		return strings.ToLower(e.Name)
	}
	return Format(item.Expr)
}
