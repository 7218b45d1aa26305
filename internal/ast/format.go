package ast

import (
	"strconv"
	"strings"
)

// Format renders an expression as SQL text.
//
// The output is stable: identical trees always render identically, which lets
// ORDER BY keys be matched against select items by text. Function names are
// upper-cased, identifiers are emitted as written.
func Format(expr Expr) string {
	var b strings.Builder
	writeExpr(&b, expr)
	return b.String()
}

func writeExpr(b *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case nil:
		b.WriteString("NULL")
	case *ColumnRef:
		if e.Table != "" {
			b.WriteString(e.Table)
			b.WriteByte('.')
		}
		b.WriteString(e.Column)
	case *Literal:
		writeLiteral(b, e.Value)
	case *Binary:
		writeOperand(b, e.Left)
		b.WriteByte(' ')
		b.WriteString(e.Op)
		b.WriteByte(' ')
		writeOperand(b, e.Right)
	case *Unary:
		if e.Op == OpNot {
			b.WriteString("NOT ")
		} else {
			b.WriteString(e.Op)
		}
		writeOperand(b, e.Expr)
	case *List:
		b.WriteByte('(')
		for i, item := range e.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, item)
		}
		b.WriteByte(')')
	case *Func:
		b.WriteString(strings.ToUpper(e.Name))
		b.WriteByte('(')
		if e.Distinct {
			b.WriteString("DISTINCT ")
		}
		if e.Star {
			b.WriteByte('*')
		}
		for i, arg := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, arg)
		}
		b.WriteByte(')')
	case *Cast:
		b.WriteString("CAST(")
		writeExpr(b, e.Expr)
		b.WriteString(" AS ")
		b.WriteString(strings.ToUpper(e.Type))
		b.WriteByte(')')
	case *Unsupported:
		b.WriteByte('<')
		b.WriteString(e.Kind)
		b.WriteByte('>')
	}
}

// writeOperand parenthesizes nested binary expressions so precedence survives.
func writeOperand(b *strings.Builder, expr Expr) {
	if _, ok := expr.(*Binary); ok {
		b.WriteByte('(')
		writeExpr(b, expr)
		b.WriteByte(')')
		return
	}
	writeExpr(b, expr)
}

func writeLiteral(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("NULL")
	case string:
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(val, "'", "''"))
		b.WriteByte('\'')
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		if val {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	}
}
