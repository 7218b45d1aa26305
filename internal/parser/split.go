package parser

import "strings"

// Split breaks a submission into individual statements on ';'.
//
// Semicolons inside single-quoted, double-quoted or back-quoted sections do
// not split. Doubled quotes ('it''s') toggle twice and therefore stay inside
// the literal. Comments (-- to end of line, /* ... */) outside quotes are
// removed, so quotes and semicolons inside them have no effect. Statements
// are trimmed; blank ones are dropped.
func Split(sql string) []string {
	var (
		stmts []string
		cur   strings.Builder
		quote byte
	)
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				i = len(sql)
				continue
			}
			i += end
			c = '\n'
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				i = len(sql)
				continue
			}
			i += end + 3
			c = ' '
		case c == ';':
			stmts = appendStatement(stmts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return appendStatement(stmts, cur.String())
}

func appendStatement(stmts []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return stmts
	}
	return append(stmts, s)
}
