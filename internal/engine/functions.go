package engine

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
)

// Timestamp layouts produced by NOW().
const (
	localTimestampLayout = "2006-01-02T15:04:05"
	utcTimestampLayout   = "2006-01-02T15:04:05.000Z"
	dateLayout           = "2006-01-02"
)

// dateInputLayouts are tried in order when a function parses a date argument.
var dateInputLayouts = []string{
	time.RFC3339Nano,
	utcTimestampLayout,
	localTimestampLayout,
	"2006-01-02 15:04:05",
	dateLayout,
}

// callFunction evaluates a scalar function call. Dispatch is
// case-insensitive; unknown names log a warning and evaluate to nil.
func (r *run) callFunction(f *ast.Func, rw *row.Row) any {
	args := make([]any, len(f.Args))
	for i, a := range f.Args {
		args[i] = r.eval(a, rw)
	}

	switch strings.ToUpper(f.Name) {
	case "NOW", "CURRENT_TIMESTAMP":
		tz := ""
		if len(args) > 0 && args[0] != nil {
			tz = row.String(args[0])
		}
		return r.now(tz)
	case "CURDATE", "CURRENT_DATE":
		return r.clock.Now().UTC().Format(dateLayout)
	case "CONCAT":
		return concat(args...)
	case "CAST":
		// CAST spelled as a function call keeps its argument unchanged.
		if len(args) == 0 {
			return nil
		}
		return args[0]
	case "ADD_DAYS":
		return r.addDays(args)
	case "UUID":
		return r.pseudoUUID()
	case "DATE_ADD", "DATE_SUB":
		// Interval arithmetic is not implemented; both return today's date.
		return r.clock.Now().UTC().Format(dateLayout)
	case "LOWER":
		return mapText(args, strings.ToLower)
	case "UPPER":
		return mapText(args, strings.ToUpper)
	case "LENGTH", "CHAR_LENGTH":
		if len(args) == 0 || args[0] == nil {
			return nil
		}
		return float64(utf8.RuneCountInString(row.String(args[0])))
	case "COALESCE", "IFNULL":
		for _, a := range args {
			if a != nil {
				return a
			}
		}
		return nil
	case "ABS":
		if len(args) == 0 {
			return nil
		}
		n, ok := row.Number(args[0])
		if !ok {
			return nil
		}
		return math.Abs(n)
	case "ROUND":
		return round(args)
	default:
		r.logger.Warn("unknown function", "function", f.Name)
		return nil
	}
}

// now formats the current time in tz (or the session timezone) without a
// zone suffix, or as UTC ISO-8601 with milliseconds when no timezone
// resolves.
func (r *run) now(tz string) string {
	t := r.clock.Now()
	loc := r.sess.Location()
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			r.logger.Warn("unknown timezone, using UTC", "timezone", tz)
			loc = nil
		} else {
			loc = l
		}
	}
	if loc == nil {
		return t.UTC().Format(utcTimestampLayout)
	}
	return t.In(loc).Format(localTimestampLayout)
}

// addDays implements ADD_DAYS(date, n). An unparseable date falls back to
// the current UTC date.
func (r *run) addDays(args []any) string {
	today := r.clock.Now().UTC().Format(dateLayout)
	if len(args) < 2 || args[0] == nil {
		return today
	}
	d, ok := parseDate(row.String(args[0]))
	if !ok {
		return today
	}
	n, ok := row.Number(args[1])
	if !ok {
		return today
	}
	return d.AddDate(0, 0, int(n)).Format(dateLayout)
}

// pseudoUUID returns a time-based identifier with a random suffix. It is not
// an RFC 4122 UUID and is not suitable where unpredictability matters.
func (r *run) pseudoUUID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var suffix [9]byte
	for i := range suffix {
		suffix[i] = alphabet[r.rand.IntN(len(alphabet))]
	}
	return strconv.FormatInt(r.clock.Now().UnixMilli(), 36) + string(suffix[:])
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func mapText(args []any, fn func(string) string) any {
	if len(args) == 0 || args[0] == nil {
		return nil
	}
	return fn(row.String(args[0]))
}

// round implements ROUND(x[, digits]), rounding half away from zero.
func round(args []any) any {
	if len(args) == 0 {
		return nil
	}
	n, ok := row.Number(args[0])
	if !ok {
		return nil
	}
	digits := 0.0
	if len(args) > 1 {
		if d, ok := row.Number(args[1]); ok {
			digits = math.Trunc(d)
		}
	}
	scale := math.Pow(10, digits)
	return finite(math.Round(n*scale) / scale)
}
