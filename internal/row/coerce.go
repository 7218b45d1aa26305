package row

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize converts a Go value into the row scalar domain.
//
// Integer and float kinds become float64, json.Number is parsed, non-finite
// floats become nil. Strings, bools and nil pass through. Anything else is
// rendered with fmt.
func Normalize(v any) any {
	switch n := v.(type) {
	case nil, string, bool:
		return n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return n
	case float32:
		return Normalize(float64(n))
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return Normalize(f)
		}
		return n.String()
	case fmt.Stringer:
		return n.String()
	default:
		return fmt.Sprint(n)
	}
}

// Number coerces a scalar to a number the way JavaScript's Number() does,
// except that nil is not a number. The boolean result is false when the
// coercion yields NaN.
//
//	Number("12")    → 12, true
//	Number(" 1e3 ") → 1000, true
//	Number("")      → 0, true
//	Number(true)    → 1, true
//	Number("12abc") → NaN, false
//	Number(nil)     → NaN, false
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(n)
	case nil:
		return math.NaN(), false
	default:
		return Number(Normalize(v))
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			i, err := strconv.ParseInt(s, 0, 64)
			if err != nil {
				return math.NaN(), false
			}
			return float64(i), true
		}
	}
	// strconv accepts spellings JavaScript rejects ("inf", "nan", hex floats).
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN(), false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

// IsNumeric reports whether v coerces to a finite number. Empty and
// whitespace-only strings are not numeric.
func IsNumeric(v any) bool {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return false
	}
	f, ok := Number(v)
	return ok && !math.IsInf(f, 0)
}

// String coerces a scalar to text the way JavaScript's String() does.
//
//	String(nil)  → "null"
//	String(3.0)  → "3"
//	String(0.5)  → "0.5"
//	String(true) → "true"
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		return FormatNumber(s)
	default:
		return String(Normalize(v))
	}
}

// FormatNumber renders a float64 using JavaScript number-to-string rules:
// integers carry no decimal point and very large or small magnitudes use
// exponent notation.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + string(sign) + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy reports whether a scalar counts as true in a boolean context.
// nil, false, 0 and "" are false.
func Truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0 && !math.IsNaN(b)
	case string:
		return b != ""
	default:
		return Truthy(Normalize(v))
	}
}
