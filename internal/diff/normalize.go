// Package diff implements the record and sheet diff engines: value
// normalization, composite key building, key-based record matching and the
// positional fallback used for sheets without a reliable identity column.
package diff

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single pattern match. A match that runs
// longer counts as a failed application and the raw value is compared.
const DefaultMatchTimeout = 250 * time.Millisecond

// Canonical returns the canonical string form of a scalar value. nil maps to
// the empty string; integral floats print without a fraction so 1 and 1.0
// agree.
func Canonical(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return formatFloat(float64(t), 32)
	case float64:
		return formatFloat(t, 64)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', 0, bits)
	case math.Abs(f) >= 1e-6 && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, bits)
	default:
		return trimExponent(strconv.FormatFloat(f, 'e', -1, bits))
	}
}

// trimExponent drops the zero padding Go puts on exponents: 1e-07 is
// written 1e-7.
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

// Pattern is a compiled comparison pattern. A pattern that failed to compile
// keeps its source and error and applies as the identity function.
type Pattern struct {
	Source string
	Err    error
	re     *regexp2.Regexp
}

// CompilePattern compiles expr with ECMAScript semantics. The returned
// pattern is never nil; check Err to see whether it compiled.
func CompilePattern(expr string, timeout time.Duration) *Pattern {
	p := &Pattern{Source: expr}
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		p.Err = err
		return p
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	p.re = re
	return p
}

// Valid reports whether the pattern compiled.
func (p *Pattern) Valid() bool { return p != nil && p.re != nil }

// Apply returns the first match of the pattern in s, or "" when nothing
// matches. An invalid pattern, or a match that errors out, returns s
// unmodified.
func (p *Pattern) Apply(s string) string {
	if !p.Valid() {
		return s
	}
	m, err := p.re.FindStringMatch(s)
	if err != nil {
		return s
	}
	if m == nil {
		return ""
	}
	return m.String()
}

// Normalize converts a value into its comparison string. An empty pattern
// means no pattern. See Pattern.Apply for the fallback rules.
func Normalize(value any, pattern string) string {
	s := Canonical(value)
	if pattern == "" {
		return s
	}
	return CompilePattern(pattern, DefaultMatchTimeout).Apply(s)
}
