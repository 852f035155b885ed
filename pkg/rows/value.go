package rows

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which member of the closed value set a cell holds.
type Kind uint8

const (
	// KindEmpty is a missing, null, or blank cell.
	KindEmpty Kind = iota
	// KindString is a text cell.
	KindString
	// KindNumber is a numeric cell.
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Value is a single loosely-typed spreadsheet cell normalized into
// {empty, string, number}. The zero value is an empty cell.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Empty returns an empty cell.
func Empty() Value { return Value{} }

// String returns a text cell. Text is kept verbatim; trimming is the
// consumer's concern.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric cell.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Kind reports the member of the value set.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the cell is empty.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// String converts the cell to text. Numbers use the shortest decimal form
// that round-trips ("5", "2.5"); empty cells convert to "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	default:
		return ""
	}
}

// Float parses the cell as a finite float64. Numeric cells return their
// value; text cells are trimmed and their longest leading decimal number
// is parsed, so "12 kg" reads as 12. Empty cells, text without a leading
// number, NaN and infinities report ok=false.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.kind {
	case KindNumber:
		f = v.num
	case KindString:
		prefix := leadingFloat(strings.TrimSpace(v.str))
		if prefix == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// leadingFloat returns the longest prefix of s that forms a decimal
// float: an optional sign, digits with an optional fraction, and an
// exponent only when digits follow it. "Infinity" is accepted as a prefix.
// It returns "" when s does not start with a number.
func leadingFloat(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return s[:i+len("Infinity")]
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Row maps column names to cells. Rows are read-only once loaded.
type Row map[string]Value

// Get returns the cell for column, or an empty cell if the column is absent.
func (r Row) Get(column string) Value {
	if r == nil {
		return Value{}
	}
	return r[column]
}

// Text returns the trimmed text of the cell for column.
func (r Row) Text(column string) string {
	return strings.TrimSpace(r.Get(column).String())
}
