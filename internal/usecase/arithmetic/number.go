package arithmetic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Number is a JSON numeric operand or result. JSON integers keep arbitrary
// precision; anything written with a fraction or exponent is a float64.
type Number struct {
	integer *big.Int // nil for floats
	float   float64
}

// IntNumber returns an integer Number.
func IntNumber(i int64) Number {
	return Number{integer: big.NewInt(i)}
}

// FloatNumber returns a float Number.
func FloatNumber(f float64) Number {
	return Number{float: f}
}

// ParseNumber parses a JSON number literal.
func ParseNumber(lit string) (Number, error) {
	if strings.ContainsAny(lit, ".eE") {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Number{}, fmt.Errorf("parse %q: %w", lit, err)
		}
		return FloatNumber(f), nil
	}

	i, ok := new(big.Int).SetString(lit, 10)
	if !ok {
		return Number{}, fmt.Errorf("parse %q: not an integer", lit)
	}
	return Number{integer: i}, nil
}

// IsInt reports whether n carries integer semantics.
func (n Number) IsInt() bool {
	return n.integer != nil
}

// BigInt returns a copy of the integer value, or nil for floats.
func (n Number) BigInt() *big.Int {
	if n.integer == nil {
		return nil
	}
	return new(big.Int).Set(n.integer)
}

// Float64 returns n as a float64 and whether the conversion stayed finite.
func (n Number) Float64() (float64, bool) {
	if n.integer == nil {
		return n.float, !math.IsInf(n.float, 0) && !math.IsNaN(n.float)
	}
	f, _ := new(big.Float).SetInt(n.integer).Float64()
	return f, !math.IsInf(f, 0)
}

// Sign returns -1, 0 or +1.
func (n Number) Sign() int {
	if n.integer != nil {
		return n.integer.Sign()
	}
	switch {
	case n.float < 0:
		return -1
	case n.float > 0:
		return 1
	}
	return 0
}

// String formats n the way it is written on the wire.
func (n Number) String() string {
	if n.integer != nil {
		return n.integer.String()
	}
	return formatFloat(n.float)
}

// formatFloat prints the shortest round-tripping form of f. Exponent
// notation is used only for decimal exponents below -4 or from 16 up;
// otherwise integral values keep a ".0" suffix (1000000.0, not 1e+06).
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MarshalJSON implements json.Marshaler. Integral floats keep a ".0" suffix
// so clients can tell 25 from 25.0.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.integer == nil && (math.IsInf(n.float, 0) || math.IsNaN(n.float)) {
		return nil, fmt.Errorf("cannot encode %v as JSON", n.float)
	}
	return []byte(n.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	parsed, err := ParseNumber(string(bytes.TrimSpace(data)))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// jsonKind names the JSON type of a decoded value for error messages.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case json.Number:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
