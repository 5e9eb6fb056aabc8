package table

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CellKind identifies which variant a Cell holds.
type CellKind uint8

const (
	KindMissing CellKind = iota
	KindNumber
	KindText
)

func (k CellKind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// ErrInfiniteNumber is returned by Canonical for a Number cell holding ±Inf,
// which has no integer form.
var ErrInfiniteNumber = errors.New("cannot convert infinite value to integer")

// Cell is a single value at a (row, column) position.
//
// Raw holds the text the value was read from and is what Serialize writes for
// cells that were never rewritten. Int holds the exact decimal digits of a
// Number read from an integer literal, which float64 cannot carry past 2^53.
type Cell struct {
	Kind   CellKind
	Number float64
	Int    string
	Text   string
	Raw    string
}

var integerLiteral = regexp.MustCompile(`^[+-]?[0-9]+$`)

// Missing returns an empty cell.
func Missing() Cell {
	return Cell{Kind: KindMissing}
}

// Number returns a numeric cell. raw is the source text; when empty the value
// is formatted with the shortest representation.
func Number(v float64, raw string) Cell {
	if raw == "" {
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	}
	c := Cell{Kind: KindNumber, Number: v, Raw: raw}
	c.Int, _ = ExactInteger(raw)
	return c
}

// ExactInteger normalizes an integer literal: the '+' sign and leading zeros
// are dropped and "-0" becomes "0". It reports false for anything else.
func ExactInteger(s string) (string, bool) {
	if !integerLiteral.MatchString(s) {
		return "", false
	}
	neg := s[0] == '-'
	digits := strings.TrimLeft(strings.TrimLeft(s, "+-"), "0")
	switch {
	case digits == "":
		return "0", true
	case neg:
		return "-" + digits, true
	default:
		return digits, true
	}
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{Kind: KindText, Text: s, Raw: s}
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool {
	return c.Kind == KindMissing
}

// Canonical returns the string the cell is matched against:
// Missing is "", Number is its value truncated toward zero, Text is itself.
// Integer literals keep every digit.
func (c Cell) Canonical() (string, error) {
	switch c.Kind {
	case KindMissing:
		return "", nil
	case KindNumber:
		if c.Int != "" {
			return c.Int, nil
		}
		return integerString(c.Number)
	default:
		return c.Text, nil
	}
}

// String returns the serialized form of the cell.
func (c Cell) String() string {
	if c.Kind == KindMissing {
		return ""
	}
	return c.Raw
}

// integerString formats the integer part of v exactly, including values
// beyond the int64 range.
func integerString(v float64) (string, error) {
	if math.IsInf(v, 0) {
		return "", ErrInfiniteNumber
	}
	if math.IsNaN(v) {
		return "", nil
	}
	t := math.Trunc(v)
	if t == 0 {
		return "0", nil
	}
	return strconv.FormatFloat(t, 'f', 0, 64), nil
}
