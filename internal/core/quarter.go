package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const quarterSep = "-T"

// ErrInvalidQuarterKey is matched by every *InvalidQuarterKeyError.
var ErrInvalidQuarterKey = errors.New("invalid quarter key")

// InvalidQuarterKeyError reports a quarter key that is not "{year}-T{1..4}".
type InvalidQuarterKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidQuarterKeyError) Error() string {
	return fmt.Sprintf("invalid quarter key %q: %s", e.Key, e.Reason)
}

func (e *InvalidQuarterKeyError) Is(target error) bool {
	return target == ErrInvalidQuarterKey
}

// Quarter identifies a fiscal quarter.
type Quarter struct {
	Year   int
	Number int
}

// QuarterKey derives the stored key "{year}-T{q}".
func QuarterKey(year, q int) string {
	return strconv.Itoa(year) + quarterSep + strconv.Itoa(q)
}

func (q Quarter) Key() string { return QuarterKey(q.Year, q.Number) }

func (q Quarter) String() string { return q.Key() }

// Label is the form label, e.g. "2024 - T1".
func (q Quarter) Label() string {
	return fmt.Sprintf("%d - T%d", q.Year, q.Number)
}

// Valid reports whether the quarter number is within 1..4.
func (q Quarter) Valid() bool {
	return q.Number >= 1 && q.Number <= 4
}

// Before reports whether q is chronologically earlier than other.
func (q Quarter) Before(other Quarter) bool {
	if q.Year != other.Year {
		return q.Year < other.Year
	}
	return q.Number < other.Number
}

// YearAgo returns the same quarter of the prior year.
func (q Quarter) YearAgo() Quarter {
	return Quarter{Year: q.Year - 1, Number: q.Number}
}

// ParseQuarterKey splits s on "-T" and validates both parts.
func ParseQuarterKey(s string) (Quarter, error) {
	raw := s
	s = strings.TrimSpace(s)
	yearStr, numStr, found := strings.Cut(s, quarterSep)
	if !found {
		return Quarter{}, &InvalidQuarterKeyError{Key: raw, Reason: `missing "-T" separator`}
	}
	if !digitsOnly(yearStr) {
		return Quarter{}, &InvalidQuarterKeyError{Key: raw, Reason: "year is not an integer"}
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Quarter{}, &InvalidQuarterKeyError{Key: raw, Reason: "year is out of range"}
	}
	if len(numStr) != 1 || !digitsOnly(numStr) {
		return Quarter{}, &InvalidQuarterKeyError{Key: raw, Reason: "quarter number must be a single digit"}
	}
	num := int(numStr[0] - '0')
	q := Quarter{Year: year, Number: num}
	if !q.Valid() {
		return Quarter{}, &InvalidQuarterKeyError{Key: raw, Reason: "quarter number must be between 1 and 4"}
	}
	return q, nil
}

// digitsOnly reports whether s is a non-empty run of ASCII digits, so signs
// and spaces are rejected.
func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// QuarterOptions lists T1..T4 for every year in [fromYear, toYear], oldest first.
func QuarterOptions(fromYear, toYear int) []Quarter {
	if toYear < fromYear {
		return nil
	}
	out := make([]Quarter, 0, (toYear-fromYear+1)*4)
	for y := fromYear; y <= toYear; y++ {
		for n := 1; n <= 4; n++ {
			out = append(out, Quarter{Year: y, Number: n})
		}
	}
	return out
}
