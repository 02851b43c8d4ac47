// Package core provides the domain model of the dashboard.
//
// This file contains parsing of indicator values typed into forms, which may use
// either the dot ("1234.56") or the Brazilian ("1.234,56") notation.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidNumber = errors.New("invalid number")

// ParseIndicatorValue converts a form input into an optional value.
//
// An empty input yields nil (not reported). When both '.' and ',' appear, the
// last one is the decimal separator and the other is a grouping separator. A
// lone ',' is always decimal; a lone '.' is decimal unless it groups exactly
// three digits more than once (e.g. "1.234.567").
//
// Examples:
//
//	ParseIndicatorValue("")            -> nil, nil
//	ParseIndicatorValue("17.24")       -> 17.24
//	ParseIndicatorValue("17,24")       -> 17.24
//	ParseIndicatorValue("1.234.567,8") -> 1234567.8
//	ParseIndicatorValue("-2,5")        -> -2.5
func ParseIndicatorValue(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.ReplaceAll(s, " ", "")

	sign := ""
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}
	if s == "" {
		return nil, ErrInvalidNumber
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return nil, ErrInvalidNumber
		}
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return nil, ErrInvalidNumber
		}
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		if !isGrouped(s, '.') {
			return nil, ErrInvalidNumber
		}
		s = strings.ReplaceAll(s, ".", "")
	}
	if strings.Count(s, ".") > 1 {
		return nil, ErrInvalidNumber
	}

	v, err := strconv.ParseFloat(sign+s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, ErrInvalidNumber
	}
	return &v, nil
}

// isGrouped reports whether every group after the first has exactly three digits.
func isGrouped(s string, sep rune) bool {
	parts := strings.Split(s, string(sep))
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// FormatInput renders an optional value for a form input, using a dot decimal.
func FormatInput(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
