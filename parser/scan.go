package parser

import (
	"math"
	"strconv"
)

// scanNumber reads the integer literal starting at s[i] with C strtoul base 0 rules:
// 0x/0X introduces hex when a hex digit follows, a leading 0 means octal and
// anything else is decimal. The literal ends at the first character that is not a
// digit of its base. Values that do not fit saturate at math.MaxUint64.
func scanNumber(s string, i int) (uint64, int) {
	base, start := 10, i
	if s[i] == '0' {
		base = 8
		if i+2 < len(s) && (s[i+1] == 'x' || s[i+1] == 'X') && digitValue(s[i+2]) < 16 {
			base, start = 16, i+2
		}
	}
	end := start
	for end < len(s) && digitValue(s[end]) < base {
		end++
	}
	v, err := strconv.ParseUint(s[start:end], base, 64)
	if err != nil {
		// digits were validated above, only range errors remain
		return math.MaxUint64, end
	}
	return v, end
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return math.MaxInt
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
