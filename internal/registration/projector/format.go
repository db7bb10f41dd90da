package projector

import (
	"strconv"
	"strings"
)

// ParseAmount reads the leading numeric prefix of a free-text amount,
// matching how the original forms treated values like "2000gh". Returns 0
// for non-numeric input.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			end = i + 1
		case r == '.' && !strings.ContainsRune(s[:i], '.'):
			end = i + 1
		case (r == '+' || r == '-') && i == 0:
			end = i + 1
		default:
			if seenDigit || end > 0 {
				goto done
			}
			return 0
		}
	}
done:
	if !seenDigit {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimRight(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatAmount renders a number with thousands separators and up to three
// decimal places, trailing zeros trimmed.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return groupThousands(s)
}

// FormatMoney renders a number with thousands separators and exactly two
// decimal places.
func FormatMoney(v float64) string {
	return groupThousands(strconv.FormatFloat(v, 'f', 2, 64))
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// AppendPercent ensures a non-empty percent-like value carries the suffix
// exactly once.
func AppendPercent(v string) string {
	if v == "" || strings.Contains(v, "%") {
		return v
	}
	return v + "%"
}
