package provider

import (
	"strings"
)

const domesticNumberLength = 10

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeInternational converts raw input to +<digits>. Input starting with +
// keeps its digits. Otherwise a leading 00 is dropped and the remaining digits
// must form a 10-digit local number, which gets the default country code.
// Everything else is rejected.
func normalizeInternational(raw string, defaultCountryCode string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	digits := digitsOnly(trimmed)
	if digits == "" {
		return "", false
	}

	if strings.HasPrefix(trimmed, "+") {
		return "+" + digits, true
	}
	digits = strings.TrimPrefix(digits, "00")

	if len(digits) == domesticNumberLength {
		cc := countryCode(defaultCountryCode)
		if cc == "" {
			return "", false
		}
		return cc + digits, true
	}

	return "", false
}

// normalizeDomestic reduces raw input to a bare 10-digit number, stripping one
// of the recognized country prefixes when present.
func normalizeDomestic(raw string, countryPrefixes []string) (string, bool) {
	digits := digitsOnly(raw)
	if len(digits) == domesticNumberLength {
		return digits, true
	}

	for _, prefix := range countryPrefixes {
		prefix = digitsOnly(prefix)
		if prefix == "" {
			continue
		}
		if len(digits) == domesticNumberLength+len(prefix) && strings.HasPrefix(digits, prefix) {
			return digits[len(prefix):], true
		}
	}

	return "", false
}

func countryCode(code string) string {
	digits := digitsOnly(code)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// maskNumber keeps only the last four digits for logging.
func maskNumber(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
