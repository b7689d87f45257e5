package geo

import (
	"strings"

	"github.com/gyeh/cms-pricing/internal/apperr"
)

// NormalizeZip accepts a ZIP as 5 digits, "ZZZZZ-PPPP", or 9 consecutive
// digits. Digits are
// extracted, leading zeros preserved, and plus4 left-padded to 4.
func NormalizeZip(zip string, plus4 string) (zip5 string, normalizedPlus4 string, err error) {
	zip = strings.TrimSpace(zip)
	plus4 = strings.TrimSpace(plus4)

	if strings.Contains(zip, "-") {
		parts := strings.SplitN(zip, "-", 2)
		if len(parts) == 2 {
			z5 := onlyDigits(parts[0])
			p4 := onlyDigits(parts[1])
			if len(z5) == 5 && len(p4) > 0 && len(p4) <= 4 {
				return z5, padLeft(p4, 4), nil
			}
		}
		return "", "", apperr.New(apperr.CodeInvalidInput, "malformed ZIP+4: "+zip)
	}

	digits := onlyDigits(zip)
	switch len(digits) {
	case 9:
		return digits[:5], digits[5:], nil
	case 5:
		if plus4 != "" {
			p4 := onlyDigits(plus4)
			if len(p4) == 0 || len(p4) > 4 {
				return "", "", apperr.New(apperr.CodeInvalidInput, "malformed ZIP+4: "+plus4)
			}
			return digits, padLeft(p4, 4), nil
		}
		return digits, "", nil
	default:
		return "", "", apperr.New(apperr.CodeInvalidInput, "ZIP must be 5 or 9 digits: "+zip)
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
