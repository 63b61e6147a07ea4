package flow

import "strings"

// CountryCode is the single fixed country prefix this deployment supports.
const CountryCode = "+52"

// localDigits is the exact local number length behind CountryCode.
const localDigits = 10

// codeDigits is the exact verification code length.
const codeDigits = 6

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone strips non-digit characters and, when exactly ten local
// digits remain, returns the E.164 form and the local display form.
func NormalizePhone(raw string) (e164, local string, err error) {
	local = digitsOnly(raw)
	if len(local) != localDigits {
		return "", "", ErrInvalidPhone
	}
	return CountryCode + local, local, nil
}

// NormalizeCode strips non-digit characters and requires exactly six digits.
func NormalizeCode(raw string) (string, error) {
	code := digitsOnly(raw)
	if len(code) != codeDigits {
		return "", ErrInvalidCode
	}
	return code, nil
}
