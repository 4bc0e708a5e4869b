package identity

import (
	"strings" // String building

	"fbank/internal/domain" // Error taxonomy
)

// NormalizePhone reduces a phone number to the canonical 11-digit form starting with 7.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 11 && digits[0] == '7':
		return digits, nil
	case len(digits) == 10:
		return "7" + digits, nil
	case len(digits) == 11 && digits[0] == '8':
		return "7" + digits[1:], nil
	}
	return "", domain.InvalidInput("Invalid phone number format: expected 10 or 11 digits starting with 7 or 8")
}

// NormalizeLogin accepts either an email or a phone number and returns the stored form.
func NormalizeLogin(raw string) (string, error) {
	login := strings.TrimSpace(raw)
	if login == "" {
		return "", domain.InvalidInput("Phone or email is required")
	}
	if strings.Contains(login, "@") {
		at := strings.LastIndex(login, "@")
		if at == 0 || at == len(login)-1 || strings.ContainsAny(login, " \t") {
			return "", domain.InvalidInput("Invalid email format")
		}
		return strings.ToLower(login), nil
	}
	if !looksLikePhone(login) {
		return "", domain.InvalidInput("Invalid phone number format")
	}
	return NormalizePhone(login)
}

func looksLikePhone(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && !strings.ContainsRune("+-() ", r) {
			return false
		}
	}
	return true
}
