package domain

import "strings"

const (
	MinPasswordLength = 8
	MinFullnameLength = 3
	MaxBioLength      = 200
)

// passwordSymbols mirrors the symbol class accepted by the web client.
const passwordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// PasswordPolicyMessage is returned whenever a password fails StrongPassword.
const PasswordPolicyMessage = "Password must be at least 8 characters, include uppercase, lowercase, number, and a special character"

// StrongPassword reports whether p has at least MinPasswordLength characters
// and contains a lowercase letter, an uppercase letter, a digit and a symbol.
func StrongPassword(p string) bool {
	if len([]rune(p)) < MinPasswordLength {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// NormalizeEmail lower-cases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns everything before the first '@'.
func EmailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
