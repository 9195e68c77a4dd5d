package ports

import "github.com/blogcom/account-api/internal/core/domain"

// PasswordHasher hashes and verifies stored secrets. Compare returns
// (false, nil) on a mismatch and a non-nil error only when hashing itself
// failed.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, digest string) (bool, error)
}

// OTPIssuer produces fresh e-mail verification challenges.
type OTPIssuer interface {
	Issue() (domain.OTPChallenge, error)
}

// TokenIssuer mints stateless session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// TokenParser validates a session token and returns the user id it carries.
type TokenParser interface {
	Parse(token string) (string, error)
}
