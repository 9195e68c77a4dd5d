package domain

import "time"

// OTPChallenge is the pending e-mail verification code embedded in a User.
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
}

// OTPOutcome is the result of comparing a submitted code to the pending one.
type OTPOutcome int

const (
	OTPValid OTPOutcome = iota
	OTPMismatched
	OTPExpired
)

func (o OTPOutcome) String() string {
	switch o {
	case OTPValid:
		return "valid"
	case OTPMismatched:
		return "mismatched"
	case OTPExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// CheckOTP decides whether submitted satisfies the pending challenge at now.
// A differing code is reported as mismatched even when the challenge has
// also expired; a matching code past its expiry is reported as expired.
// A nil challenge (nothing pending) never matches.
func CheckOTP(submitted string, pending *OTPChallenge, now time.Time) OTPOutcome {
	if pending == nil || pending.Code == "" || submitted != pending.Code {
		return OTPMismatched
	}
	if !now.Before(pending.ExpiresAt) {
		return OTPExpired
	}
	return OTPValid
}
