package security

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/blogcom/account-api/internal/core/domain"
)

const (
	DefaultOTPTTL = 10 * time.Minute

	otpMin = 1000
	otpMax = 9999
)

// OTPGenerator issues 4-digit codes drawn uniformly from [1000, 9999].
type OTPGenerator struct {
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

func NewOTPGenerator(ttl time.Duration) *OTPGenerator {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPGenerator{
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		random: rand.Reader,
	}
}

func (g *OTPGenerator) Issue() (domain.OTPChallenge, error) {
	n, err := rand.Int(g.random, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return domain.OTPChallenge{}, fmt.Errorf("otp code: %w", err)
	}
	return domain.OTPChallenge{
		Code:      strconv.FormatInt(n.Int64()+otpMin, 10),
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}
