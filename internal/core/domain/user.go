package domain

import "time"

// DefaultProfilePhoto is assigned to accounts that never uploaded a photo.
const DefaultProfilePhoto = "https://pbs.twimg.com/media/EbNX_erVcAUlwIx.jpg:large"

// SocialLinks holds the optional public links shown on a profile.
type SocialLinks struct {
	Youtube   string `json:"youtube"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	X         string `json:"X"`
	Github    string `json:"github"`
	Website   string `json:"website"`
}

// AccountInfo carries the counters maintained by the blog side of the platform.
type AccountInfo struct {
	TotalPosts int64 `json:"total_post"`
	TotalReads int64 `json:"total_reads"`
	GoogleAuth bool  `json:"google_auth"`
}

// User models a registered author.
//
// OTP is nil once the account has been verified; code and expiry therefore
// always travel together.
type User struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Fullname     string        `json:"fullname"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Bio          string        `json:"bio"`
	ProfilePhoto string        `json:"profilePhoto"`
	IsVerified   bool          `json:"isVerified"`
	OTP          *OTPChallenge `json:"-"`
	SocialLinks  SocialLinks   `json:"social_links"`
	AccountInfo  AccountInfo   `json:"account_info"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.OTP != nil {
		otp := *u.OTP
		c.OTP = &otp
	}
	return &c
}
