package entity

import (
	"strings"
	"time"
)

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 5 * time.Minute

// OTP is a one-time code bound to an email identity.
type OTP struct {
	ID        int64
	Identity  string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the code is no longer valid at now. The record is
// expired from ExpiresAt onward.
func (o OTP) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// NormalizeIdentity trims and lower-cases an email so it can be used as the
// store key.
func NormalizeIdentity(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
