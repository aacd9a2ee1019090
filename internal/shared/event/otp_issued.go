package event

import "time"

const OTPIssuedDestination string = "otp_issued"

// OTPIssuedMessage announces a new code. The code itself is never published.
type OTPIssuedMessage struct {
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
