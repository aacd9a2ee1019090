package inbound

import "time"

type SendRequest struct {
	Email string `json:"email"`
}

type SendResponse struct {
	OTP    string    `json:"otp,omitempty"`
	Expiry time.Time `json:"expiry"`
}

func (SendResponse) Message() string {
	return "Message sent successfully"
}
