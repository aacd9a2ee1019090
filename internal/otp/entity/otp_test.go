package entity

import (
	"testing"
	"time"
)

func TestOTPIsExpired(t *testing.T) {
	issued := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	o := OTP{IssuedAt: issued, ExpiresAt: issued.Add(CodeTTL)}

	if o.IsExpired(issued) {
		t.Fatal("fresh code reported expired")
	}
	if o.IsExpired(issued.Add(CodeTTL - time.Nanosecond)) {
		t.Fatal("code expired before its deadline")
	}
	if !o.IsExpired(issued.Add(CodeTTL)) {
		t.Fatal("code still valid at its deadline")
	}
}

func TestStateOf(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	active := &OTP{ExpiresAt: now.Add(time.Minute)}
	expired := &OTP{ExpiresAt: now.Add(-time.Minute)}

	if got := StateOf(nil, now); got != StateNoCode {
		t.Fatalf("StateOf(nil) = %s", got)
	}
	if got := StateOf(active, now); got != StateActiveCode {
		t.Fatalf("StateOf(active) = %s", got)
	}
	if got := StateOf(expired, now); got != StateNoCode {
		t.Fatalf("StateOf(expired) = %s", got)
	}
}

func TestNormalizeIdentity(t *testing.T) {
	if got := NormalizeIdentity("  User@Example.COM \n"); got != "user@example.com" {
		t.Fatalf("NormalizeIdentity() = %q", got)
	}
}
