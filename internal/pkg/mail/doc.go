// Package mail sends email messages through a pluggable provider.
//
// Use cases depend on the Mail interface and the provider-agnostic Message.
// SMTP is the bundled provider and supports STARTTLS, implicit TLS (port 465)
// and plain connections for local relays.
package mail
