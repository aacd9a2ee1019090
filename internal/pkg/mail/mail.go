package mail

import (
	"context"
	"io"
)

// Message is a single outbound email. Implementations render TextBody and
// HTMLBody as multipart/alternative when both are set.
type Message struct {
	// From overrides the sender configured on the implementation.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Recipients returns every envelope recipient in To, Cc, Bcc order.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// Mail sends email through a provider such as an SMTP relay.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
