package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/jordan-wright/email"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when both Message.From and the configured default From are empty.
	ErrSMTPNoSender = errors.New("no sender provided")
	// ErrSMTPHeaderInjection is returned when an address or subject contains a line break.
	ErrSMTPHeaderInjection = errors.New("smtp header value contains line break")
	// ErrSMTPUnknownTLSMode is returned for an unsupported SMTPConfig.TLSMode.
	ErrSMTPUnknownTLSMode = errors.New("smtp unknown tls mode")
)

const (
	// TLSModeStartTLS upgrades a plain connection when the server offers STARTTLS.
	TLSModeStartTLS = "starttls"
	// TLSModeImplicit dials TLS directly, usually on port 465.
	TLSModeImplicit = "implicit"
	// TLSModeNone never negotiates TLS. Only for local relays and tests.
	TLSModeNone = "none"

	defaultDialTimeout = 10 * time.Second
)

// SMTP is a Mail implementation backed by net/smtp.
type SMTP struct {
	addr        string
	host        string
	defaultFrom string
	tlsMode     string
	tlsConfig   *tls.Config
	dialTimeout time.Duration
	auth        smtp.Auth
}

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// TLSMode is one of starttls (default), implicit or none.
	TLSMode string
	// DialTimeout bounds connection setup when ctx has no earlier deadline.
	DialTimeout time.Duration
	// InsecureSkipVerify disables certificate checks. Never enable in production.
	InsecureSkipVerify bool
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.TLSMode))
	switch mode {
	case "":
		mode = TLSModeStartTLS
	case TLSModeStartTLS, TLSModeImplicit, TLSModeNone:
	default:
		return nil, fmt.Errorf("%w: %s", ErrSMTPUnknownTLSMode, cfg.TLSMode)
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	return &SMTP{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:        cfg.Host,
		defaultFrom: cfg.From,
		tlsMode:     mode,
		tlsConfig: &tls.Config{
			ServerName:         cfg.Host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for local relays
		},
		dialTimeout: timeout,
		auth:        auth,
	}, nil
}

// Send delivers a message over SMTP.
//
// The connection is closed as soon as ctx is done, so a cancelled caller never
// waits on a slow relay.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return ErrSMTPNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return ErrSMTPNoSender
	}

	if hasLineBreak(append([]string{from, msg.Subject}, recipients...)...) {
		return ErrSMTPHeaderInjection
	}

	raw, err := encode(from, msg)
	if err != nil {
		return fmt.Errorf("smtp encode: %w", err)
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := s.deliver(conn, from, recipients, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	return nil
}

// Close implements io.Closer for interface compatibility.
func (s *SMTP) Close() error {
	return nil
}

func (s *SMTP) dial(ctx context.Context) (net.Conn, error) {
	netDialer := &net.Dialer{Timeout: s.dialTimeout}

	if s.tlsMode == TLSModeImplicit {
		d := &tls.Dialer{NetDialer: netDialer, Config: s.tlsConfig}
		return d.DialContext(ctx, "tcp", s.addr)
	}

	return netDialer.DialContext(ctx, "tcp", s.addr)
}

func (s *SMTP) deliver(conn net.Conn, from string, recipients []string, raw []byte) error {
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if s.tlsMode == TLSModeStartTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if s.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(s.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	return c.Quit()
}

func hasLineBreak(values ...string) bool {
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return true
		}
	}
	return false
}

// encode renders msg as MIME. Bcc stays on the envelope only.
func encode(from string, msg Message) ([]byte, error) {
	e := &email.Email{
		From:    from,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Headers: textproto.MIMEHeader{},
	}
	if msg.TextBody != "" {
		e.Text = []byte(msg.TextBody)
	}
	if msg.HTMLBody != "" {
		e.HTML = []byte(msg.HTMLBody)
	}

	return e.Bytes()
}
