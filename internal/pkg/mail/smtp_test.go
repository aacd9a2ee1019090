package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewSMTPValidation(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{Port: 465}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("missing host error = %v", err)
	}
	if _, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: 465, TLSMode: "ssl3"}); !errors.Is(err, ErrSMTPUnknownTLSMode) {
		t.Fatalf("bad tls mode error = %v", err)
	}

	s, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: 465, TLSMode: " Implicit "})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}
	if s.tlsMode != TLSModeImplicit {
		t.Fatalf("tlsMode = %q", s.tlsMode)
	}
	if s.addr != "smtp.example.com:465" {
		t.Fatalf("addr = %q", s.addr)
	}
	if s.auth != nil {
		t.Fatal("auth should be nil without credentials")
	}
}

func TestSendRejectsBadMessages(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: 1})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}
	ctx := context.Background()

	if err := s.Send(ctx, Message{From: "a@b.co"}); !errors.Is(err, ErrSMTPNoRecipients) {
		t.Fatalf("no recipients error = %v", err)
	}
	if err := s.Send(ctx, Message{To: []string{"x@y.z"}}); !errors.Is(err, ErrSMTPNoSender) {
		t.Fatalf("no sender error = %v", err)
	}
	err = s.Send(ctx, Message{From: "a@b.co", To: []string{"x@y.z\r\nBcc: evil@z.z"}})
	if !errors.Is(err, ErrSMTPHeaderInjection) {
		t.Fatalf("injection error = %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Send(canceled, Message{From: "a@b.co", To: []string{"x@y.z"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled error = %v", err)
	}
}

func TestEncode(t *testing.T) {
	raw, err := encode("sender@example.com", Message{
		To:       []string{"user@example.com"},
		Bcc:      []string{"audit@example.com"},
		Subject:  "OTP for account verification",
		TextBody: "Your OTP is: 123456",
		HTMLBody: "<p>Your OTP is: <strong>123456</strong></p>",
	})
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}

	got := string(raw)
	for _, want := range []string{
		"From: sender@example.com\r\n",
		"To: user@example.com\r\n",
		"Subject: OTP for account verification\r\n",
		"Mime-Version: 1.0\r\n",
		"Content-Type: multipart/alternative;",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Type: text/html; charset=UTF-8",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("raw message missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "audit@example.com") {
		t.Fatalf("bcc leaked into headers:\n%s", got)
	}
}

func TestEncodeHTMLOnly(t *testing.T) {
	raw, err := encode("sender@example.com", Message{
		To:       []string{"user@example.com"},
		Subject:  "hi",
		HTMLBody: "<b>hi</b>",
	})
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	if !strings.Contains(string(raw), "Content-Type: text/html; charset=UTF-8") {
		t.Fatalf("html only message:\n%s", raw)
	}
	if strings.Contains(string(raw), "text/plain") {
		t.Fatalf("unexpected text part:\n%s", raw)
	}
}

type mailpitMessages struct {
	Total    int `json:"total"`
	Messages []struct {
		Subject string `json:"Subject"`
		To      []struct {
			Address string `json:"Address"`
		} `json:"To"`
	} `json:"messages"`
}

func TestSMTPSendToMailpit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mailpit container test in short mode")
	}

	ctx := context.Background()
	smtpPort := nat.Port("1025/tcp")
	apiPort := nat.Port("8025/tcp")

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "axllent/mailpit:v1.21",
			ExposedPorts: []string{string(smtpPort), string(apiPort)},
			WaitingFor:   wait.ForListeningPort(smtpPort),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start mailpit: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate mailpit: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mappedSMTP, err := ctr.MappedPort(ctx, smtpPort)
	if err != nil {
		t.Fatalf("mapped smtp port: %v", err)
	}
	mappedAPI, err := ctr.MappedPort(ctx, apiPort)
	if err != nil {
		t.Fatalf("mapped api port: %v", err)
	}

	sender, err := NewSMTP(SMTPConfig{
		Host:    host,
		Port:    mappedSMTP.Int(),
		From:    "no-reply@example.com",
		TLSMode: TLSModeNone,
	})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}

	err = sender.Send(ctx, Message{
		To:       []string{"user@example.com"},
		Subject:  "OTP for account verification",
		TextBody: "Your OTP is: 123456. It will expire in 5 minutes.",
		HTMLBody: "<p>Your OTP is: <strong>123456</strong>. It will expire in 5 minutes.</p>",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s:%s/api/v1/messages", host, mappedAPI.Port()))
	if err != nil {
		t.Fatalf("mailpit api: %v", err)
	}
	defer resp.Body.Close()

	var got mailpitMessages
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode mailpit response: %v", err)
	}
	if got.Total != 1 || len(got.Messages) != 1 {
		t.Fatalf("mailpit total = %d", got.Total)
	}
	if got.Messages[0].Subject != "OTP for account verification" {
		t.Fatalf("subject = %q", got.Messages[0].Subject)
	}
	if len(got.Messages[0].To) != 1 || got.Messages[0].To[0].Address != "user@example.com" {
		t.Fatalf("to = %+v", got.Messages[0].To)
	}
}
