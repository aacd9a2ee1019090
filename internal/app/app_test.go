package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/mailotp/internal/pkg/config"
	"github.com/shandysiswandi/mailotp/internal/pkg/mail"
)

const testYAML = `
app:
  api_keys: "key-1"
  server:
    max_goroutine: 8
    http:
      read_timeout_seconds: 5
      read_header_timeout_seconds: 5
      write_timeout_seconds: 5
      idle_timeout_seconds: 5
instrument:
  enabled: false
  service_name: mailotp
mail:
  username: sender@example.com
  password: s3cret
messaging:
  driver: none
modules:
  otp:
    enabled: true
    expose_code: false
    store:
      driver: memory
    lock:
      driver: local
`

type captureMail struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMail) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (*captureMail) Close() error { return nil }

func newTestApp(t *testing.T) (*App, *captureMail) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &captureMail{}
	a := &App{ctx: ctx, cancel: cancel, config: cfg, mail: m}

	a.initInstrument()
	a.initLibraries()
	a.initStore()
	a.initLocker()
	a.initMessaging()
	a.initHTTPServer()
	a.initModules()
	a.initClosers()

	return a, m
}

func TestAppServesOTPSend(t *testing.T) {
	a, m := newTestApp(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	errCh := a.Serve(l)
	base := "http://" + l.Addr().String()

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, base+"/api/v1/otp/send", strings.NewReader(`{"email":"user@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("send without key: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodPost, base+"/api/v1/otp/send", strings.NewReader(`{"email":"user@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "key-1")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Message sent successfully" {
		t.Fatalf("message = %q", body.Message)
	}
	if _, ok := body.Data["otp"]; ok {
		t.Fatal("otp must not be exposed by default")
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(m.sent))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Stop(ctx)

	if err := <-errCh; err != http.ErrServerClosed {
		t.Fatalf("Serve() error = %v, want ErrServerClosed", err)
	}
}
