package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const sampleYAML = `
app:
  name: mailotp
mail:
  host: smtp.example.com
  port: 465
  username: ""
modules:
  otp:
    lock_ttl_seconds: 10
    expose_code: true
instrument:
  log_mask_fields: "code, password,,authorization"
  labels: "env:dev, team:auth"
`

func TestNewViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetString("app.name"); got != "mailotp" {
		t.Fatalf("app.name = %q", got)
	}
	if got := cfg.GetInt("mail.port"); got != 465 {
		t.Fatalf("mail.port = %d", got)
	}
	if got := cfg.GetSecond("modules.otp.lock_ttl_seconds"); got != 10*time.Second {
		t.Fatalf("lock ttl = %s", got)
	}
	if !cfg.GetBool("modules.otp.expose_code") {
		t.Fatal("expose_code should be true")
	}

	wantArray := []string{"code", "password", "authorization"}
	if got := cfg.GetArray("instrument.log_mask_fields"); !reflect.DeepEqual(got, wantArray) {
		t.Fatalf("GetArray() = %v, want %v", got, wantArray)
	}
	if got := cfg.GetArray("app.missing"); len(got) != 0 {
		t.Fatalf("GetArray(missing) = %v, want empty", got)
	}

	wantMap := map[string]string{"env": "dev", "team": "auth"}
	if got := cfg.GetMap("instrument.labels"); !reflect.DeepEqual(got, wantMap) {
		t.Fatalf("GetMap() = %v, want %v", got, wantMap)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", []byte(sampleYAML)); err == nil {
		t.Fatal("expected error for empty config type")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MAIL_USERNAME", "sender@example.com")
	t.Setenv("MAIL_PASSWORD", "s3cret")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetString("mail.username"); got != "sender@example.com" {
		t.Fatalf("mail.username = %q", got)
	}
	if got := cfg.GetString("mail.password"); got != "s3cret" {
		t.Fatalf("mail.password = %q", got)
	}
}

func TestNewViper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	defer cfg.Close()

	if got := cfg.GetString("mail.host"); got != "smtp.example.com" {
		t.Fatalf("mail.host = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetString("modules.otp.store.driver"); got != "postgres" {
		t.Fatalf("store driver = %q", got)
	}
	if got := cfg.GetHour("modules.otp.store.retention_hours"); got != 24*time.Hour {
		t.Fatalf("retention = %s", got)
	}
	if got := cfg.GetString("messaging.driver"); got != "none" {
		t.Fatalf("messaging driver = %q", got)
	}
	// file value wins over the default
	if got := cfg.GetInt("mail.port"); got != 465 {
		t.Fatalf("mail.port = %d", got)
	}

	t.Setenv("MODULES_OTP_STORE_DRIVER", "redis")
	if got := cfg.GetString("modules.otp.store.driver"); got != "redis" {
		t.Fatalf("env override = %q", got)
	}
}
