package usecase

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/pkg/clock"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/shandysiswandi/mailotp/internal/pkg/keylock"
	"github.com/shandysiswandi/mailotp/internal/pkg/mail"
	"github.com/shandysiswandi/mailotp/internal/pkg/otp"
	"github.com/shandysiswandi/mailotp/internal/pkg/uid"
	"github.com/shandysiswandi/mailotp/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrDeliveryUnconfigured is wrapped by Unconfigured errors when the mail
// credentials are missing.
var ErrDeliveryUnconfigured = errors.New("delivery credentials are not configured")

type OTPIssuedEvent struct {
	Identity  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type repoStore interface {
	FindByIdentity(ctx context.Context, identity string) (*entity.OTP, error)
	DeleteByIdentity(ctx context.Context, identity string) error
	Create(ctx context.Context, in entity.OTP) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
}

// DeliveryConfig carries the mail principal and credential. Issue refuses to
// run while either is empty.
type DeliveryConfig struct {
	Username string
	Password string
}

func (d DeliveryConfig) validate() error {
	if strings.TrimSpace(d.Username) == "" || strings.TrimSpace(d.Password) == "" {
		return ErrDeliveryUnconfigured
	}
	return nil
}

type Usecase struct {
	repoStore     repoStore
	repoMail      repoMail
	repoMessaging repoMessaging
	locker        keylock.Locker
	generator     otp.Generator
	validator     validator.Validator
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	delivery      DeliveryConfig

	issueCounter metric.Int64Counter
}

type Dependency struct {
	RepoStore     repoStore
	RepoMail      repoMail
	RepoMessaging repoMessaging
	Locker        keylock.Locker
	Generator     otp.Generator
	Validator     validator.Validator
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
	Delivery      DeliveryConfig
}

func New(dep Dependency) *Usecase {
	ins := dep.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	counter, err := ins.Meter("otp.usecase").Int64Counter("otp.issue.total",
		metric.WithDescription("Number of OTP issuance attempts by outcome"))
	if err != nil {
		slog.Error("failed to create otp issue counter", "error", err)
	}

	return &Usecase{
		repoStore:     dep.RepoStore,
		repoMail:      dep.RepoMail,
		repoMessaging: dep.RepoMessaging,
		locker:        dep.Locker,
		generator:     dep.Generator,
		validator:     dep.Validator,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           ins,
		goroutine:     dep.Goroutine,
		delivery:      dep.Delivery,
		issueCounter:  counter,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) recordOutcome(ctx context.Context, err error) {
	if s.issueCounter == nil {
		return
	}

	outcome := "issued"
	if err != nil {
		outcome = strings.ToLower(strings.TrimPrefix(goerror.CodeOf(err).String(), "ERROR_CODE_"))
	}

	s.issueCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func renderTemplate(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderText(name, tpl string, data map[string]any) (string, error) {
	t, err := texttemplate.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
