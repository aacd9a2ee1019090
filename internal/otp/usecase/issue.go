package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/mail"
)

const (
	mailSubject      = "OTP for account verification"
	mailHTMLTemplate = `<p>Your OTP is: <strong>{{.code}}</strong>. It will expire in {{.minutes}} minutes.</p>`
	mailTextTemplate = `Your OTP is: {{.code}}. It will expire in {{.minutes}} minutes.`
)

type IssueInput struct {
	Email string `validate:"required,email,max=254,nocrlf"`
}

type IssueOutput struct {
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue replaces any code held by the email with a fresh one, stores it and
// mails it. A failed send leaves the new record in place.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (_ *IssueOutput, err error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()
	defer func() { s.recordOutcome(ctx, err) }()

	in.Email = entity.NormalizeIdentity(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.delivery.validate(); err != nil {
		slog.ErrorContext(ctx, "mail credentials are missing, refusing to issue otp", "email", in.Email)
		return nil, goerror.NewUnconfigured(err)
	}

	record, err := s.supersede(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, record); err != nil {
		return nil, err
	}

	s.publishIssued(ctx, record)

	return &IssueOutput{
		Code:      record.Code,
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// supersede clears whatever the identity holds and stores a new record, all
// under the identity lock.
func (s *Usecase) supersede(ctx context.Context, identity string) (entity.OTP, error) {
	unlock, err := s.locker.Lock(ctx, "otp:"+identity)
	if err != nil {
		slog.ErrorContext(ctx, "failed to lock otp identity", "email", identity, "error", err)
		return entity.OTP{}, goerror.NewPersistence(err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "failed to unlock otp identity", "email", identity, "error", err)
		}
	}()

	existing, err := s.repoStore.FindByIdentity(ctx, identity)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
	case err != nil:
		slog.WarnContext(ctx, "failed to repo find otp by identity", "email", identity, "error", err)
	default:
		slog.InfoContext(ctx, "superseding existing otp", "email", identity,
			"state", entity.StateOf(existing, s.clock.Now()).String())
	}

	if err := s.repoStore.DeleteByIdentity(ctx, identity); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete otp by identity", "email", identity, "error", err)
		return entity.OTP{}, goerror.NewPersistence(err)
	}

	issuedAt := s.clock.Now()
	record := entity.OTP{
		ID:        s.uid.Generate(),
		Identity:  identity,
		Code:      s.generator.Generate(),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(entity.CodeTTL),
	}

	if err := s.repoStore.Create(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp", "email", identity, "error", err)
		return entity.OTP{}, goerror.NewPersistence(err)
	}

	return record, nil
}

func (s *Usecase) deliver(ctx context.Context, record entity.OTP) error {
	data := map[string]any{
		"code":    record.Code,
		"minutes": int(record.ExpiresAt.Sub(record.IssuedAt) / time.Minute),
	}

	htmlBody, err := renderTemplate("otp_html", mailHTMLTemplate, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp html body", "email", record.Identity, "error", err)
		return goerror.NewDelivery(err)
	}

	textBody, err := renderText("otp_text", mailTextTemplate, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp text body", "email", record.Identity, "error", err)
		return goerror.NewDelivery(err)
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{record.Identity},
		Subject:  mailSubject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", record.Identity, "error", err)
		return goerror.NewDelivery(err)
	}

	slog.InfoContext(ctx, "otp email sent", "email", record.Identity, "expires_at", record.ExpiresAt)
	return nil
}

func (s *Usecase) publishIssued(ctx context.Context, record entity.OTP) {
	if s.repoMessaging == nil {
		return
	}

	msg := OTPIssuedEvent{
		Identity:  record.Identity,
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
	}

	s.goroutine.Go(context.WithoutCancel(ctx), "publish otp issued", func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOTPIssued(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to publish otp issued", "email", msg.Identity, "error", err)
		}
		return nil
	})
}
