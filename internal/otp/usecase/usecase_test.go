package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/pkg/clock"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailotp/internal/pkg/keylock"
	"github.com/shandysiswandi/mailotp/internal/pkg/mail"
	"github.com/shandysiswandi/mailotp/internal/pkg/otp"
	"github.com/shandysiswandi/mailotp/internal/pkg/validator"
)

var errBackend = errors.New("backend unavailable")

// fakeStore keeps records in a slice so that a missing lock would show up as
// duplicate rows for one identity.
type fakeStore struct {
	mu      sync.Mutex
	records []entity.OTP

	findCalls   int
	deleteCalls int
	createCalls int

	findErr   error
	deleteErr error
	createErr error
}

func (f *fakeStore) FindByIdentity(_ context.Context, identity string) (*entity.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++

	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.records {
		if r.Identity == identity {
			rec := r
			return &rec, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeStore) DeleteByIdentity(_ context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++

	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.records {
		if r.Identity == identity {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) Create(_ context.Context, in entity.OTP) error {
	// widen the window between delete and create
	time.Sleep(time.Microsecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++

	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, in)
	return nil
}

func (f *fakeStore) count(identity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.records {
		if r.Identity == identity {
			n++
		}
	}
	return n
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findCalls + f.deleteCalls + f.createCalls
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMail) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []OTPIssuedEvent
	err    error
}

func (f *fakeMessaging) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

type fakeLocker struct {
	err   error
	calls int
}

func (f *fakeLocker) Lock(context.Context, string) (keylock.Unlock, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return func(context.Context) error { return nil }, nil
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type fixture struct {
	store *fakeStore
	mail  *fakeMail
	mq    *fakeMessaging
	gm    *goroutine.Manager
	now   time.Time
	uc    *Usecase
}

type fixtureOption func(*Dependency)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	f := &fixture{
		store: &fakeStore{},
		mail:  &fakeMail{},
		mq:    &fakeMessaging{},
		gm:    goroutine.NewManager(16),
		now:   time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}

	dep := Dependency{
		RepoStore:     f.store,
		RepoMail:      f.mail,
		RepoMessaging: f.mq,
		Locker:        keylock.NewLocal(),
		Generator:     otp.NewSixDigit(),
		Validator:     v,
		UID:           &seqID{},
		Clock:         clock.Fixed(f.now),
		Goroutine:     f.gm,
		Delivery:      DeliveryConfig{Username: "sender@example.com", Password: "secret"},
	}
	for _, opt := range opts {
		opt(&dep)
	}

	f.uc = New(dep)
	return f
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if gerr.Code() != want {
		t.Fatalf("code = %s, want %s", gerr.Code(), want)
	}
}
