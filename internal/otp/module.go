package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/otp/inbound"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/cache"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/db"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/email"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/memory"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/mongodb"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/mq"
	"github.com/shandysiswandi/mailotp/internal/otp/usecase"
	"github.com/shandysiswandi/mailotp/internal/pkg/clock"
	"github.com/shandysiswandi/mailotp/internal/pkg/config"
	"github.com/shandysiswandi/mailotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/shandysiswandi/mailotp/internal/pkg/keylock"
	"github.com/shandysiswandi/mailotp/internal/pkg/mail"
	"github.com/shandysiswandi/mailotp/internal/pkg/messaging"
	pkgotp "github.com/shandysiswandi/mailotp/internal/pkg/otp"
	"github.com/shandysiswandi/mailotp/internal/pkg/router"
	"github.com/shandysiswandi/mailotp/internal/pkg/uid"
	"github.com/shandysiswandi/mailotp/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store drivers accepted by modules.otp.store.driver.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverRedis    = "redis"
	StoreDriverMemory   = "memory"
)

const defaultRetention = 24 * time.Hour

var (
	// ErrUnknownStoreDriver is returned for an unsupported store driver.
	ErrUnknownStoreDriver = errors.New("otp: unknown store driver")
	// ErrStoreConnMissing is returned when the driver's connection was not provided.
	ErrStoreConnMissing = errors.New("otp: store connection missing")
)

type store interface {
	FindByIdentity(ctx context.Context, identity string) (*entity.OTP, error)
	DeleteByIdentity(ctx context.Context, identity string) error
	Create(ctx context.Context, in entity.OTP) error
}

type Dependency struct {
	Ctx         context.Context            `validate:"required"`
	StoreDriver string                     `validate:"required,oneof=postgres mongo redis memory"`
	DBConn      *pgxpool.Pool              `validate:"-"`
	MongoDB     *mongo.Database            `validate:"-"`
	CacheConn   *redis.Client              `validate:"-"`
	Locker      keylock.Locker             `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Messaging   messaging.Publisher        `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Generator   pkgotp.Generator
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoStore, err := newStore(dep)
	if err != nil {
		return err
	}

	generator := dep.Generator
	if generator == nil {
		generator = pkgotp.NewSixDigit()
	}

	uc := usecase.New(usecase.Dependency{
		RepoStore:     repoStore,
		RepoMail:      email.New(dep.Mail, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Locker:        dep.Locker,
		Generator:     generator,
		Validator:     dep.Validator,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
		Delivery: usecase.DeliveryConfig{
			Username: dep.Config.GetString("mail.username"),
			Password: dep.Config.GetString("mail.password"),
		},
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetBool("modules.otp.expose_code"))

	return nil
}

func newStore(dep Dependency) (store, error) {
	retention := dep.Config.GetHour("modules.otp.store.retention_hours")
	if retention <= 0 {
		retention = defaultRetention
	}

	switch dep.StoreDriver {
	case StoreDriverPostgres:
		if dep.DBConn == nil {
			return nil, fmt.Errorf("%w: %s", ErrStoreConnMissing, dep.StoreDriver)
		}
		return db.NewDB(dep.DBConn, dep.Instrument), nil

	case StoreDriverMongo:
		if dep.MongoDB == nil {
			return nil, fmt.Errorf("%w: %s", ErrStoreConnMissing, dep.StoreDriver)
		}
		s := mongodb.New(dep.MongoDB, dep.Instrument, retention)
		if err := s.EnsureIndexes(dep.Ctx); err != nil {
			return nil, err
		}
		return s, nil

	case StoreDriverRedis:
		if dep.CacheConn == nil {
			return nil, fmt.Errorf("%w: %s", ErrStoreConnMissing, dep.StoreDriver)
		}
		return cache.New(dep.CacheConn, dep.Instrument, retention), nil

	case StoreDriverMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStoreDriver, dep.StoreDriver)
	}
}
