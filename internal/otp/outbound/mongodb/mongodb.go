package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CollectionName is the collection holding OTP documents.
const CollectionName = "otps"

type otpDocument struct {
	ID       int64     `bson:"_id"`
	Email    string    `bson:"email"`
	OTP      string    `bson:"otp"`
	IssuedAt time.Time `bson:"issued_at"`
	Expiry   time.Time `bson:"expiry"`
	PurgeAt  time.Time `bson:"purge_at"`
}

type Mongo struct {
	coll      *mongo.Collection
	ins       instrument.Instrumentation
	retention time.Duration
}

// New returns a store on db.otps. Documents become eligible for the TTL
// monitor retention after their expiry.
func New(db *mongo.Database, ins instrument.Instrumentation, retention time.Duration) *Mongo {
	if retention < 0 {
		retention = 0
	}
	return &Mongo{coll: db.Collection(CollectionName), ins: ins, retention: retention}
}

// EnsureIndexes creates the lookup index on email and the TTL index on purge_at.
func (s *Mongo) EnsureIndexes(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureIndexes")
	defer func() { s.endSpan(span, err) }()

	_, err = s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "issued_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "purge_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	return err
}

func (s *Mongo) FindByIdentity(ctx context.Context, identity string) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "FindByIdentity")
	defer func() { s.endSpan(span, err) }()

	var doc otpDocument
	err = s.coll.FindOne(ctx,
		bson.M{"email": identity},
		options.FindOne().SetSort(bson.D{{Key: "issued_at", Value: -1}}),
	).Decode(&doc)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &entity.OTP{
		ID:        doc.ID,
		Identity:  doc.Email,
		Code:      doc.OTP,
		IssuedAt:  doc.IssuedAt.UTC(),
		ExpiresAt: doc.Expiry.UTC(),
	}, nil
}

func (s *Mongo) DeleteByIdentity(ctx context.Context, identity string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteByIdentity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.coll.DeleteMany(ctx, bson.M{"email": identity})
	err = s.mapError(err)
	return err
}

func (s *Mongo) Create(ctx context.Context, in entity.OTP) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	_, err = s.coll.InsertOne(ctx, otpDocument{
		ID:       in.ID,
		Email:    in.Identity,
		OTP:      in.Code,
		IssuedAt: in.IssuedAt,
		Expiry:   in.ExpiresAt,
		PurgeAt:  in.ExpiresAt.Add(s.retention),
	})
	err = s.mapError(err)
	return err
}

func (s *Mongo) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return goerror.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return goerror.ErrConflict
	}
	return err
}

func (s *Mongo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.mongodb").Start(ctx, name)
}

func (s *Mongo) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
