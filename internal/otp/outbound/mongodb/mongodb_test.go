package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/storetest"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping mongodb container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcmongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("start mongodb: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate mongodb: %v", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("mongodb connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("mailotp_test")
}

func TestMongoStore(t *testing.T) {
	db := newDatabase(t)
	store := New(db, instrument.NewNoop(), 24*time.Hour)
	if err := store.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}

	storetest.Run(t, store, "mongo-")
}

func TestMongoDocumentShape(t *testing.T) {
	db := newDatabase(t)
	store := New(db, instrument.NewNoop(), time.Hour)
	ctx := context.Background()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}

	issued := time.Now().UTC().Truncate(time.Millisecond)
	in := entity.OTP{ID: 7, Identity: "shape@example.com", Code: "424242", IssuedAt: issued, ExpiresAt: issued.Add(entity.CodeTTL)}
	if err := store.Create(ctx, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var raw bson.M
	if err := db.Collection(CollectionName).FindOne(ctx, bson.M{"email": in.Identity}).Decode(&raw); err != nil {
		t.Fatalf("raw find: %v", err)
	}
	if raw["otp"] != "424242" {
		t.Fatalf("otp field = %v", raw["otp"])
	}
	for _, key := range []string{"expiry", "issued_at", "purge_at"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("document missing %q: %v", key, raw)
		}
	}

	if err := store.Create(ctx, in); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("duplicate id error = %v, want ErrConflict", err)
	}
}
