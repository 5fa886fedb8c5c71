// Package mongo stores each resource kind as documents in its own MongoDB
// collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travel_booking/internal/domain"
)

type Store struct {
	db  *mongo.Database
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

// Connect dials uri, pings the primary and returns the client (for shutdown)
// with a Store over database dbName.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, New(client.Database(dbName)), nil
}

func (s *Store) coll(k *domain.Kind) *mongo.Collection { return s.db.Collection(k.Collection) }

func (s *Store) List(ctx context.Context, k *domain.Kind) ([]domain.Entity, error) {
	cur, err := s.coll(k).Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Entity{}
	for cur.Next(ctx) {
		e := k.New()
		if err := cur.Decode(e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", k.Singular, err)
		}
		out = append(out, e)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, k *domain.Kind, e domain.Entity) (domain.Entity, error) {
	e.SetID(primitive.NewObjectID().Hex())
	if created, _ := e.Times(); created.IsZero() {
		domain.Touch(e, s.now())
	}
	if _, err := s.coll(k).InsertOne(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) Update(ctx context.Context, k *domain.Kind, id string, p domain.Patch) (domain.Entity, error) {
	set := bson.M{"updatedAt": s.now()}
	for name, v := range p {
		if _, ok := k.Field(name); ok {
			set[name] = v
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := s.coll(k).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts)

	e := k.New()
	if err := res.Decode(e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (s *Store) Delete(ctx context.Context, k *domain.Kind, id string) error {
	_, err := s.coll(k).DeleteOne(ctx, bson.M{"_id": id})
	return err
}
