package domain

import (
	"context"
	"io"
)

// Store persists resource records, one collection (or table) per kind.
type Store interface {
	// List returns every record of k in storage order.
	List(ctx context.Context, k *Kind) ([]Entity, error)
	// Create assigns an id, persists e and returns the stored record.
	Create(ctx context.Context, k *Kind, e Entity) (Entity, error)
	// Update overwrites the fields in p. A missing id yields (nil, nil).
	Update(ctx context.Context, k *Kind, id string, p Patch) (Entity, error)
	// Delete removes the record if present; a missing id is not an error.
	Delete(ctx context.Context, k *Kind, id string) error
}

// ImageStore keeps uploaded images and returns the URL they are served from.
type ImageStore interface {
	Save(ctx context.Context, key string, img Upload) (string, error)
	// Delete removes a stored image; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// Incr bumps the integer at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}

// Upload is an image file received in a multipart payload.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
