// Package memory is an in-process Store for local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"travel_booking/internal/domain"
)

type Store struct {
	mu   sync.Mutex
	docs map[string][]domain.Entity // per collection, insertion order
	now  func() time.Time
}

func New() *Store {
	return &Store{docs: map[string][]domain.Entity{}, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

func (s *Store) List(_ context.Context, k *domain.Kind) ([]domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Entity, 0, len(s.docs[k.Collection]))
	for _, e := range s.docs[k.Collection] {
		out = append(out, clone(k, e))
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, k *domain.Kind, e domain.Entity) (domain.Entity, error) {
	stored := clone(k, e)
	stored.SetID(uuid.NewString())
	if created, _ := stored.Times(); created.IsZero() {
		domain.Touch(stored, s.now())
	}

	s.mu.Lock()
	s.docs[k.Collection] = append(s.docs[k.Collection], stored)
	s.mu.Unlock()
	return clone(k, stored), nil
}

func (s *Store) Update(_ context.Context, k *domain.Kind, id string, p domain.Patch) (domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.docs[k.Collection]
	for i, e := range docs {
		if e.GetID() != id {
			continue
		}
		// patch a copy so a failing field leaves the record untouched
		next := clone(k, e)
		if err := p.Apply(next); err != nil {
			return nil, err
		}
		created, _ := next.Times()
		next.SetTimes(created, s.now())
		docs[i] = next
		return clone(k, next), nil
	}
	return nil, nil
}

func (s *Store) Delete(_ context.Context, k *domain.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.docs[k.Collection]
	for i, e := range docs {
		if e.GetID() == id {
			s.docs[k.Collection] = append(docs[:i:i], docs[i+1:]...)
			break
		}
	}
	return nil
}

func clone(k *domain.Kind, e domain.Entity) domain.Entity {
	out := k.New()
	out.SetID(e.GetID())
	for _, f := range k.Fields {
		// values were parsed on the way in, so Set cannot fail here
		_ = out.Set(f.Name, e.Get(f.Name))
	}
	out.SetTimes(e.Times())
	return out
}
