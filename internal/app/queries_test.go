package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"travel_booking/internal/app"
	"travel_booking/internal/domain"
	"travel_booking/internal/storage/memory"
)

// ---- fakes ----

// fakeRepo counts calls on top of the in-memory store.
type fakeRepo struct {
	*memory.Store
	lists   int
	listErr error
}

func newRepo() *fakeRepo { return &fakeRepo{Store: memory.New()} }

func (f *fakeRepo) List(ctx context.Context, k *domain.Kind) ([]domain.Entity, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.List(ctx, k)
}

// fakeCache round-trips values through JSON like the redis adapter.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if b, ok := c.store[key]; ok {
		if err := json.Unmarshal(b, &n); err != nil {
			return 0, err
		}
	}
	n++
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key], _ = json.Marshal(n)
	return n, nil
}

type fakeImages struct {
	saved   map[string][]byte
	deleted []string
	err     error
}

func (f *fakeImages) Delete(ctx context.Context, key string) error {
	delete(f.saved, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) Save(ctx context.Context, key string, img domain.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(img.Body)
	if err != nil {
		return "", err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = b
	return "/uploads/" + key, nil
}

func seedHotel(t *testing.T, repo domain.Store, name string) domain.Entity {
	t.Helper()
	h := &domain.Hotel{Name: name, Description: "d", Location: "Karachi", Image: "/uploads/h.png", Status: domain.StatusAvailable}
	out, err := repo.Create(context.Background(), domain.Hotels, h)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return out
}

// ---- tests ----

func TestList_CacheMissThenHit(t *testing.T) {
	repo := newRepo()
	seedHotel(t, repo, "Pearl")
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	items, err := q.List(context.Background(), domain.Hotels)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(items) != 1 || items[0].Get("name") != "Pearl" {
		t.Fatalf("unexpected list: %+v", items)
	}

	// Hit (served from cache, even though the store changed underneath)
	seedHotel(t, repo, "Serena")
	items, err = q.List(context.Background(), domain.Hotels)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected cached list of 1, got %d", len(items))
	}
	if repo.lists != 1 {
		t.Fatalf("store listed %d times, want 1", repo.lists)
	}
	if _, ok := items[0].(*domain.Hotel); !ok {
		t.Fatalf("cached item decoded as %T", items[0])
	}
}

func TestList_KindsUseSeparateKeys(t *testing.T) {
	repo := newRepo()
	seedHotel(t, repo, "Pearl")
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, time.Minute)

	if _, err := q.List(context.Background(), domain.Hotels); err != nil {
		t.Fatal(err)
	}
	cars, err := q.List(context.Background(), domain.RentalCars)
	if err != nil {
		t.Fatal(err)
	}
	if len(cars) != 0 {
		t.Fatalf("cars = %d, want 0", len(cars))
	}
	if _, ok := cache.store["list:hotels:0"]; !ok {
		t.Fatalf("hotels not cached: %v", cache.store)
	}
	if _, ok := cache.store["list:rent_cars:0"]; !ok {
		t.Fatalf("cars not cached: %v", cache.store)
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	q := app.NewQueryService(newRepo(), nil, time.Minute)
	items, err := q.List(context.Background(), domain.RentalCars)
	if err != nil {
		t.Fatal(err)
	}
	if items == nil {
		t.Fatal("expected empty, non-nil slice")
	}
	b, _ := json.Marshal(items)
	if string(b) != "[]" {
		t.Fatalf("json = %s", b)
	}
}

func TestList_StoreError(t *testing.T) {
	repo := newRepo()
	repo.listErr = errors.New("connection refused")
	q := app.NewQueryService(repo, &fakeCache{}, time.Minute)
	if _, err := q.List(context.Background(), domain.Hotels); !errors.Is(err, repo.listErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestMutations_InvalidateCachedList(t *testing.T) {
	repo := newRepo()
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, time.Minute)
	c := app.NewCommandService(repo, &fakeImages{}, cache)
	ctx := context.Background()

	if _, err := q.List(ctx, domain.Hotels); err != nil {
		t.Fatal(err)
	}
	h, err := c.Create(ctx, domain.Hotels, map[string]string{
		"name": "Pearl", "description": "d", "location": "Karachi",
		"image": "https://cdn.example.com/p.png", "status": "Available",
	}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	items, _ := q.List(ctx, domain.Hotels)
	if len(items) != 1 {
		t.Fatalf("after create: %d items, want 1", len(items))
	}

	if _, err := c.Update(ctx, domain.Hotels, h.GetID(), map[string]string{"status": "Booked"}, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, _ = q.List(ctx, domain.Hotels)
	if items[0].Get("status") != "Booked" {
		t.Fatalf("after update: status %s", items[0].Get("status"))
	}

	if err := c.Delete(ctx, domain.Hotels, h.GetID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _ = q.List(ctx, domain.Hotels)
	if len(items) != 0 {
		t.Fatalf("after delete: %d items", len(items))
	}
	want := []string{"list:hotels:0", "list:hotels:1", "list:hotels:2"}
	if len(cache.dels) != len(want) {
		t.Fatalf("dels = %v, want %v", cache.dels, want)
	}
	for i := range want {
		if cache.dels[i] != want[i] {
			t.Fatalf("dels = %v, want %v", cache.dels, want)
		}
	}
}

// pausingRepo holds the first List between the store read and its return.
type pausingRepo struct {
	*memory.Store
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingRepo) List(ctx context.Context, k *domain.Kind) ([]domain.Entity, error) {
	items, err := p.Store.List(ctx, k)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return items, err
}

func TestList_ReadOverlappingCreateIsNotServedAfterIt(t *testing.T) {
	repo := &pausingRepo{Store: memory.New(), read: make(chan struct{}), release: make(chan struct{})}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, time.Minute)
	c := app.NewCommandService(repo, &fakeImages{}, cache)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := q.List(ctx, domain.Hotels)
		done <- err
	}()
	<-repo.read

	h, err := c.Create(ctx, domain.Hotels, map[string]string{
		"name": "Pearl", "description": "d", "location": "Karachi",
		"image": "https://cdn.example.com/p.png", "status": "Available",
	}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("overlapping list: %v", err)
	}

	items, err := q.List(ctx, domain.Hotels)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].GetID() != h.GetID() {
		t.Fatalf("list after create = %+v, want %s", items, h.GetID())
	}
}

type brokenCache struct{ fakeCache }

func (b *brokenCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestList_UnreadableGenerationSkipsCache(t *testing.T) {
	repo := newRepo()
	seedHotel(t, repo, "Pearl")
	cache := &brokenCache{}
	q := app.NewQueryService(repo, cache, time.Minute)

	for i := 0; i < 2; i++ {
		items, err := q.List(context.Background(), domain.Hotels)
		if err != nil || len(items) != 1 {
			t.Fatalf("list: %d items, err %v", len(items), err)
		}
	}
	if repo.lists != 2 || len(cache.store) != 0 {
		t.Fatalf("lists = %d, cached = %v", repo.lists, cache.store)
	}
}
