package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "travel_booking/internal/adapters/redis"
	"travel_booking/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	in := []domain.Hotel{{ID: "h1", Name: "Serena", Status: domain.StatusAvailable}}
	if err := c.Set(ctx, "list:hotels", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL(redisad.KeyPrefix + "list:hotels"); ttl != 60*time.Second {
		t.Fatalf("ttl: got %v", ttl)
	}

	var out []domain.Hotel
	ok, err := c.Get(ctx, "list:hotels", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(out) != 1 || out[0].Name != "Serena" || out[0].Status != domain.StatusAvailable {
		t.Fatalf("unexpected cached value: %+v", out)
	}

	if err := c.Del(ctx, "list:hotels"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = c.Get(ctx, "list:hotels", &out)
	if err != nil || ok {
		t.Fatalf("expected miss after del, ok=%v err=%v", ok, err)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", map[string]string{"a": "b"}, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var out map[string]string
	if ok, _ := c.Get(ctx, "k", &out); ok {
		t.Fatalf("expected expired key")
	}
}

func TestCache_ServerDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	var out []string
	if _, err := c.Get(context.Background(), "k", &out); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}

func TestCache_NonPositiveTTLSkipsWrite(t *testing.T) {
	c, mr := newCache(t)
	if err := c.Set(context.Background(), "list:hotels", []string{"x"}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if mr.Exists(redisad.KeyPrefix + "list:hotels") {
		t.Fatalf("ttl 0 should not write")
	}
}

func TestCache_UndecodableValueIsMiss(t *testing.T) {
	c, mr := newCache(t)
	if err := mr.Set(redisad.KeyPrefix+"list:hotels", "not json"); err != nil {
		t.Fatal(err)
	}
	var out []domain.Hotel
	ok, err := c.Get(context.Background(), "list:hotels", &out)
	if ok || err == nil {
		t.Fatalf("ok=%v err=%v, want miss with error", ok, err)
	}
}

func TestCache_Incr(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 2; want++ {
		n, err := c.Incr(ctx, "list:hotels:gen")
		if err != nil || n != want {
			t.Fatalf("incr: n=%d err=%v, want %d", n, err, want)
		}
	}
	if mr.TTL(redisad.KeyPrefix+"list:hotels:gen") != 0 {
		t.Fatal("counter should not expire")
	}

	var gen int64
	ok, err := c.Get(ctx, "list:hotels:gen", &gen)
	if err != nil || !ok || gen != 2 {
		t.Fatalf("get counter: ok=%v gen=%d err=%v", ok, gen, err)
	}
}
