package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"llmconnector/internal/models"
)

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	store := NewRedisStore(rdb, "work", time.Hour)

	got, err := store.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected empty store, got %v, %v", got, err)
	}

	s := session("at-1", now.Add(time.Hour))
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("llmconnector:session:work") {
		t.Fatalf("expected profile key to exist")
	}
	if ttl := mr.TTL("llmconnector:session:work"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != "at-1" || got.User != (models.User{ID: "u-1", Email: "a@b.co"}) {
		t.Fatalf("unexpected session: %+v", got)
	}

	mr.FastForward(2 * time.Hour)
	got, err = store.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected expired session to be gone, got %v, %v", got, err)
	}

	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("llmconnector:session:work") {
		t.Fatalf("expected key to be deleted")
	}
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	if err := mr.Set("llmconnector:session:default", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewRedisStore(rdb, "", time.Hour)
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}

	g := newGate(&fakeAuth{}, store)
	if g.Restore(context.Background()) {
		t.Fatalf("expected restore to fail closed")
	}
	if mr.Exists("llmconnector:session:default") {
		t.Fatalf("expected corrupt session to be cleared")
	}
}
