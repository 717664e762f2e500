package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"pizzastore/catalog"
)

var _ catalog.Cache = (*Redis)(nil)

func TestKey(t *testing.T) {
	if got, want := Key(3, "items:type=:max=-:sort=0"), "pizzastore:menu:v3:items:type=:max=-:sort=0"; got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
	if Key(1, "a") == Key(2, "a") {
		t.Fatalf("versions must produce distinct keys")
	}
}

func TestGetReportsUnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := NewRedis(rdb, time.Minute)
	if _, _, ok, err := c.Get(context.Background(), "k"); err == nil || ok {
		t.Fatalf("expected an error from an unreachable server, got ok=%v err=%v", ok, err)
	}
}
