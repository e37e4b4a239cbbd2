package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient returns a client on a fresh in-process server. Both are
// closed when the test ends.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// requireKeys fails unless the server holds exactly want keys.
func requireKeys(t *testing.T, mr *miniredis.Miniredis, want int) {
	t.Helper()
	if keys := mr.Keys(); len(keys) != want {
		t.Fatalf("expected %d keys, got %v", want, keys)
	}
}
