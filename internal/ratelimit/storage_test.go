package ratelimit

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStringCmd(ctx, "get", key)
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, val any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := val.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	}
	f.ttl[key] = exp
	cmd := redis.NewStatusCmd(ctx, "set", key)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx, "del")
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	cmd := redis.NewScanCmd(ctx, nil, "scan")
	cmd.SetVal(keys, 0)
	return cmd
}

func TestRedisStorageRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	s := newWithStore(fake)

	v, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set("1.2.3.4|enquiry", []byte("payload"), time.Minute))
	assert.Equal(t, time.Minute, fake.ttl[keyNamespace+"1.2.3.4|enquiry"])

	v, err = s.Get("1.2.3.4|enquiry")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), v)

	require.NoError(t, s.Delete("1.2.3.4|enquiry"))
	v, err = s.Get("1.2.3.4|enquiry")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestResetKeepsForeignKeys(t *testing.T) {
	fake := newFakeRedis()
	fake.data["other:key"] = []byte("x")
	s := newWithStore(fake)
	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Set("b", []byte("2"), 0))

	require.NoError(t, s.Reset())
	assert.Len(t, fake.data, 1)
	assert.Contains(t, fake.data, "other:key")
	assert.NoError(t, s.Close())
}

func TestLimiterSharesRedisCounters(t *testing.T) {
	storage := newWithStore(newFakeRedis())
	rule := Rule{Name: "enquiry", Max: 2, Window: time.Minute}

	// Two apps stand in for two instances behind a load balancer.
	mk := func() *fiber.App {
		app := fiber.New()
		app.Post("/api/enquiry", New(rule, storage), func(c *fiber.Ctx) error { return c.SendStatus(201) })
		return app
	}
	a, b := mk(), mk()

	resp, err := a.Test(httptest.NewRequest("POST", "/api/enquiry", nil))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	resp, err = b.Test(httptest.NewRequest("POST", "/api/enquiry", nil))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	resp, err = a.Test(httptest.NewRequest("POST", "/api/enquiry", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestNamespacedStorageIsIsolated(t *testing.T) {
	fake := newFakeRedis()
	rl := newWithStore(fake)
	tokens := rl.Namespaced("continental:csrf:")

	require.NoError(t, rl.Set("k", []byte("rl"), 0))
	require.NoError(t, tokens.Set("k", []byte("csrf"), 0))
	assert.Contains(t, fake.data, "continental:csrf:k")

	require.NoError(t, tokens.Reset())
	v, err := rl.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("rl"), v)
	v, err = tokens.Get("k")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, tokens.Close())
}
