package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v, want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "graph:1"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "graph:1", []byte(`{"edges":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "graph:1")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v, want hit", hit, err)
	}
	if string(data) != `{"edges":[]}` {
		t.Errorf("Get data = %s", data)
	}

	if err := c.Delete(ctx, "graph:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "graph:1"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "graph:1"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry = %v, %v, want a silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("cache dir should exist after Clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	path := filepath.Join(t.TempDir(), "rows.csv")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if got != h1 {
		t.Errorf("HashFile = %s, want %s", got, h1)
	}
	if _, err := HashFile(path + ".missing"); err == nil {
		t.Error("HashFile on a missing file should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	type mapping struct{ Origin, Destination string }
	gk1 := k.GraphKey("data1", mapping{"from", "to"})
	gk2 := k.GraphKey("data1", mapping{"to", "from"})
	if gk1 == gk2 {
		t.Error("different mappings should produce different graph keys")
	}
	if !strings.HasPrefix(gk1, "graph:") {
		t.Errorf("GraphKey = %s, want graph: prefix", gk1)
	}

	pk1 := k.ProjectionKey("g1", "flow", map[string]int{"topN": 10})
	pk2 := k.ProjectionKey("g1", "force", map[string]int{"topN": 10})
	if pk1 == pk2 {
		t.Error("different views should produce different projection keys")
	}
	if pk1 != k.ProjectionKey("g1", "flow", map[string]int{"topN": 10}) {
		t.Error("ProjectionKey should be deterministic")
	}

	ak1 := k.ArtifactKey(pk1, ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey(pk1, ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("different formats should produce different artifact keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "ws:123:")
	inner := NewDefaultKeyer()

	if got, want := scoped.GraphKey("d", nil), "ws:123:"+inner.GraphKey("d", nil); got != want {
		t.Errorf("GraphKey = %s, want %s", got, want)
	}
	if got := scoped.ProjectionKey("g", "map", nil); !strings.HasPrefix(got, "ws:123:projection:") {
		t.Errorf("ProjectionKey = %s", got)
	}
	if got := scoped.ArtifactKey("p", ArtifactKeyOpts{}); !strings.HasPrefix(got, "ws:123:artifact:") {
		t.Errorf("ArtifactKey = %s", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if got := scoped.GraphKey("d", nil); !strings.HasPrefix(got, "prefix:graph:") {
		t.Errorf("unexpected key with nil inner: %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap to the cause")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	saved := redisBackoff
	redisBackoff.first = time.Millisecond
	defer func() { redisBackoff = saved }()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"permanent failure", 5, false, 1, true},
		{"one transient failure", 1, true, 2, false},
		{"always transient", 5, true, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.retryable {
					return Retryable(ErrUnavailable)
				}
				return ErrUnavailable
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx := context.Background()
	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}

	if _, err := NewRedisCache(ctx, RedisOptions{}); err == nil {
		t.Error("expected an error for an empty address")
	}
}
