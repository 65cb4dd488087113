package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// keyspace answers SET, GET and DEL in process so the repository runs
// against a real client without a server
type keyspace struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]string
}

func (k *keyspace) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (k *keyspace) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func (k *keyspace) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		k.mu.Lock()
		defer k.mu.Unlock()
		args := cmd.Args()
		switch c := cmd.(type) {
		case *goredis.StatusCmd:
			key := args[1].(string)
			k.data[key] = args[2].([]byte)
			if len(args) == 5 {
				k.ttl[key] = fmt.Sprintf("%v %v", args[3], args[4])
			}
			c.SetVal("OK")
		case *goredis.StringCmd:
			v, ok := k.data[args[1].(string)]
			if !ok {
				return goredis.Nil
			}
			c.SetVal(string(v))
		case *goredis.IntCmd:
			var n int64
			for _, key := range args[1:] {
				if _, ok := k.data[key.(string)]; ok {
					delete(k.data, key.(string))
					n++
				}
			}
			c.SetVal(n)
		default:
			return fmt.Errorf("unexpected command %s", cmd.Name())
		}
		return nil
	}
}

func newTestRepo(t *testing.T, now time.Time) (*SessionRepo, *keyspace) {
	t.Helper()
	ks := &keyspace{data: map[string][]byte{}, ttl: map[string]string{}}
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(ks)
	t.Cleanup(func() { client.Close() })
	repo := NewSessionRepository(client, "weatherapi:session:")
	repo.now = func() time.Time { return now }
	return repo, ks
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo, ks := newTestRepo(t, now)

	session := &models.Session{
		ID:        "sess-1",
		Username:  "mrs.lee",
		Role:      models.RoleTeacher,
		IssuedAt:  now,
		ExpiresAt: now.Add(90 * time.Minute),
	}
	require.NoError(t, repo.Create(ctx, session))
	require.Contains(t, ks.data, "weatherapi:session:sess-1")
	assert.Equal(t, "ex 5400", ks.ttl["weatherapi:session:sess-1"])

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "mrs.lee", got.Username)
	assert.Equal(t, models.RoleTeacher, got.Role)

	require.NoError(t, repo.Revoke(ctx, "sess-1"))
	_, err = repo.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, repo.Revoke(ctx, "sess-1"), "revoking twice is not an error")
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo, ks := newTestRepo(t, now)

	err := repo.Create(ctx, &models.Session{ID: "old", ExpiresAt: now.Add(-time.Second)})
	assert.Error(t, err)
	assert.NotContains(t, ks.data, "weatherapi:session:old")

	require.NoError(t, repo.Create(ctx, &models.Session{ID: "short", ExpiresAt: now.Add(time.Minute)}))
	repo.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = repo.Get(ctx, "short")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Get(ctx, "never-created")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
