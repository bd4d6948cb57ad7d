package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records token IDs that were logged out before they expired.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationList keeps revoked IDs in process until their token expires.
type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{revoked: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryRevocationList) Revoke(_ context.Context, tokenID string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, exp := range l.revoked {
		if !exp.After(now) {
			delete(l.revoked, id)
		}
	}
	if until.After(now) {
		l.revoked[tokenID] = until
	}
	return nil
}

func (l *MemoryRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.revoked[tokenID]
	return ok && exp.After(l.now()), nil
}

// RedisRevocationList stores revoked IDs as keys that expire with the token.
type RedisRevocationList struct {
	client redis.Cmdable
	prefix string
}

func NewRedisRevocationList(client redis.Cmdable, prefix string) *RedisRevocationList {
	return &RedisRevocationList{client: client, prefix: prefix + "revoked:"}
}

func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, l.prefix+tokenID, "1", ttl).Err()
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
