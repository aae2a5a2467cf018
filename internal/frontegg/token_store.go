package frontegg

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryTokenStore keeps the credential for the lifetime of the process.
type MemoryTokenStore struct {
	mu   sync.Mutex
	cred VendorCredential
	set  bool
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(_ context.Context) (VendorCredential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.set, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, cred VendorCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred, s.set = cred, true
	return nil
}

func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred, s.set = VendorCredential{}, false
	return nil
}

// RedisTokenStore shares the credential between instances. The key expires
// together with the token.
type RedisTokenStore struct {
	rdb *redis.Client
	key string
}

func NewRedisTokenStore(rdb *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = "frontegg:vendor_token"
	}
	return &RedisTokenStore{rdb: rdb, key: key}
}

func (s *RedisTokenStore) Load(ctx context.Context) (VendorCredential, bool, error) {
	val, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return VendorCredential{}, false, nil
	}
	if err != nil {
		return VendorCredential{}, false, err
	}
	var cred VendorCredential
	if err := json.Unmarshal(val, &cred); err != nil {
		return VendorCredential{}, false, err
	}
	return cred, true, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, cred VendorCredential) error {
	ttl := time.Until(time.UnixMilli(cred.ExpiresAtEpochMs))
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, b, ttl).Err()
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
