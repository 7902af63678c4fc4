package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository keeps serialized editor drafts by id.
type DraftRepository interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte) error
	Delete(ctx context.Context, id string) error
}

// MemoryDraftRepository is the default store; drafts are lost on restart.
type MemoryDraftRepository struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{drafts: make(map[string][]byte)}
}

func (r *MemoryDraftRepository) Get(ctx context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return append([]byte(nil), data...), nil
}

func (r *MemoryDraftRepository) Save(ctx context.Context, id string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[id] = append([]byte(nil), data...)
	return nil
}

func (r *MemoryDraftRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
	return nil
}

const draftKeyPrefix = "editorial:draft:"

// RedisDraftRepository keeps drafts across restarts. Every save refreshes the TTL.
type RedisDraftRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDraftRepository(rdb *redis.Client, ttl time.Duration) *RedisDraftRepository {
	return &RedisDraftRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisDraftRepository) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, draftKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	return data, err
}

func (r *RedisDraftRepository) Save(ctx context.Context, id string, data []byte) error {
	return r.rdb.Set(ctx, draftKeyPrefix+id, data, r.ttl).Err()
}

func (r *RedisDraftRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, draftKeyPrefix+id).Err()
}
