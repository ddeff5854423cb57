package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/companionsvc/domain"
)

// PendingSignupRepositoryImpl implements domain.PendingSignupStore using Redis.
// Each record lives under its own key with a TTL; a sibling key counts
// wrong-code attempts.
type PendingSignupRepositoryImpl struct {
	client        *redis.Client
	prefix        string
	attemptPrefix string
	ttl           time.Duration
}

// NewPendingSignupRepository creates a pending signup store whose records
// expire after ttl.
func NewPendingSignupRepository(client *redis.Client, ttl time.Duration) domain.PendingSignupStore {
	return &PendingSignupRepositoryImpl{
		client:        client,
		prefix:        "signup:pending:",
		attemptPrefix: "signup:att:",
		ttl:           ttl,
	}
}

// Create implements domain.PendingSignupStore
func (r *PendingSignupRepositoryImpl) Create(ctx context.Context, p *domain.PendingSignup) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pending signup: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.prefix+p.Email, data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSignupPending
	}

	// stale counters from an evicted record must not carry over
	return r.client.Del(ctx, r.attemptPrefix+p.Email).Err()
}

// Get implements domain.PendingSignupStore
func (r *PendingSignupRepositoryImpl) Get(ctx context.Context, email string) (*domain.PendingSignup, error) {
	data, err := r.client.Get(ctx, r.prefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrPendingSignupNotFound
		}
		return nil, err
	}
	return decodePending(data)
}

// Take implements domain.PendingSignupStore
func (r *PendingSignupRepositoryImpl) Take(ctx context.Context, email string) (*domain.PendingSignup, error) {
	data, err := r.client.GetDel(ctx, r.prefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrPendingSignupNotFound
		}
		return nil, err
	}
	r.client.Del(ctx, r.attemptPrefix+email)
	return decodePending(data)
}

// Delete implements domain.PendingSignupStore
func (r *PendingSignupRepositoryImpl) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.prefix+email, r.attemptPrefix+email).Err()
}

// IncrementAttempts implements domain.PendingSignupStore
func (r *PendingSignupRepositoryImpl) IncrementAttempts(ctx context.Context, email string) (int64, error) {
	key := r.attemptPrefix + email
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func decodePending(data []byte) (*domain.PendingSignup, error) {
	var p domain.PendingSignup
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending signup: %w", err)
	}
	return &p, nil
}
