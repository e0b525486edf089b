package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pipeline "github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeLockNotAcquired, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

var mutexUnlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var mutexExtendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// LockFactory hands out single-owner mutexes stored as Redis keys.  It
// implements the pipeline Locker.
type LockFactory struct {
	client *Client
	log    logging.Logger
}

var _ pipeline.Locker = (*LockFactory)(nil)

func NewLockFactory(client *Client, log logging.Logger) *LockFactory {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &LockFactory{client: client, log: log}
}

// Acquire takes the mutex named key for ttl without waiting.  A held mutex
// yields ErrCodeLockNotAcquired, which the unit retry policy treats as
// transient.
func (f *LockFactory) Acquire(ctx context.Context, key string, ttl time.Duration) (pipeline.Unlocker, error) {
	rdb, err := f.client.GetUnderlyingClient()
	if err != nil {
		return nil, err
	}
	m := &Mutex{
		rdb:   rdb,
		key:   f.client.Key("lock", key),
		value: uuid.New().String(),
		log:   f.log,
	}
	ok, err := rdb.SetNX(ctx, m.key, m.value, ttl).Result()
	if err != nil {
		return nil, mapError(err, "failed to set lock")
	}
	if !ok {
		return nil, ErrLockNotAcquired.WithDetail(key)
	}
	return m, nil
}

// Mutex is a held lock.
type Mutex struct {
	rdb   redis.UniversalClient
	key   string
	value string
	log   logging.Logger
}

// Release deletes the key if this owner still holds it.
func (m *Mutex) Release(ctx context.Context) error {
	res, err := mutexUnlockScript.Run(ctx, m.rdb, []string{m.key}, m.value).Int64()
	if err != nil {
		return mapError(err, "failed to release lock")
	}
	if res == 0 {
		m.log.Warn("lock expired before release", logging.String("key", m.key))
		return ErrLockNotHeld.WithDetail(m.key)
	}
	return nil
}

// Extend resets the lock's TTL.  It reports false when the lock was lost.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := mutexExtendScript.Run(ctx, m.rdb, []string{m.key}, m.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, mapError(err, "failed to extend lock")
	}
	return res == 1, nil
}

// TTL returns the remaining lifetime of the lock key.
func (m *Mutex) TTL(ctx context.Context) (time.Duration, error) {
	d, err := m.rdb.PTTL(ctx, m.key).Result()
	return d, mapError(err, "failed to read lock ttl")
}

//Personal.AI order the ending
