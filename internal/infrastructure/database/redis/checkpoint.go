package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	pipeline "github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
)

// CheckpointStore keeps the last fully processed position of each named run
// as a string key.  Saved checkpoints expire after ttl so an abandoned run
// does not pin a stale position forever; zero ttl keeps them indefinitely.
type CheckpointStore struct {
	client *Client
	ttl    time.Duration
	log    logging.Logger
}

var _ pipeline.Checkpointer = (*CheckpointStore)(nil)

func NewCheckpointStore(client *Client, ttl time.Duration, log logging.Logger) *CheckpointStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CheckpointStore{client: client, ttl: ttl, log: log}
}

func (s *CheckpointStore) key(name string) string {
	return s.client.Key("checkpoint", name)
}

func (s *CheckpointStore) Load(ctx context.Context, name string) (string, bool, error) {
	rdb, err := s.client.GetUnderlyingClient()
	if err != nil {
		return "", false, err
	}
	pos, err := rdb.Get(ctx, s.key(name)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapError(err, "failed to load checkpoint")
	}
	return pos, true, nil
}

func (s *CheckpointStore) Save(ctx context.Context, name, position string) error {
	rdb, err := s.client.GetUnderlyingClient()
	if err != nil {
		return err
	}
	if err := rdb.Set(ctx, s.key(name), position, s.ttl).Err(); err != nil {
		return mapError(err, "failed to save checkpoint")
	}
	s.log.Debug("checkpoint saved", logging.String("name", name), logging.String("position", position))
	return nil
}

func (s *CheckpointStore) Clear(ctx context.Context, name string) error {
	rdb, err := s.client.GetUnderlyingClient()
	if err != nil {
		return err
	}
	if err := rdb.Del(ctx, s.key(name)).Err(); err != nil {
		return mapError(err, "failed to clear checkpoint")
	}
	return nil
}

//Personal.AI order the ending
