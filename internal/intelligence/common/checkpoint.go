package common

import "context"

// Checkpointer persists the resume position of a pipeline run under a name
// such as "extract" or "backfill:aggregate".  The Redis implementation lives
// in internal/infrastructure/database/redis.
type Checkpointer interface {
	// Load returns the stored position and whether one exists.
	Load(ctx context.Context, name string) (string, bool, error)
	Save(ctx context.Context, name, position string) error
	Clear(ctx context.Context, name string) error
}

// NopCheckpointer never stores anything; every run starts from the beginning.
type NopCheckpointer struct{}

func (NopCheckpointer) Load(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopCheckpointer) Save(context.Context, string, string) error         { return nil }
func (NopCheckpointer) Clear(context.Context, string) error                { return nil }

//Personal.AI order the ending
