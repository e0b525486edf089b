package entity

import "context"

// ListFilter selects entity ids for a backfill run.  Ids are returned in
// ascending order, strictly after AfterID.
type ListFilter struct {
	Category   Category
	AfterID    string
	Limit      int
	ActiveOnly bool
}

// Repository persists entities.  Create fails with ErrCodeEntityAlreadyExists
// when (category, normalized_key) is taken.
type Repository interface {
	Create(ctx context.Context, e *Entity) error
	Update(ctx context.Context, e *Entity) error
	GetByID(ctx context.Context, id string) (*Entity, error)
	ListByCategory(ctx context.Context, category Category) ([]*Entity, error)
	ListIDs(ctx context.Context, filter ListFilter) ([]string, error)
}

//Personal.AI order the ending
