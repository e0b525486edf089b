package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stdliberrors "errors"

	"github.com/lib/pq"

	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

const entityColumns = `id, category, canonical_name, normalized_key, aliases, attributes, active, verified, created_at, updated_at`

type postgresEntityRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresEntityRepo returns an entity.Repository backed by the entities
// table.
func NewPostgresEntityRepo(conn *postgres.Connection, log logging.Logger) entity.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresEntityRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *postgresEntityRepo) Create(ctx context.Context, e *entity.Entity) error {
	attrs, err := marshalAttributes(e.Attributes)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.executor.ExecContext(ctx, query,
		e.ID, string(e.Category), e.CanonicalName, e.NormalizedKey,
		pq.Array(e.Aliases.Values()), attrs, e.Active, e.Verified, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeEntityAlreadyExists, "entity already exists").
				WithDetail(string(e.Category) + "/" + e.NormalizedKey)
		}
		return postgres.MapError(err, "failed to create entity")
	}
	return nil
}

func (r *postgresEntityRepo) Update(ctx context.Context, e *entity.Entity) error {
	attrs, err := marshalAttributes(e.Attributes)
	if err != nil {
		return err
	}
	query := `
		UPDATE entities SET
			canonical_name = $2, normalized_key = $3, aliases = $4, attributes = $5,
			active = $6, verified = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := r.executor.ExecContext(ctx, query,
		e.ID, e.CanonicalName, e.NormalizedKey, pq.Array(e.Aliases.Values()), attrs,
		e.Active, e.Verified, e.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeEntityAlreadyExists, "entity already exists").
				WithDetail(string(e.Category) + "/" + e.NormalizedKey)
		}
		return postgres.MapError(err, "failed to update entity")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeEntityNotFound, "entity not found").WithDetail(e.ID)
	}
	return nil
}

func (r *postgresEntityRepo) GetByID(ctx context.Context, id string) (*entity.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = $1`
	e, err := scanEntity(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if stdliberrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeEntityNotFound, "entity not found").WithDetail(id)
		}
		return nil, postgres.MapError(err, "failed to get entity")
	}
	return e, nil
}

func (r *postgresEntityRepo) ListByCategory(ctx context.Context, category entity.Category) ([]*entity.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE category = $1 ORDER BY id`
	rows, err := r.executor.QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, postgres.MapError(err, "failed to list entities")
	}
	defer rows.Close()

	var out []*entity.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, postgres.MapError(err, "failed to scan entity")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "failed to list entities")
	}
	return out, nil
}

func (r *postgresEntityRepo) ListIDs(ctx context.Context, f entity.ListFilter) ([]string, error) {
	query := `
		SELECT id FROM entities
		WHERE ($1::text = '' OR category = $1)
		  AND id > $2
		  AND (NOT $3::boolean OR active)
		ORDER BY id
		LIMIT $4
	`
	var limit interface{}
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := r.executor.QueryContext(ctx, query, string(f.Category), f.AfterID, f.ActiveOnly, limit)
	if err != nil {
		return nil, postgres.MapError(err, "failed to list entity ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, postgres.MapError(err, "failed to scan entity id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "failed to list entity ids")
	}
	return ids, nil
}

func scanEntity(row scanner) (*entity.Entity, error) {
	var (
		e        entity.Entity
		category string
		aliases  pq.StringArray
		attrs    []byte
	)
	if err := row.Scan(
		&e.ID, &category, &e.CanonicalName, &e.NormalizedKey, &aliases, &attrs,
		&e.Active, &e.Verified, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Category = entity.Category(category)
	e.Aliases = entity.NewAliasSet(aliases...)
	e.Attributes = map[string]string{}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode entity attributes").WithDetail(e.ID)
		}
	}
	return &e, nil
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode entity attributes")
	}
	return b, nil
}

//Personal.AI order the ending
