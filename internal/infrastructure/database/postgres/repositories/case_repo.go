package repositories

import (
	"context"
	"database/sql"
	stdliberrors "errors"

	"github.com/lib/pq"

	"github.com/turtacn/CaseIntel/internal/domain/litigation"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
	"github.com/turtacn/CaseIntel/pkg/types/common"
)

const caseColumns = `id, title, plaintiffs, defendants, parties, summary, judgement, conclusion,
	headnotes, area_of_law, date, claim_amount, award_amount`

// postgresCaseReader reads the case corpus.  It never writes.
type postgresCaseReader struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresCaseReader returns a litigation.CaseReader over the cases table.
func NewPostgresCaseReader(conn *postgres.Connection, log logging.Logger) litigation.CaseReader {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresCaseReader{log: log, executor: conn.DB()}
}

func (r *postgresCaseReader) Get(ctx context.Context, id int64) (*litigation.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	c, err := scanCase(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if stdliberrors.Is(err, sql.ErrNoRows) {
			return nil, errors.Newf(errors.ErrCodeCaseNotFound, "case %d not found", id)
		}
		return nil, postgres.MapError(err, "failed to get case")
	}
	return c, nil
}

func (r *postgresCaseReader) Scan(ctx context.Context, page common.PageRequest) ([]*litigation.CaseRecord, error) {
	page = page.Normalize(maxScanPage)
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id > $1 ORDER BY id LIMIT $2`
	return r.query(ctx, "failed to scan cases", query, page.After, page.Limit)
}

// FindByNames matches names as case-insensitive substrings of the party and
// body fields.  LIKE metacharacters in names are matched literally.
func (r *postgresCaseReader) FindByNames(ctx context.Context, names []string) ([]*litigation.CaseRecord, error) {
	patterns := containsPatterns(names)
	if len(patterns) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + caseColumns + ` FROM cases
		WHERE title ILIKE ANY($1)
		   OR plaintiffs ILIKE ANY($1)
		   OR defendants ILIKE ANY($1)
		   OR parties ILIKE ANY($1)
		   OR summary ILIKE ANY($1)
		   OR judgement ILIKE ANY($1)
		   OR conclusion ILIKE ANY($1)
		   OR headnotes ILIKE ANY($1)
		ORDER BY id
	`
	cases, err := r.query(ctx, "failed to find cases by name", query, pq.Array(patterns))
	if err != nil {
		return nil, err
	}
	r.log.Debug("cases matched by name",
		logging.Int("names", len(patterns)),
		logging.Int("cases", len(cases)),
	)
	return cases, nil
}

func (r *postgresCaseReader) query(ctx context.Context, msg, query string, args ...interface{}) ([]*litigation.CaseRecord, error) {
	rows, err := r.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, msg)
	}
	defer rows.Close()

	var out []*litigation.CaseRecord
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, postgres.MapError(err, msg)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, msg)
	}
	return out, nil
}

func scanCase(row scanner) (*litigation.CaseRecord, error) {
	var (
		c    litigation.CaseRecord
		date sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.Title, &c.Plaintiffs, &c.Defendants, &c.Parties, &c.Summary,
		&c.Judgement, &c.Conclusion, &c.Headnotes, &c.AreaOfLaw, &date,
		&c.ClaimAmount, &c.AwardAmount,
	); err != nil {
		return nil, err
	}
	if date.Valid {
		d := date.Time
		c.Date = &d
	}
	return &c, nil
}

//Personal.AI order the ending
