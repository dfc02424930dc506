package observation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinrec/clinrec/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const obsCols = `id, fhir_id, status, code, display, value, unit, subject_ref,
	effective_at, version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Observation, error) {
	var o Observation
	err := row.Scan(&o.ID, &o.FHIRID, &o.Status, &o.Code, &o.Display, &o.Value,
		&o.Unit, &o.SubjectRef, &o.EffectiveAt, &o.VersionID, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Observation) error {
	o.ID = uuid.New()
	if o.FHIRID == "" {
		o.FHIRID = o.ID.String()
	}
	o.VersionID = 1
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO observation (id, fhir_id, status, code, display, value, unit,
			subject_ref, effective_at, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		o.ID, o.FHIRID, o.Status, o.Code, o.Display, o.Value, o.Unit,
		o.SubjectRef, o.EffectiveAt, o.VersionID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *repoPG) GetByFHIRID(ctx context.Context, fhirID string) (*Observation, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+obsCols+` FROM observation WHERE fhir_id = $1`, fhirID))
}

func (r *repoPG) Update(ctx context.Context, o *Observation) error {
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE observation SET status=$2, code=$3, display=$4, value=$5, unit=$6,
			subject_ref=$7, effective_at=$8,
			version_id = version_id + 1, updated_at = NOW()
		WHERE fhir_id = $1
		RETURNING version_id, updated_at`,
		o.FHIRID, o.Status, o.Code, o.Display, o.Value, o.Unit,
		o.SubjectRef, o.EffectiveAt).
		Scan(&o.VersionID, &o.UpdatedAt)
}

func (r *repoPG) Delete(ctx context.Context, fhirID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM observation WHERE fhir_id = $1`, fhirID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
