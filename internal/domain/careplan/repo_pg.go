package careplan

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

const cpCols = `id, fhir_id, status, intent, title, description, subject_ref,
	version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*CarePlan, error) {
	var cp CarePlan
	err := row.Scan(&cp.ID, &cp.FHIRID, &cp.Status, &cp.Intent, &cp.Title,
		&cp.Description, &cp.SubjectRef, &cp.VersionID, &cp.CreatedAt, &cp.UpdatedAt)
	return &cp, err
}

func (r *repoPG) Create(ctx context.Context, cp *CarePlan) error {
	cp.ID = uuid.New()
	if cp.FHIRID == "" {
		cp.FHIRID = cp.ID.String()
	}
	cp.VersionID = 1
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO care_plan (id, fhir_id, status, intent, title, description, subject_ref, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		cp.ID, cp.FHIRID, cp.Status, cp.Intent, cp.Title, cp.Description,
		cp.SubjectRef, cp.VersionID).
		Scan(&cp.CreatedAt, &cp.UpdatedAt)
}

func (r *repoPG) GetByFHIRID(ctx context.Context, fhirID string) (*CarePlan, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cpCols+` FROM care_plan WHERE fhir_id = $1`, fhirID))
}

func (r *repoPG) Update(ctx context.Context, cp *CarePlan) error {
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE care_plan SET status=$2, intent=$3, title=$4, description=$5, subject_ref=$6,
			version_id = version_id + 1, updated_at = NOW()
		WHERE fhir_id = $1
		RETURNING version_id, updated_at`,
		cp.FHIRID, cp.Status, cp.Intent, cp.Title, cp.Description, cp.SubjectRef).
		Scan(&cp.VersionID, &cp.UpdatedAt)
}

func (r *repoPG) Delete(ctx context.Context, fhirID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM care_plan WHERE fhir_id = $1`, fhirID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
