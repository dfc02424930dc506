package patient

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

// conn prefers a transaction already bound to the context so writes
// issued during bundle processing join the bundle's rollback scope.
func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, fhir_id, active, family, given, gender, birth_date,
	version_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FHIRID, &p.Active, &p.Family, &p.Given,
		&p.Gender, &p.BirthDate, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	if p.FHIRID == "" {
		p.FHIRID = p.ID.String()
	}
	p.VersionID = 1
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, fhir_id, active, family, given, gender, birth_date, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.FHIRID, p.Active, p.Family, p.Given, p.Gender, p.BirthDate, p.VersionID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByFHIRID(ctx context.Context, fhirID string) (*Patient, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE fhir_id = $1`, fhirID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET active=$2, family=$3, given=$4, gender=$5, birth_date=$6,
			version_id = version_id + 1, updated_at = NOW()
		WHERE fhir_id = $1
		RETURNING version_id, updated_at`,
		p.FHIRID, p.Active, p.Family, p.Given, p.Gender, p.BirthDate).
		Scan(&p.VersionID, &p.UpdatedAt)
}

func (r *repoPG) Delete(ctx context.Context, fhirID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE fhir_id = $1`, fhirID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
