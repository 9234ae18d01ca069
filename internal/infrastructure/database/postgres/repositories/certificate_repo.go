package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

const certificateColumns = `id, ship_id, name, category, issue_date, valid_date,
	last_endorse, survey_annotation, next_survey_date, next_survey_type,
	created_at, updated_at, version`

// CertificateRepository persists certificate aggregates in PostgreSQL.
type CertificateRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ certificate.Repository = (*CertificateRepository)(nil)

// NewCertificateRepository wires a CertificateRepository to the shared
// connection pool.
func NewCertificateRepository(pool *pgxpool.Pool, logger logging.Logger) *CertificateRepository {
	return &CertificateRepository{pool: pool, logger: logger}
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

func (r *CertificateRepository) Create(ctx context.Context, c *certificate.Certificate) error {
	r.logger.Debug("CertificateRepository.Create",
		logging.String("certificate_id", string(c.ID)),
		logging.String("ship_id", string(c.ShipID)),
		logging.String("name", c.Name),
	)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO certificates (id, ship_id, name, category, issue_date, valid_date,
			last_endorse, survey_annotation, next_survey_date, next_survey_type,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.ShipID, c.Name, c.Category, c.IssueDate, c.ValidDate,
		c.LastEndorse, c.SurveyAnnotation, c.NextSurveyDate, c.NextSurveyType,
		c.CreatedAt, c.UpdatedAt, c.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.New(appErrors.ErrCodeCertificateAlreadyExists, "certificate already exists").
				WithDetail(fmt.Sprintf("certificate_id=%s", c.ID))
		}
		r.logger.Error("CertificateRepository.Create: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to insert certificate")
	}
	return nil
}

// Update persists mutations to an existing certificate using optimistic
// locking. Mutators bump Version in memory before the aggregate reaches the
// repository, so the row must still hold the previous version.
func (r *CertificateRepository) Update(ctx context.Context, c *certificate.Certificate) error {
	r.logger.Debug("CertificateRepository.Update",
		logging.String("certificate_id", string(c.ID)),
		logging.Int("version", c.Version),
	)

	tag, err := r.pool.Exec(ctx, `
		UPDATE certificates SET
			name=$1, category=$2, issue_date=$3, valid_date=$4,
			last_endorse=$5, survey_annotation=$6, next_survey_date=$7, next_survey_type=$8,
			updated_at=$9, version=$10
		WHERE id=$11 AND version=$12`,
		c.Name, c.Category, c.IssueDate, c.ValidDate,
		c.LastEndorse, c.SurveyAnnotation, c.NextSurveyDate, c.NextSurveyType,
		c.UpdatedAt, c.Version,
		c.ID, c.Version-1,
	)
	if err != nil {
		r.logger.Error("CertificateRepository.Update: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to update certificate")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.CodeConflict, "optimistic lock conflict: certificate version mismatch").
			WithDetail(fmt.Sprintf("certificate_id=%s expected_version=%d", c.ID, c.Version-1))
	}
	return nil
}

func (r *CertificateRepository) Delete(ctx context.Context, id common.ID) error {
	r.logger.Debug("CertificateRepository.Delete", logging.String("certificate_id", string(id)))

	tag, err := r.pool.Exec(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("CertificateRepository.Delete: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to delete certificate")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeCertificateNotFound, "certificate not found").
			WithDetail(fmt.Sprintf("certificate_id=%s", id))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func (r *CertificateRepository) GetByID(ctx context.Context, id common.ID) (*certificate.Certificate, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, id)
	return r.scanCertificate(row)
}

func (r *CertificateRepository) ListByShip(ctx context.Context, shipID common.ID) ([]*certificate.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+certificateColumns+` FROM certificates
		 WHERE ship_id = $1
		 ORDER BY name ASC`, shipID)
	if err != nil {
		r.logger.Error("CertificateRepository.ListByShip: query", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to list ship certificates")
	}
	defer rows.Close()

	return r.scanCertificates(rows)
}

func (r *CertificateRepository) List(ctx context.Context, filter certificate.ListFilter, page common.Pagination) ([]*certificate.Certificate, int64, error) {
	var (
		conditions []string
		b          argBuilder
	)

	if filter.ShipID != "" {
		conditions = append(conditions, fmt.Sprintf("ship_id = %s", b.add(filter.ShipID)))
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = %s", b.add(filter.Category)))
	}
	if filter.NameQuery != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE %s", b.add(ilikePattern(filter.NameQuery))))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM certificates %s", whereClause)
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, b.args...).Scan(&total); err != nil {
		r.logger.Error("CertificateRepository.List: count", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to count certificates")
	}

	limit, offset := pageWindow(page)
	dataSQL := fmt.Sprintf(`
		SELECT %s FROM certificates %s
		ORDER BY valid_date ASC NULLS LAST, name ASC
		LIMIT %s OFFSET %s`,
		certificateColumns, whereClause, b.add(limit), b.add(offset))

	rows, err := r.pool.Query(ctx, dataSQL, b.args...)
	if err != nil {
		r.logger.Error("CertificateRepository.List: query", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to list certificates")
	}
	defer rows.Close()

	certs, err := r.scanCertificates(rows)
	if err != nil {
		return nil, 0, err
	}
	return certs, total, nil
}

func (r *CertificateRepository) FindExpiring(ctx context.Context, cutoff time.Time) ([]*certificate.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+certificateColumns+` FROM certificates
		 WHERE valid_date IS NOT NULL AND valid_date <= $1
		 ORDER BY valid_date ASC`, cutoff)
	if err != nil {
		r.logger.Error("CertificateRepository.FindExpiring: query", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to find expiring certificates")
	}
	defer rows.Close()

	return r.scanCertificates(rows)
}

func (r *CertificateRepository) FindSurveysBetween(ctx context.Context, from, to time.Time) ([]*certificate.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+certificateColumns+` FROM certificates
		 WHERE next_survey_date IS NOT NULL
		   AND next_survey_date >= $1 AND next_survey_date <= $2
		 ORDER BY next_survey_date ASC`, from, to)
	if err != nil {
		r.logger.Error("CertificateRepository.FindSurveysBetween: query", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to find surveys in range")
	}
	defer rows.Close()

	return r.scanCertificates(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *CertificateRepository) scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var c certificate.Certificate
	err := row.Scan(
		&c.ID, &c.ShipID, &c.Name, &c.Category, &c.IssueDate, &c.ValidDate,
		&c.LastEndorse, &c.SurveyAnnotation, &c.NextSurveyDate, &c.NextSurveyType,
		&c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeCertificateNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to scan certificate row")
	}
	return &c, nil
}

func (r *CertificateRepository) scanCertificates(rows pgx.Rows) ([]*certificate.Certificate, error) {
	var certs []*certificate.Certificate
	for rows.Next() {
		var c certificate.Certificate
		err := rows.Scan(
			&c.ID, &c.ShipID, &c.Name, &c.Category, &c.IssueDate, &c.ValidDate,
			&c.LastEndorse, &c.SurveyAnnotation, &c.NextSurveyDate, &c.NextSurveyType,
			&c.CreatedAt, &c.UpdatedAt, &c.Version,
		)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to scan certificate row")
		}
		certs = append(certs, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to iterate certificate rows")
	}
	return certs, nil
}
