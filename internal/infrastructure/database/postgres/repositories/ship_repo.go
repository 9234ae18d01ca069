package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

const shipColumns = `id, name, imo_number, flag, ship_type, status,
	anniversary_day, anniversary_month, special_survey_cycle_to,
	created_at, updated_at, version`

// ShipRepository persists ship aggregates in PostgreSQL.
type ShipRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ ship.Repository = (*ShipRepository)(nil)

// NewShipRepository wires a ShipRepository to the shared connection pool.
func NewShipRepository(pool *pgxpool.Pool, logger logging.Logger) *ShipRepository {
	return &ShipRepository{pool: pool, logger: logger}
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

func (r *ShipRepository) Create(ctx context.Context, s *ship.Ship) error {
	r.logger.Debug("ShipRepository.Create",
		logging.String("ship_id", string(s.ID)),
		logging.String("imo_number", s.IMONumber),
	)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO ships (id, name, imo_number, flag, ship_type, status,
			anniversary_day, anniversary_month, special_survey_cycle_to,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.Name, s.IMONumber, s.Flag, s.ShipType, s.Status,
		s.AnniversaryDay, s.AnniversaryMonth, s.SpecialSurveyCycleTo,
		s.CreatedAt, s.UpdatedAt, s.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.New(appErrors.ErrCodeShipAlreadyExists, "ship already registered").
				WithDetail(fmt.Sprintf("imo_number=%s", s.IMONumber))
		}
		r.logger.Error("ShipRepository.Create: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to insert ship")
	}
	return nil
}

// Update persists mutations to an existing ship using optimistic locking.
// Mutators bump Version in memory before the aggregate reaches the
// repository, so the row must still hold the previous version.
func (r *ShipRepository) Update(ctx context.Context, s *ship.Ship) error {
	r.logger.Debug("ShipRepository.Update",
		logging.String("ship_id", string(s.ID)),
		logging.Int("version", s.Version),
	)

	tag, err := r.pool.Exec(ctx, `
		UPDATE ships SET
			name=$1, flag=$2, ship_type=$3, status=$4,
			anniversary_day=$5, anniversary_month=$6, special_survey_cycle_to=$7,
			updated_at=$8, version=$9
		WHERE id=$10 AND version=$11`,
		s.Name, s.Flag, s.ShipType, s.Status,
		s.AnniversaryDay, s.AnniversaryMonth, s.SpecialSurveyCycleTo,
		s.UpdatedAt, s.Version,
		s.ID, s.Version-1,
	)
	if err != nil {
		r.logger.Error("ShipRepository.Update: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to update ship")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.CodeConflict, "optimistic lock conflict: ship version mismatch").
			WithDetail(fmt.Sprintf("ship_id=%s expected_version=%d", s.ID, s.Version-1))
	}
	return nil
}

// Delete removes the ship row. Certificates and equipment test records go
// with it through ON DELETE CASCADE.
func (r *ShipRepository) Delete(ctx context.Context, id common.ID) error {
	r.logger.Debug("ShipRepository.Delete", logging.String("ship_id", string(id)))

	tag, err := r.pool.Exec(ctx, `DELETE FROM ships WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("ShipRepository.Delete: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to delete ship")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeShipNotFound, "ship not found").
			WithDetail(fmt.Sprintf("ship_id=%s", id))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func (r *ShipRepository) GetByID(ctx context.Context, id common.ID) (*ship.Ship, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+shipColumns+` FROM ships WHERE id = $1`, id)
	return r.scanShip(row)
}

func (r *ShipRepository) GetByIMO(ctx context.Context, imoNumber string) (*ship.Ship, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+shipColumns+` FROM ships WHERE imo_number = $1`, imoNumber)
	return r.scanShip(row)
}

func (r *ShipRepository) List(ctx context.Context, filter ship.ListFilter, page common.Pagination) ([]*ship.Ship, int64, error) {
	var (
		conditions []string
		b          argBuilder
	)

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = %s", b.add(filter.Status)))
	}
	if filter.Flag != "" {
		conditions = append(conditions, fmt.Sprintf("flag = %s", b.add(filter.Flag)))
	}
	if filter.ShipType != "" {
		conditions = append(conditions, fmt.Sprintf("ship_type = %s", b.add(filter.ShipType)))
	}
	if filter.NameQuery != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE %s", b.add(ilikePattern(filter.NameQuery))))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM ships %s", whereClause)
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, b.args...).Scan(&total); err != nil {
		r.logger.Error("ShipRepository.List: count", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to count ships")
	}

	limit, offset := pageWindow(page)
	dataSQL := fmt.Sprintf(`
		SELECT %s FROM ships %s
		ORDER BY name ASC
		LIMIT %s OFFSET %s`,
		shipColumns, whereClause, b.add(limit), b.add(offset))

	rows, err := r.pool.Query(ctx, dataSQL, b.args...)
	if err != nil {
		r.logger.Error("ShipRepository.List: query", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to list ships")
	}
	defer rows.Close()

	ships, err := r.scanShips(rows)
	if err != nil {
		return nil, 0, err
	}
	return ships, total, nil
}

func (r *ShipRepository) ListOperational(ctx context.Context) ([]*ship.Ship, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+shipColumns+` FROM ships WHERE status = $1 ORDER BY name ASC`,
		common.StatusActive)
	if err != nil {
		r.logger.Error("ShipRepository.ListOperational: query", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to list operational ships")
	}
	defer rows.Close()

	return r.scanShips(rows)
}

func (r *ShipRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ships`).Scan(&total); err != nil {
		r.logger.Error("ShipRepository.Count: query", logging.Err(err))
		return 0, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to count ships")
	}
	return total, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *ShipRepository) scanShip(row pgx.Row) (*ship.Ship, error) {
	var s ship.Ship
	err := row.Scan(
		&s.ID, &s.Name, &s.IMONumber, &s.Flag, &s.ShipType, &s.Status,
		&s.AnniversaryDay, &s.AnniversaryMonth, &s.SpecialSurveyCycleTo,
		&s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeShipNotFound, "ship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to scan ship row")
	}
	return &s, nil
}

func (r *ShipRepository) scanShips(rows pgx.Rows) ([]*ship.Ship, error) {
	var ships []*ship.Ship
	for rows.Next() {
		var s ship.Ship
		err := rows.Scan(
			&s.ID, &s.Name, &s.IMONumber, &s.Flag, &s.ShipType, &s.Status,
			&s.AnniversaryDay, &s.AnniversaryMonth, &s.SpecialSurveyCycleTo,
			&s.CreatedAt, &s.UpdatedAt, &s.Version,
		)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to scan ship row")
		}
		ships = append(ships, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to iterate ship rows")
	}
	return ships, nil
}
