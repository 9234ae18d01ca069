package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

const equipmentColumns = `id, ship_id, equipment_name, location, issued_date,
	valid_date, created_at, updated_at, version`

// EquipmentRepository persists equipment test records in PostgreSQL.
type EquipmentRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ equipment.Repository = (*EquipmentRepository)(nil)

// NewEquipmentRepository wires an EquipmentRepository to the shared
// connection pool.
func NewEquipmentRepository(pool *pgxpool.Pool, logger logging.Logger) *EquipmentRepository {
	return &EquipmentRepository{pool: pool, logger: logger}
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

func (r *EquipmentRepository) Create(ctx context.Context, rec *equipment.TestRecord) error {
	r.logger.Debug("EquipmentRepository.Create",
		logging.String("record_id", string(rec.ID)),
		logging.String("ship_id", string(rec.ShipID)),
		logging.String("equipment_name", rec.EquipmentName),
	)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO equipment_test_records (id, ship_id, equipment_name, location,
			issued_date, valid_date, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.ShipID, rec.EquipmentName, rec.Location,
		rec.IssuedDate, rec.ValidDate, rec.CreatedAt, rec.UpdatedAt, rec.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.New(appErrors.ErrCodeEquipmentRecordDuplicate, "equipment test record already exists").
				WithDetail(fmt.Sprintf("record_id=%s", rec.ID))
		}
		r.logger.Error("EquipmentRepository.Create: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to insert equipment test record")
	}
	return nil
}

// Update persists mutations to an existing record using optimistic locking.
// Mutators bump Version in memory before the record reaches the repository,
// so the row must still hold the previous version.
func (r *EquipmentRepository) Update(ctx context.Context, rec *equipment.TestRecord) error {
	r.logger.Debug("EquipmentRepository.Update",
		logging.String("record_id", string(rec.ID)),
		logging.Int("version", rec.Version),
	)

	tag, err := r.pool.Exec(ctx, `
		UPDATE equipment_test_records SET
			equipment_name=$1, location=$2, issued_date=$3, valid_date=$4,
			updated_at=$5, version=$6
		WHERE id=$7 AND version=$8`,
		rec.EquipmentName, rec.Location, rec.IssuedDate, rec.ValidDate,
		rec.UpdatedAt, rec.Version,
		rec.ID, rec.Version-1,
	)
	if err != nil {
		r.logger.Error("EquipmentRepository.Update: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to update equipment test record")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.CodeConflict, "optimistic lock conflict: equipment record version mismatch").
			WithDetail(fmt.Sprintf("record_id=%s expected_version=%d", rec.ID, rec.Version-1))
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, id common.ID) error {
	r.logger.Debug("EquipmentRepository.Delete", logging.String("record_id", string(id)))

	tag, err := r.pool.Exec(ctx, `DELETE FROM equipment_test_records WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("EquipmentRepository.Delete: exec", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to delete equipment test record")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeEquipmentRecordNotFound, "equipment test record not found").
			WithDetail(fmt.Sprintf("record_id=%s", id))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func (r *EquipmentRepository) GetByID(ctx context.Context, id common.ID) (*equipment.TestRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+equipmentColumns+` FROM equipment_test_records WHERE id = $1`, id)
	return r.scanRecord(row)
}

func (r *EquipmentRepository) ListByShip(ctx context.Context, shipID common.ID) ([]*equipment.TestRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+equipmentColumns+` FROM equipment_test_records
		 WHERE ship_id = $1
		 ORDER BY equipment_name ASC`, shipID)
	if err != nil {
		r.logger.Error("EquipmentRepository.ListByShip: query", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to list ship equipment records")
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

func (r *EquipmentRepository) List(ctx context.Context, filter equipment.ListFilter, page common.Pagination) ([]*equipment.TestRecord, int64, error) {
	var (
		conditions []string
		b          argBuilder
	)

	if filter.ShipID != "" {
		conditions = append(conditions, fmt.Sprintf("ship_id = %s", b.add(filter.ShipID)))
	}
	if filter.NameQuery != "" {
		conditions = append(conditions, fmt.Sprintf("equipment_name ILIKE %s", b.add(ilikePattern(filter.NameQuery))))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM equipment_test_records %s", whereClause)
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, b.args...).Scan(&total); err != nil {
		r.logger.Error("EquipmentRepository.List: count", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to count equipment records")
	}

	limit, offset := pageWindow(page)
	dataSQL := fmt.Sprintf(`
		SELECT %s FROM equipment_test_records %s
		ORDER BY valid_date ASC NULLS LAST, equipment_name ASC
		LIMIT %s OFFSET %s`,
		equipmentColumns, whereClause, b.add(limit), b.add(offset))

	rows, err := r.pool.Query(ctx, dataSQL, b.args...)
	if err != nil {
		r.logger.Error("EquipmentRepository.List: query", logging.Err(err))
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to list equipment records")
	}
	defer rows.Close()

	records, err := r.scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *EquipmentRepository) FindExpiring(ctx context.Context, cutoff time.Time) ([]*equipment.TestRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+equipmentColumns+` FROM equipment_test_records
		 WHERE valid_date IS NOT NULL AND valid_date <= $1
		 ORDER BY valid_date ASC`, cutoff)
	if err != nil {
		r.logger.Error("EquipmentRepository.FindExpiring: query", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to find expiring equipment records")
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *EquipmentRepository) scanRecord(row pgx.Row) (*equipment.TestRecord, error) {
	var rec equipment.TestRecord
	err := row.Scan(
		&rec.ID, &rec.ShipID, &rec.EquipmentName, &rec.Location, &rec.IssuedDate,
		&rec.ValidDate, &rec.CreatedAt, &rec.UpdatedAt, &rec.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeEquipmentRecordNotFound, "equipment test record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to scan equipment record row")
	}
	return &rec, nil
}

func (r *EquipmentRepository) scanRecords(rows pgx.Rows) ([]*equipment.TestRecord, error) {
	var records []*equipment.TestRecord
	for rows.Next() {
		var rec equipment.TestRecord
		err := rows.Scan(
			&rec.ID, &rec.ShipID, &rec.EquipmentName, &rec.Location, &rec.IssuedDate,
			&rec.ValidDate, &rec.CreatedAt, &rec.UpdatedAt, &rec.Version,
		)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to scan equipment record row")
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDBQuery, "failed to iterate equipment record rows")
	}
	return records, nil
}
