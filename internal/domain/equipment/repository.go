package equipment

import (
	"context"
	"time"

	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ListFilter narrows List queries. Zero values mean "no constraint".
type ListFilter struct {
	ShipID common.ID

	// NameQuery matches equipment names case-insensitively as a substring.
	NameQuery string
}

// Repository defines the persistence contract for the Equipment bounded
// context.
type Repository interface {
	Create(ctx context.Context, r *TestRecord) error
	GetByID(ctx context.Context, id common.ID) (*TestRecord, error)
	Update(ctx context.Context, r *TestRecord) error
	Delete(ctx context.Context, id common.ID) error

	ListByShip(ctx context.Context, shipID common.ID) ([]*TestRecord, error)
	List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*TestRecord, int64, error)

	// FindExpiring returns records whose valid date is on or before cutoff,
	// soonest first.
	FindExpiring(ctx context.Context, cutoff time.Time) ([]*TestRecord, error)
}
