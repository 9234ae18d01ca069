package certificate

import (
	"context"
	"time"

	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ListFilter narrows List queries. Zero values mean "no constraint".
type ListFilter struct {
	ShipID   common.ID
	Category string

	// NameQuery matches certificate names case-insensitively as a substring.
	NameQuery string
}

// Repository defines the persistence contract for the Certificate bounded
// context.
type Repository interface {
	Create(ctx context.Context, c *Certificate) error
	GetByID(ctx context.Context, id common.ID) (*Certificate, error)
	Update(ctx context.Context, c *Certificate) error
	Delete(ctx context.Context, id common.ID) error

	ListByShip(ctx context.Context, shipID common.ID) ([]*Certificate, error)
	List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*Certificate, int64, error)

	// FindExpiring returns certificates whose valid date is on or before
	// cutoff, soonest first. Certificates without a valid date are not
	// returned.
	FindExpiring(ctx context.Context, cutoff time.Time) ([]*Certificate, error)

	// FindSurveysBetween returns certificates whose next survey date falls
	// inside [from, to], soonest first.
	FindSurveysBetween(ctx context.Context, from, to time.Time) ([]*Certificate, error)
}
