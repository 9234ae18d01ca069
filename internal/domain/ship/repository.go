package ship

import (
	"context"

	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// ListFilter narrows List queries. Zero values mean "no constraint".
type ListFilter struct {
	Status   common.Status
	Flag     string
	ShipType string

	// NameQuery matches ship names case-insensitively as a substring.
	NameQuery string
}

// Repository defines the persistence contract for the Ship bounded context.
type Repository interface {
	Create(ctx context.Context, s *Ship) error
	GetByID(ctx context.Context, id common.ID) (*Ship, error)
	GetByIMO(ctx context.Context, imoNumber string) (*Ship, error)
	Update(ctx context.Context, s *Ship) error
	Delete(ctx context.Context, id common.ID) error

	List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*Ship, int64, error)
	ListOperational(ctx context.Context) ([]*Ship, error)
	Count(ctx context.Context) (int64, error)
}
