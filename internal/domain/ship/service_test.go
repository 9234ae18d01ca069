package ship

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

type mockShipRepository struct {
	mock.Mock
}

func (m *mockShipRepository) Create(ctx context.Context, s *Ship) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockShipRepository) GetByID(ctx context.Context, id common.ID) (*Ship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ship), args.Error(1)
}

func (m *mockShipRepository) GetByIMO(ctx context.Context, imoNumber string) (*Ship, error) {
	args := m.Called(ctx, imoNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ship), args.Error(1)
}

func (m *mockShipRepository) Update(ctx context.Context, s *Ship) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockShipRepository) Delete(ctx context.Context, id common.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockShipRepository) List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*Ship, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]*Ship), args.Get(1).(int64), args.Error(2)
}

func (m *mockShipRepository) ListOperational(ctx context.Context) ([]*Ship, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*Ship), args.Error(1)
}

func (m *mockShipRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, logging.NewNopLogger())
}

func TestRegisterShip_Success(t *testing.T) {
	repo := new(mockShipRepository)
	repo.On("GetByIMO", mock.Anything, "9074729").
		Return(nil, errors.New(errors.ErrCodeShipNotFound, "ship not found"))
	repo.On("Create", mock.Anything, mock.AnythingOfType("*ship.Ship")).Return(nil)

	s := newTestService(repo)
	sh, err := s.RegisterShip(context.Background(), "MV Northern Light", "IMO 9074729", "NO", "bulk_carrier")

	require.NoError(t, err)
	assert.Equal(t, "9074729", sh.IMONumber)
	repo.AssertExpectations(t)
}

func TestRegisterShip_DuplicateIMO(t *testing.T) {
	existing, _ := NewShip("MV Northern Light", "9074729", "NO", "")

	repo := new(mockShipRepository)
	repo.On("GetByIMO", mock.Anything, "9074729").Return(existing, nil)

	s := newTestService(repo)
	_, err := s.RegisterShip(context.Background(), "Imposter", "9074729", "PA", "")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeShipAlreadyExists))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterShip_InvalidIMO(t *testing.T) {
	repo := new(mockShipRepository)

	s := newTestService(repo)
	_, err := s.RegisterShip(context.Background(), "MV Northern Light", "1234568", "NO", "")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeShipIMOInvalid))
	repo.AssertNotCalled(t, "GetByIMO", mock.Anything, mock.Anything)
}

func TestGetShipByIMO_NormalizesInput(t *testing.T) {
	existing, _ := NewShip("MV Northern Light", "9074729", "NO", "")

	repo := new(mockShipRepository)
	repo.On("GetByIMO", mock.Anything, "9074729").Return(existing, nil)

	s := newTestService(repo)
	sh, err := s.GetShipByIMO(context.Background(), "IMO 9074729")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, sh.ID)
}

func TestSetAnchors_PersistsShip(t *testing.T) {
	existing, _ := NewShip("MV Northern Light", "9074729", "NO", "")

	repo := new(mockShipRepository)
	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)

	s := newTestService(repo)
	cycleTo := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
	sh, err := s.SetAnchors(context.Background(), existing.ID, 15, 5, &cycleTo)

	require.NoError(t, err)
	assert.True(t, sh.HasCompleteAnchors())
	repo.AssertExpectations(t)
}

func TestSetAnchors_InvalidDayNotPersisted(t *testing.T) {
	existing, _ := NewShip("MV Northern Light", "9074729", "NO", "")

	repo := new(mockShipRepository)
	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	s := newTestService(repo)
	_, err := s.SetAnchors(context.Background(), existing.ID, 31, 2, nil)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeShipAnchorsIncomplete))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListShips_RejectsBadPagination(t *testing.T) {
	repo := new(mockShipRepository)

	s := newTestService(repo)
	_, _, err := s.ListShips(context.Background(), ListFilter{}, common.Pagination{Page: 0, PageSize: 50})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	existing, _ := NewShip("MV Northern Light", "9074729", "NO", "")
	require.NoError(t, existing.UpdateStatus(common.StatusArchived))

	repo := new(mockShipRepository)
	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	s := newTestService(repo)
	_, err := s.UpdateStatus(context.Background(), existing.ID, common.StatusActive)

	require.Error(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
