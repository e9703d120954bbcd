package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"studiobooking/internal/domain/catalog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindOverlapping(ctx context.Context, roomID int64, iv Interval, exclude uuid.UUID) ([]Booking, error) {
	args := m.Called(ctx, roomID, iv, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

// WithResourceLock records the call and runs fn unless an error is configured.
func (m *MockRepository) WithResourceLock(ctx context.Context, roomID int64, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, roomID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

func (m *MockRepository) Create(ctx context.Context, b *Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, b *Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, scope Scope) ([]Booking, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

type MockRoomDirectory struct {
	mock.Mock
}

func (m *MockRoomDirectory) GetByID(ctx context.Context, roomID int64) (*catalog.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Room), args.Error(1)
}

type MockEquipmentDirectory struct {
	mock.Mock
}

func (m *MockEquipmentDirectory) GetByIDs(ctx context.Context, ids []int64) ([]catalog.Equipment, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Equipment), args.Error(1)
}

type MockStaffAssignments struct {
	mock.Mock
}

func (m *MockStaffAssignments) GetAssignedStudio(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
