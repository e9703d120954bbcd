package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studiobooking/internal/clock"
	"studiobooking/internal/database"
	"studiobooking/internal/domain/catalog"
	"studiobooking/internal/domain/staff"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:booking_test_%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	models := append(catalog.Models(), &staff.Assignment{})
	require.NoError(t, db.AutoMigrate(append(models, Models()...)...))

	require.NoError(t, db.Create(&catalog.Studio{ID: 5, OwnerID: 1, Name: "Light Box"}).Error)
	require.NoError(t, db.Create(&catalog.Studio{ID: 6, OwnerID: 1, Name: "Dark Room"}).Error)
	require.NoError(t, db.Create(&catalog.Room{ID: 1, StudioID: 5, Name: "Daylight Hall", PricePerHour: 100, IsActive: true}).Error)
	require.NoError(t, db.Create(&catalog.Room{ID: 2, StudioID: 6, Name: "Cyclorama", PricePerHour: 150, IsActive: true}).Error)
	require.NoError(t, db.Create(&catalog.Equipment{ID: 7, StudioID: 5, Name: "Profoto B10", DailyRate: 30}).Error)
	require.NoError(t, db.Create(&catalog.Equipment{ID: 8, StudioID: 5, Name: "Backdrop", DailyRate: 15}).Error)
	return db
}

func newStored(roomID, studioID, userID int64, start, end float64, status BookingStatus) *Booking {
	return &Booking{
		ID:            uuid.New(),
		RoomID:        roomID,
		StudioID:      studioID,
		UserID:        userID,
		StartTime:     at(start),
		EndTime:       at(end),
		TotalPrice:    100 * (end - start),
		Status:        status,
		PaymentStatus: PaymentPending,
		Equipment:     []Equipment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	b := newStored(1, 5, 10, 0, 2, StatusPending)
	b.Notes = "bring props"
	b.Equipment = []Equipment{{EquipmentID: 8, Quantity: 1}, {EquipmentID: 7, Quantity: 1}}
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.True(t, got.StartTime.Equal(b.StartTime))
	assert.True(t, got.EndTime.Equal(b.EndTime))
	assert.Equal(t, "bring props", got.Notes)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, []int64{7, 8}, got.EquipmentIDs())

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_FindOverlapping(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	active := newStored(1, 5, 10, 0, 2, StatusConfirmed)
	cancelled := newStored(1, 5, 10, 0, 2, StatusCancelled)
	otherRoom := newStored(2, 6, 10, 0, 2, StatusPending)
	for _, b := range []*Booking{active, cancelled, otherRoom} {
		require.NoError(t, repo.Create(ctx, b))
	}

	got, err := repo.FindOverlapping(ctx, 1, iv(2, 3), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)

	got, err = repo.FindOverlapping(ctx, 1, iv(2.5, 3), uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.FindOverlapping(ctx, 1, iv(1, 3), active.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	b := newStored(1, 5, 10, 0, 2, StatusPending)
	b.Notes = "old"
	b.Equipment = []Equipment{{EquipmentID: 7, Quantity: 1}}
	require.NoError(t, repo.Create(ctx, b))

	b.Notes = ""
	b.Status = StatusCancelled
	b.CancellationReason = "weather"
	cancelledAt := now
	b.CancelledAt = &cancelledAt
	require.NoError(t, repo.Update(ctx, b))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Notes)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, "weather", got.CancellationReason)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, got.CancelledAt.Equal(now))

	missing := newStored(1, 5, 10, 5, 6, StatusPending)
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var links int64
	require.NoError(t, db.Model(&bookingEquipmentModel{}).Where("booking_id = ?", b.ID).Count(&links).Error)
	assert.Zero(t, links)

	assert.ErrorIs(t, repo.Delete(ctx, b.ID), ErrNotFound)
}

func TestRepository_ListByScope(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	late := newStored(1, 5, 10, 6, 7, StatusPending)
	early := newStored(1, 5, 11, 0, 1, StatusPending)
	elsewhere := newStored(2, 6, 10, 3, 4, StatusConfirmed)
	for _, b := range []*Booking{late, early, elsewhere} {
		require.NoError(t, repo.Create(ctx, b))
	}

	ids := func(bs []Booking) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(bs))
		for _, b := range bs {
			out = append(out, b.ID)
		}
		return out
	}

	all, err := repo.List(ctx, Scope{Kind: ScopeAll})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early.ID, elsewhere.ID, late.ID}, ids(all))

	studio, err := repo.List(ctx, Scope{Kind: ScopeStudio, StudioID: 5})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early.ID, late.ID}, ids(studio))

	own, err := repo.List(ctx, Scope{Kind: ScopeOwn, UserID: 10})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{elsewhere.ID, late.ID}, ids(own))

	_, err = repo.List(ctx, Scope{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRepository_WithResourceLock(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	err := repo.WithResourceLock(ctx, 404, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	rollback := errors.New("abort")
	b := newStored(1, 5, 10, 0, 1, StatusPending)
	err = repo.WithResourceLock(ctx, 1, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, b))
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Parallel requests for the same slot must produce exactly one booking.
func TestService_ConcurrentCreate_SingleWinner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(
		NewRepository(db),
		catalog.NewRoomRepository(db),
		catalog.NewEquipmentRepository(db),
		staff.NewRepository(db),
		WithClock(clock.NewFixed(now)),
	)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), Principal{UserID: userID, Role: RoleClient}, CreateInput{
				RoomID: 1, StartTime: at(0), EndTime: at(2),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	list, err := svc.List(context.Background(), Principal{UserID: 1, Role: RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_RescheduleAgainstStore(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(
		NewRepository(db),
		catalog.NewRoomRepository(db),
		catalog.NewEquipmentRepository(db),
		staff.NewRepository(db),
		WithClock(clock.NewFixed(now)),
	)
	ctx := context.Background()
	owner := Principal{UserID: 10, Role: RoleClient}

	first, err := svc.Create(ctx, owner, CreateInput{RoomID: 1, StartTime: at(0), EndTime: at(2), EquipmentIDs: []int64{7}})
	require.NoError(t, err)
	assert.Equal(t, 230.0, first.TotalPrice)

	second, err := svc.Create(ctx, owner, CreateInput{RoomID: 1, StartTime: at(3), EndTime: at(4)})
	require.NoError(t, err)

	// Moving onto itself keeps working; moving onto the neighbour conflicts.
	start, end := at(0.5), at(2.5)
	moved, err := svc.Update(ctx, owner, first.ID, Patch{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, 230.0, moved.TotalPrice)

	start, end = at(2.5), at(3)
	_, err = svc.Update(ctx, owner, first.ID, Patch{StartTime: &start, EndTime: &end})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Cancel(ctx, owner, second.ID, "")
	require.NoError(t, err)

	moved, err = svc.Update(ctx, owner, first.ID, Patch{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, 80.0, moved.TotalPrice)
}

// staleReads serves a fixed earlier copy of a booking for its first read,
// as if a concurrent writer committed right after that read.
type staleReads struct {
	Repository
	stale  *Booking
	served bool
}

func (r *staleReads) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	if !r.served && r.stale != nil && r.stale.ID == id {
		r.served = true
		b := *r.stale
		return &b, nil
	}
	return r.Repository.GetByID(ctx, id)
}

func TestService_UpdateAfterConcurrentCancel(t *testing.T) {
	db := setupTestDB(t)
	newSvc := func(repo Repository) *Service {
		return NewService(repo,
			catalog.NewRoomRepository(db),
			catalog.NewEquipmentRepository(db),
			staff.NewRepository(db),
			WithClock(clock.NewFixed(now)),
		)
	}
	repo := NewRepository(db)
	svc := newSvc(repo)
	ctx := context.Background()
	owner := Principal{UserID: 10, Role: RoleClient}

	first, err := svc.Create(ctx, owner, CreateInput{RoomID: 1, StartTime: at(0), EndTime: at(2)})
	require.NoError(t, err)
	snapshot, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, owner, first.ID, "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, Principal{UserID: 11, Role: RoleClient}, CreateInput{RoomID: 1, StartTime: at(0), EndTime: at(2)})
	require.NoError(t, err)

	confirmed := StatusConfirmed
	_, err = newSvc(&staleReads{Repository: repo, stale: snapshot}).
		Update(ctx, admin, first.ID, Patch{Status: &confirmed})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	notes := "late note"
	updated, err := newSvc(&staleReads{Repository: repo, stale: snapshot}).
		Update(ctx, admin, first.ID, Patch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	all, err := repo.List(ctx, Scope{Kind: ScopeAll})
	require.NoError(t, err)
	active := 0
	for _, b := range all {
		if b.IsActive() {
			active++
		}
	}
	assert.Equal(t, 1, active)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, "late note", got.Notes)
}
