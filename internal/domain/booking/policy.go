package booking

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Role string

const (
	RoleClient  Role = "client"
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Role   Role
}

func (p Principal) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: missing user id", ErrUnauthenticated)
	}
	if _, ok := roleScopes[p.Role]; !ok {
		return fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, p.Role)
	}
	return nil
}

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionCancel Action = "cancel"
	ActionDelete Action = "delete"
)

type ScopeKind int

const (
	ScopeAll ScopeKind = iota + 1
	ScopeStudio
	ScopeOwn
)

// roleScopes is the single source for both per-booking decisions and list
// filtering.
var roleScopes = map[Role]ScopeKind{
	RoleAdmin:   ScopeAll,
	RoleManager: ScopeAll,
	RoleStaff:   ScopeStudio,
	RoleClient:  ScopeOwn,
}

// Scope is a principal's resolved visibility over bookings.
type Scope struct {
	Kind     ScopeKind
	StudioID int64
	UserID   int64
}

func (s Scope) Allows(b *Booking) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeStudio:
		return b.StudioID == s.StudioID
	case ScopeOwn:
		return b.UserID == s.UserID
	}
	return false
}

// StaffAssignments resolves the studio a staff member works at.
// Absence is reported as gorm.ErrRecordNotFound.
type StaffAssignments interface {
	GetAssignedStudio(ctx context.Context, userID int64) (int64, error)
}

type Policy struct {
	staff StaffAssignments
}

func NewPolicy(staff StaffAssignments) *Policy {
	return &Policy{staff: staff}
}

// Scope resolves the principal's visibility. A staff member with no
// assignment yields ErrStaffNotAssigned.
func (p *Policy) Scope(ctx context.Context, principal Principal) (Scope, error) {
	if err := principal.Validate(); err != nil {
		return Scope{}, err
	}

	kind := roleScopes[principal.Role]
	scope := Scope{Kind: kind, UserID: principal.UserID}
	if kind != ScopeStudio {
		return scope, nil
	}

	studioID, err := p.staff.GetAssignedStudio(ctx, principal.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Scope{}, ErrStaffNotAssigned
	}
	if err != nil {
		return Scope{}, fmt.Errorf("lookup staff assignment: %w", err)
	}
	scope.StudioID = studioID
	return scope, nil
}

// Authorize decides whether principal may perform action on b. Create only
// needs an authenticated principal; b may be nil for it.
func (p *Policy) Authorize(ctx context.Context, principal Principal, action Action, b *Booking) error {
	if err := principal.Validate(); err != nil {
		return err
	}
	if action == ActionCreate {
		return nil
	}

	scope, err := p.ActionScope(ctx, principal, action)
	if err != nil {
		return err
	}
	return scope.Permit(action, b)
}

// ActionScope resolves the scope that action on an existing booking is
// checked against. Unassigned staff are forbidden rather than unscoped.
func (p *Policy) ActionScope(ctx context.Context, principal Principal, action Action) (Scope, error) {
	scope, err := p.Scope(ctx, principal)
	if errors.Is(err, ErrStaffNotAssigned) {
		return Scope{}, fmt.Errorf("%w: %s booking: %v", ErrForbidden, action, err)
	}
	return scope, err
}

// Permit checks action on b against an already resolved scope.
func (s Scope) Permit(action Action, b *Booking) error {
	if b == nil || !s.Allows(b) {
		return fmt.Errorf("%w: cannot %s this booking", ErrForbidden, action)
	}
	return nil
}
