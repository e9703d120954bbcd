package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("booking conflicts with an existing booking")
	ErrForbidden               = errors.New("forbidden")
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrStaffNotAssigned        = errors.New("staff member is not assigned to a studio")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
