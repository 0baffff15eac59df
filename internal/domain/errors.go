package domain

import (
	"errors"
	"fmt"
)

// Domain-rule rejections. These are expected outcomes of normal
// multi-user traffic and are returned to the caller as-is.
var (
	ErrInvalidSlot            = errors.New("time is not one of the bookable slots")
	ErrSlotFull               = errors.New("slot has no remaining capacity")
	ErrAlreadyBooked          = errors.New("user already registered for a dose")
	ErrAlreadyVaccinated      = errors.New("both doses already completed")
	ErrNotBooked              = errors.New("no registered slot for user")
	ErrRescheduleWindowClosed = errors.New("slot can be updated only while more than 24 hours remain")
	ErrForbidden              = errors.New("admin access required")
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this phone already exists")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrValidation         = errors.New("validation error")
)

// ErrStoreUnavailable marks infrastructure failures from the record
// store. Callers may retry these; domain rejections above they may not.
var ErrStoreUnavailable = errors.New("store unavailable")

// StoreError tags err as a store failure while keeping the cause.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
