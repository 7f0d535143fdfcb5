package domain

import "errors"

// Storage-level invariant violations. Repositories translate database
// constraint failures into these sentinels; services map them onto the
// user-facing error kinds.
var (
	// ErrDuplicateActiveShift is returned when persisting a shift would give
	// a staff member a second ACTIVE shift (partial unique index violation).
	ErrDuplicateActiveShift = errors.New("staff member already has an active shift")

	// ErrHandoverNotPending is returned when completing a handover that has
	// already been completed (guarded update touched zero rows).
	ErrHandoverNotPending = errors.New("handover is not pending")

	// ErrDuplicatePendingHandover is returned when opening a handover for a
	// shift that already has one pending (partial unique index violation).
	ErrDuplicatePendingHandover = errors.New("shift already has a pending handover")
)
