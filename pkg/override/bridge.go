package override

import (
	"github.com/arthur-debert/liboverride/pkg/types"
)

// DiffFlag tunes Bridge.Matches
type DiffFlag uint8

const (
	// DiffCreate records operations for every divergence found
	DiffCreate DiffFlag = 1 << iota
	// DiffRestore resets divergent values that may not be overridden
	DiffRestore
	// DiffIgnorePointers compares values only
	DiffIgnorePointers
	// DiffDeferPointers leaves pointer restores undone. Moving a pointer
	// moves a user between shared IDs, so concurrent diffs must not.
	DiffDeferPointers
)

// DiffResult reports what Bridge.Matches did besides comparing.
type DiffResult uint8

const (
	// DiffResultCreated means at least one operation was added
	DiffResultCreated DiffResult = 1 << iota
	// DiffResultRestored means at least one value was reset from the reference
	DiffResultRestored
	// DiffResultNeedsRestore means a value diverged but could be neither
	// recorded nor restored
	DiffResultNeedsRestore
	// DiffResultDeferred means pointer restores were left for a later
	// Matches call without DiffDeferPointers
	DiffResultDeferred
)

// ApplyFlag tunes Bridge.Apply
type ApplyFlag uint8

const (
	// ApplyIgnorePointers only replays value operations
	ApplyIgnorePointers ApplyFlag = 1 << iota
)

// Bridge is the structural diff engine the override core drives. It
// reads and writes ID contents; the core only decides when to call it.
type Bridge interface {
	// Matches compares local to reference under the rules of o. With
	// DiffCreate it extends o to cover every divergence.
	Matches(local, reference *types.ID, o *types.Override, flags DiffFlag) (bool, DiffResult)
	// Apply writes src values into dst wherever an operation of o says
	// so. Differential operations read their operand from storage when
	// given.
	Apply(dst, src, storage *types.ID, o *types.Override, flags ApplyFlag) error
	// Store computes the differential operands that reproduce final from
	// reference into storage. It reports whether anything was stored.
	Store(final, reference, storage *types.ID, o *types.Override) (bool, error)
}
