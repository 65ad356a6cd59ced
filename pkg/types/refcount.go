package types

import (
	"github.com/arthur-debert/liboverride/pkg/logging"
)

// UsPlusNoLib adds one user without touching the linked status. A pending
// extra user is consumed instead of incrementing.
func UsPlusNoLib(id *ID) {
	if id == nil {
		return
	}
	if id.Tag&TagExtraUser != 0 && id.Tag&TagExtraUserSet != 0 {
		// a real user now replaces the synthetic one
		id.Tag &^= TagExtraUserSet
		return
	}
	id.Users++
}

// UsPlus adds one user and makes a linked ID directly used.
func UsPlus(id *ID) {
	if id == nil {
		return
	}
	UsPlusNoLib(id)
	LibExtern(id)
}

// UsMin removes one user. Going below the fake user count is a refcount
// leak elsewhere: it is logged and the count is clamped.
func UsMin(id *ID) {
	if id == nil {
		return
	}
	limit := id.FakeUsers()
	if id.Users <= limit {
		logger := logging.GetLogger("refcount")
		logger.Error().
			Str("id", id.String()).
			Int("users", id.Users).
			Int("limit", limit).
			Msg("ID user decrement error")
		id.Users = limit
	} else {
		id.Users--
	}

	if id.Users == limit && id.Tag&TagExtraUser != 0 {
		// the extra user was never counted so far, count it now
		EnsureReal(id)
	}
}

// EnsureReal guarantees at least one user beyond fake users.
func EnsureReal(id *ID) {
	if id == nil {
		return
	}
	limit := id.FakeUsers()
	id.Tag |= TagExtraUser
	if id.Users <= limit {
		if id.Users < limit || id.Tag&TagExtraUserSet != 0 {
			logger := logging.GetLogger("refcount")
			logger.Error().
				Str("id", id.String()).
				Int("users", id.Users).
				Msg("ID user count error")
		}
		id.Users = limit + 1
		id.Tag |= TagExtraUserSet
	}
}

// ClearReal drops the extra user, decrementing only if it was counted.
func ClearReal(id *ID) {
	if id == nil || id.Tag&TagExtraUser == 0 {
		return
	}
	if id.Tag&TagExtraUserSet != 0 {
		id.Users--
	}
	id.Tag &^= TagExtraUser | TagExtraUserSet
}

// FakeUserSet flags the ID as kept and adds its user once.
func FakeUserSet(id *ID) {
	if id == nil || id.Flag&FlagFakeUser != 0 {
		return
	}
	id.Flag |= FlagFakeUser
	UsPlus(id)
}

// FakeUserClear drops the fake user once.
func FakeUserClear(id *ID) {
	if id == nil || id.Flag&FlagFakeUser == 0 {
		return
	}
	id.Flag &^= FlagFakeUser
	UsMin(id)
}

// LibExtern turns an indirectly linked ID into a directly used one.
func LibExtern(id *ID) {
	if !id.IsLinked() {
		return
	}
	if id.Tag&TagIndirect != 0 {
		id.Tag &^= TagIndirect
		id.Flag &^= FlagIndirectWeakLink
		id.Tag |= TagExtern
		id.Lib.Parent = nil
	}
}

// LibIndirectWeakLink flags an indirect ID as weakly linked.
func LibIndirectWeakLink(id *ID) {
	if id.IsLinked() && id.Tag&TagIndirect != 0 {
		id.Flag |= FlagIndirectWeakLink
	}
}

// IsOrphan reports whether nothing keeps the ID alive.
func IsOrphan(id *ID) bool {
	return id.Users <= 0 && id.Flag&FlagFakeUser == 0
}
