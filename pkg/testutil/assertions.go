package testutil

import (
	"fmt"
	"sort"
	"testing"

	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// UserCounts snapshots the user count of every ID of m by full name.
func UserCounts(m *maindb.Main) map[string]int {
	out := make(map[string]int)
	for _, id := range m.All() {
		out[key(id)] = id.Users
	}
	return out
}

func key(id *types.ID) string {
	if id.IsLinked() {
		return id.FullName() + "@" + id.Lib.Name
	}
	return id.FullName()
}

// AssertUsersConsistent checks that every user count of m matches the
// edges actually pointing at the ID.
func AssertUsersConsistent(t *testing.T, m *maindb.Main) {
	t.Helper()

	before := UserCounts(m)
	lifecycle.RecomputeUsers(m)
	after := UserCounts(m)

	var diffs []string
	for k, want := range after {
		if got := before[k]; got != want {
			diffs = append(diffs, fmt.Sprintf("%s: %d users, %d edges", k, got, want))
		}
	}
	sort.Strings(diffs)
	for _, d := range diffs {
		t.Errorf("inconsistent user count %s", d)
	}
}

// AssertNoPointerTo checks that no ID of m, embedded ones included,
// points at any of gone.
func AssertNoPointerTo(t *testing.T, m *maindb.Main, gone ...*types.ID) {
	t.Helper()

	set := make(map[*types.ID]bool, len(gone))
	for _, id := range gone {
		set[id] = true
	}
	for _, id := range m.All() {
		idtype.ForeachIDLink(id, 0, func(l idtype.Link) {
			if set[l.Target()] {
				t.Errorf("%s still points at %s through %s", l.Owner, l.Target(), l.Name)
			}
		})
	}
}

// FindOverride returns the local override of ref, nil if none.
func FindOverride(m *maindb.Main, ref *types.ID) *types.ID {
	for _, id := range m.IDs(ref.Type) {
		if id.IsOverrideLibraryReal() && id.Override.Reference == ref {
			return id
		}
	}
	return nil
}
