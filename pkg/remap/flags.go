package remap

import (
	"sort"
	"strings"

	"github.com/arthur-debert/liboverride/pkg/errors"
)

// Flag is the remap policy
type Flag uint32

const (
	// SkipIndirectUsage leaves slots of linked owners alone
	SkipIndirectUsage Flag = 1 << iota
	// SkipNeverNullUsage leaves never-null slots alone when unmapping
	SkipNeverNullUsage
	// SkipOverrideLibrary leaves override reference slots alone
	SkipOverrideLibrary
	// ForceNeverNullUsage unmaps never-null slots anyway
	ForceNeverNullUsage
	// ForceObDataInEditMode remaps data of objects in edit mode
	ForceObDataInEditMode
	// ForceUserRefcount counts users on detached IDs too
	ForceUserRefcount
	// SkipUserRefcount never touches user counts
	SkipUserRefcount
	// SkipUserClear keeps fake and extra users on old IDs
	SkipUserClear
	// SkipUpdateTagging does not notify dependency updates
	SkipUpdateTagging
)

var flagNames = map[string]Flag{
	"skip_indirect_usage":      SkipIndirectUsage,
	"skip_never_null_usage":    SkipNeverNullUsage,
	"skip_override_library":    SkipOverrideLibrary,
	"force_never_null_usage":   ForceNeverNullUsage,
	"force_obdata_in_editmode": ForceObDataInEditMode,
	"force_user_refcount":      ForceUserRefcount,
	"skip_user_refcount":       SkipUserRefcount,
	"skip_user_clear":          SkipUserClear,
	"skip_update_tagging":      SkipUpdateTagging,
}

// ParseFlags combines flag names as found in config files and on the
// command line.
func ParseFlags(names []string) (Flag, error) {
	var f Flag
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		bit, ok := flagNames[name]
		if !ok {
			return 0, errors.Newf(errors.ErrInvalidInput, "unknown remap flag %q", name).
				WithDetail("known", FlagNames())
		}
		f |= bit
	}
	return f, nil
}

// FlagNames lists every known flag name, sorted.
func FlagNames() []string {
	out := make([]string, 0, len(flagNames))
	for n := range flagNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (f Flag) String() string {
	var parts []string
	for _, n := range FlagNames() {
		if f&flagNames[n] != 0 {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
