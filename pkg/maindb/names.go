package maindb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arthur-debert/liboverride/pkg/types"
)

// MaxNameLength is the longest name an ID may carry, suffix included.
const MaxNameLength = 63

const suffixDigits = 3

// SplitName splits "Name.012" into ("Name", 12). Names without a numeric
// suffix return number 0.
func SplitName(name string) (string, int) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return name, 0
	}
	digits := name[dot+1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return name, 0
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return name, 0
	}
	return name[:dot], n
}

func joinName(base string, n int) string {
	if n == 0 {
		return base
	}
	suffix := fmt.Sprintf(".%0*d", suffixDigits, n)
	if len(base)+len(suffix) > MaxNameLength {
		base = truncate(base, MaxNameLength-len(suffix))
	}
	return base + suffix
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// uniqueNameLocked returns name if free within (t, lib), else the lowest
// free numbered variant. self is ignored when checking collisions.
func (m *Main) uniqueNameLocked(t types.IDType, name string, lib *types.Library, self *types.ID) string {
	if name == "" {
		name = "Untitled"
	}
	name = truncate(name, MaxNameLength)

	used := make(map[string]bool)
	for _, id := range m.lists[t] {
		if id != self && id.Lib == lib {
			used[id.Name] = true
		}
	}
	if !used[name] {
		return name
	}

	base, _ := SplitName(name)
	for n := 1; ; n++ {
		candidate := joinName(base, n)
		if !used[candidate] {
			return candidate
		}
	}
}
