package propdiff

import (
	"fmt"
	"strconv"
	"strings"
)

// Property paths understood by the differ. Pointer slots use the slot
// names of the edge walker, e.g. `parent` or `modifiers["Armature"].object`.
const (
	// ModifiersPath is the ordered modifier stack of an object
	ModifiersPath = "modifiers"
	// ObjectsPath is the object list of a collection
	ObjectsPath = "objects"

	showSuffix = `.show_viewport`
)

// CustomPath is the path of a custom property.
func CustomPath(key string) string {
	return "[" + strconv.Quote(key) + "]"
}

// ParseCustomPath returns the key of a custom property path.
func ParseCustomPath(path string) (string, bool) {
	if !strings.HasPrefix(path, `["`) || !strings.HasSuffix(path, `"]`) {
		return "", false
	}
	key, err := strconv.Unquote(path[1 : len(path)-1])
	return key, err == nil
}

// ModifierShowPath is the viewport visibility of one modifier.
func ModifierShowPath(name string) string {
	return fmt.Sprintf("modifiers[%q]%s", name, showSuffix)
}

func parseModifierShowPath(path string) (string, bool) {
	if !strings.HasPrefix(path, `modifiers["`) || !strings.HasSuffix(path, `"]`+showSuffix) {
		return "", false
	}
	name, err := strconv.Unquote(strings.TrimSuffix(strings.TrimPrefix(path, "modifiers["), "]"+showSuffix))
	return name, err == nil
}
