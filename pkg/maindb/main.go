// Package maindb is the in-memory ID database. It keeps one ordered list
// per ID type, guarantees name uniqueness per type and library, and
// indexes IDs by session UID.
package maindb

import (
	"sort"
	"sync"

	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/types"
	"golang.org/x/text/cases"
)

// Notifier receives dependency update requests. The engine never waits
// on it.
type Notifier interface {
	TagUpdate(id *types.ID, flags types.RecalcFlag)
	RelationsChanged()
}

// RecalcNotifier accumulates flags on the IDs themselves.
type RecalcNotifier struct {
	mu               sync.Mutex
	relationsChanged int
}

func (n *RecalcNotifier) TagUpdate(id *types.ID, flags types.RecalcFlag) {
	if id == nil {
		return
	}
	n.mu.Lock()
	id.Recalc |= flags
	n.mu.Unlock()
}

func (n *RecalcNotifier) RelationsChanged() {
	n.mu.Lock()
	n.relationsChanged++
	n.mu.Unlock()
}

// RelationsChangedCount is the number of relation rebuild requests.
func (n *RecalcNotifier) RelationsChangedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.relationsChanged
}

// Main holds every registered ID. Structural mutations take a coarse
// lock; ID contents are not protected.
type Main struct {
	mu        sync.Mutex
	lists     map[types.IDType][]*types.ID
	libraries []*types.Library
	bySession map[uint64]*types.ID
	lastUID   uint64
	notifier  Notifier
	fold      cases.Caser
}

// New returns an empty Main with a RecalcNotifier.
func New() *Main {
	return &Main{
		lists:     make(map[types.IDType][]*types.ID),
		bySession: make(map[uint64]*types.ID),
		notifier:  &RecalcNotifier{},
		fold:      cases.Fold(),
	}
}

// SetNotifier replaces the update notifier.
func (m *Main) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// Notifier returns the update notifier.
func (m *Main) Notifier() Notifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifier
}

// TagUpdate forwards to the notifier.
func (m *Main) TagUpdate(id *types.ID, flags types.RecalcFlag) {
	m.Notifier().TagUpdate(id, flags)
}

// NewSessionUID hands out a fresh session UID.
func (m *Main) NewSessionUID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUID++
	return m.lastUID
}

// AddLibrary registers a library, returning the existing one on name clash.
func (m *Main) AddLibrary(name, filepath string) *types.Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lib := range m.libraries {
		if lib.Name == name {
			return lib
		}
	}
	lib := &types.Library{Name: name, Filepath: filepath}
	m.libraries = append(m.libraries, lib)
	return lib
}

// FindLibrary looks a library up by name.
func (m *Main) FindLibrary(name string) *types.Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lib := range m.libraries {
		if lib.Name == name {
			return lib
		}
	}
	return nil
}

// Libraries returns the registered libraries.
func (m *Main) Libraries() []*types.Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.Library(nil), m.libraries...)
}

// IDs returns a snapshot of the list for type t.
func (m *Main) IDs(t types.IDType) []*types.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.ID(nil), m.lists[t]...)
}

// All returns a snapshot of every ID in Main order.
func (m *Main) All() []*types.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.ID
	for _, t := range idtype.Ordered() {
		out = append(out, m.lists[t]...)
	}
	return out
}

// Foreach calls fn on a snapshot of every ID in Main order until fn
// returns false. fn may mutate the Main.
func (m *Main) Foreach(fn func(id *types.ID) bool) {
	for _, id := range m.All() {
		if !fn(id) {
			return
		}
	}
}

// Count returns the number of registered IDs.
func (m *Main) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.lists {
		n += len(l)
	}
	return n
}

// Contains reports whether id is registered.
func (m *Main) Contains(id *types.ID) bool {
	if id == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bySession[id.SessionUID] == id
}

// FindName finds a local ID by exact name.
func (m *Main) FindName(t types.IDType, name string) *types.ID {
	return m.FindLinkedName(t, name, nil)
}

// FindLinkedName finds an ID by exact name within a library scope.
func (m *Main) FindLinkedName(t types.IDType, name string, lib *types.Library) *types.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.lists[t] {
		if id.Lib == lib && id.Name == name {
			return id
		}
	}
	return nil
}

// FindSessionUID finds an ID by session UID. The type must match.
func (m *Main) FindSessionUID(t types.IDType, uid uint64) *types.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.bySession[uid]
	if id == nil || id.Type != t {
		return nil
	}
	return id
}

// Register inserts id into its type list under requestedName, renaming
// local IDs on collision. Linked IDs keep their name. It reports
// whether a rename happened.
func (m *Main) Register(id *types.ID, requestedName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id.SessionUID == 0 || m.bySession[id.SessionUID] != nil {
		m.lastUID++
		id.SessionUID = m.lastUID
	}
	id.Ownership = types.OwnedByRegistry

	renamed := false
	if id.Lib == nil {
		id.Name = m.uniqueNameLocked(id.Type, requestedName, nil, nil)
		renamed = id.Name != requestedName
	} else {
		id.Name = requestedName
	}

	m.lists[id.Type] = append(m.lists[id.Type], id)
	m.sortLocked(id.Type)
	m.bySession[id.SessionUID] = id

	if renamed {
		logger := logging.GetLogger("maindb")
		logger.Trace().Str("requested", requestedName).Str("name", id.Name).Msg("name collision, ID renamed")
	}
	return renamed
}

// Unregister removes id from its list and the session index.
func (m *Main) Unregister(id *types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
	if m.bySession[id.SessionUID] == id {
		delete(m.bySession, id.SessionUID)
	}
	id.Ownership = types.DetachedScratch
}

// Rename gives id a new unique name. It reports whether the final name
// differs from the requested one.
func (m *Main) Rename(id *types.ID, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id.Lib == nil {
		id.Name = m.uniqueNameLocked(id.Type, name, nil, id)
	} else {
		id.Name = name
	}
	m.sortLocked(id.Type)
	return id.Name != name
}

// ReplaceInList puts replacement in old's list slot and session index
// entry, taking old's name. old leaves the Main. replacement must not be
// registered yet.
func (m *Main) ReplaceInList(old, replacement *types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[old.Type]
	for i, id := range list {
		if id == old {
			list[i] = replacement
			break
		}
	}
	delete(m.bySession, old.SessionUID)
	if replacement.SessionUID == 0 || m.bySession[replacement.SessionUID] != nil {
		m.lastUID++
		replacement.SessionUID = m.lastUID
	}
	m.bySession[replacement.SessionUID] = replacement

	replacement.Name, old.Name = old.Name, replacement.Name
	replacement.Ownership = types.OwnedByRegistry
	old.Ownership = types.DetachedScratch
}

func (m *Main) removeLocked(id *types.ID) {
	list := m.lists[id.Type]
	for i, other := range list {
		if other == id {
			m.lists[id.Type] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// sortLocked orders local IDs first, then by library, then by folded name.
func (m *Main) sortLocked(t types.IDType) {
	list := m.lists[t]
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if (a.Lib == nil) != (b.Lib == nil) {
			return a.Lib == nil
		}
		if a.Lib != nil && a.Lib != b.Lib {
			return a.Lib.Name < b.Lib.Name
		}
		fa, fb := m.fold.String(a.Name), m.fold.String(b.Name)
		if fa != fb {
			return fa < fb
		}
		return a.Name < b.Name
	})
}
