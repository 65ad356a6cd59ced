package liboverride

import (
	"sync/atomic"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/types"
	"golang.org/x/sync/errgroup"
)

func needsReload(id *types.ID) bool {
	rt := id.Override.Runtime
	return rt != nil && rt.Tag&types.OverrideTagNeedsReload != 0
}

// OperationsCreate refreshes the operations of one override against its
// reference. It reports whether operations were added or values
// restored. System overrides are restored when configured so.
func (e *Engine) OperationsCreate(local *types.ID) bool {
	changed, _ := e.operationsCreate(local, 0)
	return changed
}

func (e *Engine) operationsCreate(local *types.ID, extra override.DiffFlag) (bool, override.DiffResult) {
	if !local.IsOverrideLibraryReal() || local.IsLinked() {
		return false, 0
	}
	ref := local.Override.Reference
	if ref.IsMissing() {
		return false, 0
	}

	flags := override.DiffCreate | extra
	if e.cfg.RestoreSystemOverrides {
		flags |= override.DiffRestore
	}
	_, res := e.bridge.Matches(local, ref, local.Override, flags)

	if res&override.DiffResultRestored != 0 {
		e.main.TagUpdate(local, types.RecalcCopyOnWrite)
	}
	if res&override.DiffResultNeedsRestore != 0 {
		logger := logging.GetLogger("liboverride")
		logger.Warn().Str("id", local.String()).Msg("system override diverged from its reference")
		e.reports.Addf(types.SeverityWarning, "%s diverged from its reference and needs to be restored", local)
	}
	return res&(override.DiffResultCreated|override.DiffResultRestored) != 0, res
}

func (e *Engine) operationsCreateSerial(ids []*types.ID) {
	for _, id := range ids {
		e.OperationsCreate(id)
	}
}

// MainOperationsCreate refreshes every local override of the Main on a
// pool of workers and returns how many changed. Overrides tagged for
// reload are rebuilt first, serially, since that touches the Main.
// Workers leave pointer restores to a serial pass run once they are done.
func (e *Engine) MainOperationsCreate() (int, error) {
	logger := logging.GetLogger("liboverride")
	defer logging.LogOperationStart(logger, "override_operations_create")()

	var todo []*types.ID
	for _, id := range e.main.All() {
		if !id.IsOverrideLibraryReal() || id.IsLinked() {
			continue
		}
		if needsReload(id) {
			if err := e.Update(id); err != nil {
				return 0, err
			}
		}
		todo = append(todo, id)
	}

	var changed atomic.Int64
	deferred := make([]bool, len(todo))
	var g errgroup.Group
	g.SetLimit(max(e.cfg.WorkerCount(), 1))
	for i, id := range todo {
		i, id := i, id
		g.Go(func() error {
			ok, res := e.operationsCreate(id, override.DiffDeferPointers)
			if ok {
				changed.Add(1)
			}
			deferred[i] = res&override.DiffResultDeferred != 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(changed.Load()), err
	}

	restored := 0
	for i, id := range todo {
		if deferred[i] {
			e.operationsCreate(id, 0)
			restored++
		}
	}
	logger.Debug().
		Int("overrides", len(todo)).
		Int64("changed", changed.Load()).
		Int("pointer_restores", restored).
		Msg("operations refreshed")
	return int(changed.Load()), nil
}

// Update rebuilds local from its reference and replays its operations:
// a fresh copy of the reference gets the operations applied, then takes
// the place of local's contents.
func (e *Engine) Update(local *types.ID) error {
	if !local.IsOverrideLibraryReal() {
		return errors.Newf(errors.ErrNotOverridable, "%s is not a library override", local)
	}
	o := local.Override
	if o.Reference.IsMissing() {
		return errors.Newf(errors.ErrMissingReference, "reference of %s is missing", local)
	}

	tmp, err := lifecycle.Copy(nil, o.Reference, lifecycle.CopyNoMain|lifecycle.CopyNoLibOverride)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot copy reference of %s", local)
	}
	if err := e.bridge.Apply(tmp, local, o.Storage, o, 0); err != nil {
		logger := logging.GetLogger("liboverride")
		logger.Warn().Err(err).Str("id", local.String()).Msg("update applied partially")
		e.reports.Addf(types.SeverityWarning, "update of %s: %v", local, err)
	}
	if err := lifecycle.Swap(e.main, local, tmp); err != nil {
		lifecycle.Free(nil, tmp, 0)
		return err
	}
	markEmbedded(local)
	lifecycle.Free(nil, tmp, 0)

	if o.Runtime != nil {
		o.Runtime.Tag &^= types.OverrideTagNeedsReload
	}
	return nil
}

// StoreStart computes the differential operands of local into a storage
// ID registered in storage. It returns nil when local needs none.
func (e *Engine) StoreStart(storage *maindb.Main, local *types.ID) (*types.ID, error) {
	if !local.IsOverrideLibraryReal() {
		return nil, nil
	}
	o := local.Override
	st, err := lifecycle.NewID(storage, local.Type, local.Name, nil)
	if err != nil {
		return nil, err
	}
	stored, err := e.bridge.Store(local, o.Reference, st, o)
	if err != nil || !stored {
		lifecycle.Free(storage, st, 0)
		return nil, err
	}
	o.Storage = st
	return st, nil
}

// StoreEnd detaches the storage of local.
func (e *Engine) StoreEnd(local *types.ID) {
	if local.Override != nil {
		local.Override.Storage = nil
	}
}

// MainStoreStart prepares every local override for writing and returns
// the detached Main holding the storage IDs.
func (e *Engine) MainStoreStart() (*maindb.Main, error) {
	storage := maindb.New()
	for _, id := range e.main.All() {
		if id.IsLinked() {
			continue
		}
		if _, err := e.StoreStart(storage, id); err != nil {
			e.MainStoreEnd(storage)
			return nil, err
		}
	}
	return storage, nil
}

// MainStoreEnd detaches and frees every storage ID.
func (e *Engine) MainStoreEnd(storage *maindb.Main) {
	for _, id := range e.main.All() {
		if id.IsOverrideLibraryReal() {
			e.StoreEnd(id)
		}
	}
	for _, st := range storage.All() {
		lifecycle.Free(storage, st, 0)
	}
}
