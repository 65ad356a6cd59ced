// Package liboverride creates, resyncs and deletes hierarchies of library
// overrides. It drives the hierarchy tagging passes, the lifecycle and
// remap primitives and the diff bridge; it never reads ID contents itself.
//
// An Engine is not safe for concurrent use. Only the per-ID diff jobs of
// MainOperationsCreate run in parallel.
package liboverride

import (
	"github.com/arthur-debert/liboverride/pkg/config"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/propdiff"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Engine runs override operations over one Main.
type Engine struct {
	main    *maindb.Main
	bridge  override.Bridge
	cfg     config.Override
	remap   config.Remap
	reports *types.ReportList
}

// Option configures an Engine
type Option func(*Engine)

// WithBridge replaces the default property differ.
func WithBridge(b override.Bridge) Option {
	return func(e *Engine) { e.bridge = b }
}

// WithReports collects degraded outcomes into r instead of a private list.
func WithReports(r *types.ReportList) Option {
	return func(e *Engine) { e.reports = r }
}

// New returns an engine over m. A nil cfg uses the embedded defaults.
func New(m *maindb.Main, cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		main:    m,
		bridge:  propdiff.New(),
		cfg:     cfg.Override,
		remap:   cfg.Remap,
		reports: types.NewReportList(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Main returns the database the engine works on.
func (e *Engine) Main() *maindb.Main { return e.main }

// Reports returns the report list degraded outcomes go to.
func (e *Engine) Reports() *types.ReportList { return e.reports }

func (e *Engine) remapOptions(flags remap.Flag) remap.Options {
	return remap.Options{Flags: flags, CheckRefcount: e.remap.CheckRefcount, Reports: e.reports}
}

// clearTags drops the tagging bits left on every ID of the Main.
func (e *Engine) clearTags() {
	for _, id := range e.main.All() {
		id.Tag &^= types.TagDoit
	}
}

// taggedIDs returns the IDs carrying TagDoit, in Main order.
func (e *Engine) taggedIDs(keep func(*types.ID) bool) []*types.ID {
	var out []*types.ID
	for _, id := range e.main.All() {
		if id.HasTag(types.TagDoit) && (keep == nil || keep(id)) {
			out = append(out, id)
		}
	}
	return out
}
