package scenefile

import (
	"os"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/vmihailenco/msgpack/v5"
)

// recordBundle is the binary form of the override records of a scene,
// each keyed by the local ID holding it.
type recordBundle struct {
	Records []recordEntry `msgpack:"records"`
}

type recordEntry struct {
	Owner  Ref    `msgpack:"owner"`
	Record []byte `msgpack:"record"`
}

// EncodeRecords packs the record of every local override of m.
func EncodeRecords(m *maindb.Main) ([]byte, error) {
	var bundle recordBundle
	for _, id := range m.All() {
		if id.IsLinked() || !id.IsOverrideLibraryReal() {
			continue
		}
		data, err := override.Encode(id.Override)
		if err != nil {
			return nil, err
		}
		bundle.Records = append(bundle.Records, recordEntry{Owner: *override.RefOf(id), Record: data})
	}
	data, err := msgpack.Marshal(&bundle)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEncode, "cannot encode override records")
	}
	return data, nil
}

func resolver(m *maindb.Main) override.Resolver {
	return func(ref override.IDRef) *types.ID {
		var lib *types.Library
		if ref.Lib != "" {
			if lib = m.FindLibrary(ref.Lib); lib == nil {
				return nil
			}
		}
		return m.FindLinkedName(ref.Type, ref.Name, lib)
	}
}

// ApplyRecords gives the local IDs named in data the records packed with
// them, replacing what they held, and returns how many it set. Nothing
// changes when any record fails to resolve.
func ApplyRecords(m *maindb.Main, data []byte) (int, error) {
	var bundle recordBundle
	if err := msgpack.Unmarshal(data, &bundle); err != nil {
		return 0, errors.Wrap(err, errors.ErrDecode, "cannot decode override records")
	}

	resolve := resolver(m)
	type pending struct {
		id *types.ID
		o  *types.Override
	}
	todo := make([]pending, 0, len(bundle.Records))
	for _, entry := range bundle.Records {
		id := resolve(entry.Owner)
		if id == nil || id.IsLinked() {
			return 0, errors.Newf(errors.ErrNotFound, "no local %s%s to hold an override record",
				entry.Owner.Type, entry.Owner.Name)
		}
		o, err := override.Decode(entry.Record, resolve)
		if err != nil {
			if oe, ok := err.(*errors.OverrideError); ok {
				return 0, oe.WithDetail("owner", id.String())
			}
			return 0, err
		}
		if o.Reference == nil || o.Reference.Type != id.Type || !idtype.IsOverridable(o.Reference) {
			return 0, errors.Newf(errors.ErrNotOverridable, "record of %s has no usable reference", id)
		}
		todo = append(todo, pending{id: id, o: o})
	}

	for _, p := range todo {
		p.id.Override = p.o
	}
	Settle(m)

	logger := logging.GetLogger("scenefile")
	logger.Debug().Int("records", len(todo)).Msg("override records applied")
	return len(todo), nil
}

// SaveRecords writes the override records of m to path.
func SaveRecords(m *maindb.Main, path string) error {
	data, err := EncodeRecords(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrFixtureLoad, "cannot write records file %s", path)
	}
	return nil
}

// LoadRecords applies the records file at path to m.
func LoadRecords(m *maindb.Main, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFixtureLoad, "cannot read records file %s", path)
	}
	return ApplyRecords(m, data)
}
