package scenefile

import (
	"bytes"
	"os"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/types"
	"gopkg.in/yaml.v3"
)

// FromMain describes m. Embedded IDs are folded into their owner and
// runtime state (tags, caches, storage) is left out.
func FromMain(m *maindb.Main) *File {
	f := &File{}
	for _, lib := range m.Libraries() {
		l := Library{Name: lib.Name, Filepath: lib.Filepath}
		if lib.Parent != nil {
			l.Parent = lib.Parent.Name
		}
		f.Libraries = append(f.Libraries, l)
	}
	for _, id := range m.All() {
		if id.IsEmbedded() {
			continue
		}
		f.IDs = append(f.IDs, describe(id))
	}
	return f
}

// Dump marshals m as YAML.
func Dump(m *maindb.Main) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromMain(m)); err != nil {
		return nil, errors.Wrap(err, errors.ErrEncode, "cannot encode scene")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrEncode, "cannot encode scene")
	}
	return buf.Bytes(), nil
}

// Save writes m to path.
func Save(m *maindb.Main, path string) error {
	data, err := Dump(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrFixtureLoad, "cannot write scene file %s", path)
	}
	return nil
}

func refs(ids []*types.ID) []Ref {
	var out []Ref
	for _, id := range ids {
		if ref := override.RefOf(id); ref != nil {
			out = append(out, *ref)
		}
	}
	return out
}

func describe(id *types.ID) ID {
	d := ID{
		Type:     string(id.Type),
		Name:     id.Name,
		FakeUser: id.Flag&types.FlagFakeUser != 0,
		Missing:  id.IsMissing(),
	}
	if id.Lib != nil {
		d.Lib = id.Lib.Name
	}
	if len(id.Props) > 0 {
		d.Props = make(map[string]any, len(id.Props))
		for k, v := range id.Props {
			d.Props[k] = v
		}
	}

	switch data := id.Data.(type) {
	case *idtype.Object:
		d.Data = override.RefOf(data.Data)
		d.Parent = override.RefOf(data.Parent)
		d.InstanceCollection = override.RefOf(data.InstanceCollection)
		d.Materials = refs(data.Materials)
		for _, md := range data.Modifiers {
			m := Modifier{Name: md.Name, Kind: md.Kind, Target: override.RefOf(md.Target)}
			if !md.Show {
				hidden := false
				m.Show = &hidden
			}
			d.Modifiers = append(d.Modifiers, m)
		}
		if data.Pose != nil {
			for _, ch := range data.Pose.Channels {
				d.Pose = append(d.Pose, PoseChannel{Name: ch.Name, CustomShape: override.RefOf(ch.CustomShape)})
			}
		}
	case *idtype.Collection:
		d.Objects = refs(data.Objects)
		d.Children = refs(data.Children)
	case *idtype.Scene:
		if data.MasterCollection != nil {
			if mc, ok := data.MasterCollection.Data.(*idtype.Collection); ok {
				d.Objects = refs(mc.Objects)
				d.Children = refs(mc.Children)
			}
		}
	case *idtype.Mesh:
		d.Materials = refs(data.Materials)
	case *idtype.Curve:
		d.Materials = refs(data.Materials)
	}

	if o := id.Override; o != nil && o.Reference != nil {
		d.Override = describeOverride(o)
	}
	return d
}

func describeOverride(o *types.Override) *Override {
	out := &Override{
		Reference:     *override.RefOf(o.Reference),
		HierarchyRoot: override.RefOf(o.HierarchyRoot),
		SystemDefined: o.Flag&types.OverrideSystemDefined != 0,
		NoHierarchy:   o.Flag&types.OverrideNoHierarchy != 0,
	}
	for _, prop := range o.Properties {
		p := Property{Path: prop.Path, Kind: prop.Kind.String()}
		for _, op := range prop.Operations {
			od := Operation{
				Kind:           op.Kind.String(),
				RefName:        op.SubitemRefName,
				LocalName:      op.SubitemLocalName,
				MatchReference: op.Flag&types.OpMatchReference != 0,
			}
			if op.SubitemRefIndex != types.NoIndex {
				i := op.SubitemRefIndex
				od.RefIndex = &i
			}
			if op.SubitemLocalIndex != types.NoIndex {
				i := op.SubitemLocalIndex
				od.LocalIndex = &i
			}
			p.Operations = append(p.Operations, od)
		}
		out.Properties = append(out.Properties, p)
	}
	return out
}
