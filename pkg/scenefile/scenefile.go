// Package scenefile reads and writes YAML scene descriptions: libraries,
// IDs with their pointer edges and custom properties, and override
// records. It is how fixtures and the command line get a Main without a
// real file format.
package scenefile

import (
	"github.com/arthur-debert/liboverride/pkg/override"
)

// Ref names an ID by type code (or type name), name and library.
type Ref = override.IDRef

// File is the root of a scene description.
type File struct {
	Libraries []Library `yaml:"libraries,omitempty"`
	IDs       []ID      `yaml:"ids"`
}

// Library is one linked library. Parent names the library that pulled
// this one in indirectly.
type Library struct {
	Name     string `yaml:"name"`
	Filepath string `yaml:"filepath,omitempty"`
	Parent   string `yaml:"parent,omitempty"`
}

// ID describes one ID. Payload fields that do not apply to Type must be
// left empty.
type ID struct {
	Type     string         `yaml:"type"`
	Name     string         `yaml:"name"`
	Lib      string         `yaml:"lib,omitempty"`
	FakeUser bool           `yaml:"fake_user,omitempty"`
	Missing  bool           `yaml:"missing,omitempty"`
	Props    map[string]any `yaml:"props,omitempty"`

	// objects
	Data               *Ref          `yaml:"data,omitempty"`
	Parent             *Ref          `yaml:"parent,omitempty"`
	Materials          []Ref         `yaml:"materials,omitempty"`
	Modifiers          []Modifier    `yaml:"modifiers,omitempty"`
	Pose               []PoseChannel `yaml:"pose,omitempty"`
	InstanceCollection *Ref          `yaml:"instance_collection,omitempty"`

	// collections, and the master collection of scenes
	Objects  []Ref `yaml:"objects,omitempty"`
	Children []Ref `yaml:"children,omitempty"`

	Override *Override `yaml:"override,omitempty"`
}

// Modifier is one object modifier. Show defaults to true.
type Modifier struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Target *Ref   `yaml:"target,omitempty"`
	Show   *bool  `yaml:"show,omitempty"`
}

// PoseChannel is one bone of an armature object's pose.
type PoseChannel struct {
	Name        string `yaml:"name"`
	CustomShape *Ref   `yaml:"custom_shape,omitempty"`
}

// Override is the override record of a local ID.
type Override struct {
	Reference     Ref        `yaml:"reference"`
	HierarchyRoot *Ref       `yaml:"hierarchy_root,omitempty"`
	SystemDefined bool       `yaml:"system_defined,omitempty"`
	NoHierarchy   bool       `yaml:"no_hierarchy,omitempty"`
	Properties    []Property `yaml:"properties,omitempty"`
}

// Property is one overridden path.
type Property struct {
	Path       string      `yaml:"path"`
	Kind       string      `yaml:"kind,omitempty"`
	Operations []Operation `yaml:"operations"`
}

// Operation is one override operation. Unset indices mean no index.
type Operation struct {
	Kind           string  `yaml:"kind"`
	RefName        *string `yaml:"ref_name,omitempty"`
	LocalName      *string `yaml:"local_name,omitempty"`
	RefIndex       *int    `yaml:"ref_index,omitempty"`
	LocalIndex     *int    `yaml:"local_index,omitempty"`
	MatchReference bool    `yaml:"match_reference,omitempty"`
}
