package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort    = "Create and maintain library overrides in scene files"
	MsgInspectShort = "List IDs, their state and override hierarchies"
	MsgCreateShort  = "Override the linked hierarchy of an ID"
	MsgResyncShort  = "Rebuild override hierarchies from their references"
	MsgDeleteShort  = "Turn an override hierarchy back into linked data"
	MsgRemapShort   = "Replace every usage of an ID by another"
	MsgDiffShort    = "Record override operations against references"
	MsgExportShort  = "Write the override records of a scene to a file"
	MsgImportShort  = "Give local IDs the override records of a file"
	MsgConfigShort  = "Print the effective configuration"
	MsgVersionShort = "Print version information"
	MsgManShort     = "Generate man pages"

	// Result messages
	MsgIDCountFormat       = "%d IDs"
	MsgCreatedFormat       = "created %s"
	MsgResyncedFormat      = "resynced %s"
	MsgResyncSkippedFormat = "%s needs no resync"
	MsgMainResyncFormat    = "resynced %d hierarchies"
	MsgDeletedFormat       = "deleted %d overrides"
	MsgRemapFormat         = "remapped %s to %s"
	MsgDiffFormat          = "%d overrides changed"
	MsgSavedFormat         = "saved %s"
	MsgExportedFormat      = "exported %d override records to %s"
	MsgImportedFormat      = "imported %d override records"
	MsgManWritten          = "Man pages written to %s\n"

	// Error messages
	MsgErrNoScene     = "no scene file given, use --scene"
	MsgErrIDSpec      = "invalid ID %q, expected TYPE:NAME[@LIBRARY]"
	MsgErrNoLibrary   = "no library named %q"
	MsgErrNoID        = "no ID %s"
	MsgErrTypeClash   = "cannot remap %s to %s, types differ"
	MsgErrNoTopics    = "failed to load help topics"
	MsgErrWriteTarget = "--write and --output are exclusive"

	// Flag descriptions
	MsgFlagVerbose       = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig        = "Config file (default is $XDG_CONFIG_HOME/liboverride/config.toml)"
	MsgFlagFormat        = "Output format: auto, term, text or json"
	MsgFlagScene         = "Scene file to work on, a path or a fixture name"
	MsgFlagOutput        = "Write the resulting scene to this file"
	MsgFlagWrite         = "Write the resulting scene back to the scene file"
	MsgFlagProperties    = "Show override properties and operations"
	MsgFlagHierarchyRoot = "Linked ID the hierarchy is discovered from"
	MsgFlagInto          = "Scene or collection receiving the overrides"
	MsgFlagAll           = "Resync every hierarchy that needs it"
	MsgFlagRemapFlag     = "Remap flag to add to the configured ones (repeatable)"
	MsgFlagDefaults      = "Print the built-in defaults instead"
	MsgFlagManDir        = "Directory the man pages are written to"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/inspect-long.txt
	msgInspectLongRaw string
	MsgInspectLong    = strings.TrimSpace(msgInspectLongRaw)

	//go:embed msgs/inspect-example.txt
	msgInspectExampleRaw string
	MsgInspectExample    = strings.TrimRight(msgInspectExampleRaw, "\n")

	//go:embed msgs/create-long.txt
	msgCreateLongRaw string
	MsgCreateLong    = strings.TrimSpace(msgCreateLongRaw)

	//go:embed msgs/create-example.txt
	msgCreateExampleRaw string
	MsgCreateExample    = strings.TrimRight(msgCreateExampleRaw, "\n")

	//go:embed msgs/resync-long.txt
	msgResyncLongRaw string
	MsgResyncLong    = strings.TrimSpace(msgResyncLongRaw)

	//go:embed msgs/resync-example.txt
	msgResyncExampleRaw string
	MsgResyncExample    = strings.TrimRight(msgResyncExampleRaw, "\n")

	//go:embed msgs/delete-long.txt
	msgDeleteLongRaw string
	MsgDeleteLong    = strings.TrimSpace(msgDeleteLongRaw)

	//go:embed msgs/remap-long.txt
	msgRemapLongRaw string
	MsgRemapLong    = strings.TrimSpace(msgRemapLongRaw)

	//go:embed msgs/remap-example.txt
	msgRemapExampleRaw string
	MsgRemapExample    = strings.TrimRight(msgRemapExampleRaw, "\n")

	//go:embed msgs/diff-long.txt
	msgDiffLongRaw string
	MsgDiffLong    = strings.TrimSpace(msgDiffLongRaw)

	//go:embed msgs/records-long.txt
	msgRecordsLongRaw string
	MsgRecordsLong    = strings.TrimSpace(msgRecordsLongRaw)

	//go:embed msgs/records-example.txt
	msgRecordsExampleRaw string
	MsgRecordsExample    = strings.TrimRight(msgRecordsExampleRaw, "\n")
)
