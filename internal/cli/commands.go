package cli

import (
	"fmt"
	"os"

	"github.com/arthur-debert/liboverride/internal/version"
	"github.com/arthur-debert/liboverride/pkg/config"
	"github.com/arthur-debert/liboverride/pkg/display"
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/scenefile"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newInspectCmd(opts *globalOptions) *cobra.Command {
	var withProperties bool

	cmd := &cobra.Command{
		Use:     "inspect [ID...]",
		Short:   MsgInspectShort,
		Long:    MsgInspectLong,
		Example: MsgInspectExample,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}

			result := &display.Result{Command: "inspect"}
			if len(args) == 0 {
				result.IDs = display.FromMain(s.main, withProperties)
				result.Hierarchies = display.Hierarchies(s.main)
			}
			for _, arg := range args {
				id, err := s.lookup(arg)
				if err != nil {
					return err
				}
				result.IDs = append(result.IDs, display.FromID(id, withProperties))
			}
			result.Message = fmt.Sprintf(MsgIDCountFormat, len(result.IDs))
			return s.finish(cmd, result)
		},
	}
	cmd.Flags().BoolVarP(&withProperties, "properties", "p", false, MsgFlagProperties)
	return cmd
}

func newCreateCmd(opts *globalOptions) *cobra.Command {
	var hierarchyRoot, into string

	cmd := &cobra.Command{
		Use:     "create ID",
		Short:   MsgCreateShort,
		Long:    MsgCreateLong,
		Example: MsgCreateExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			root, err := s.lookup(args[0])
			if err != nil {
				return err
			}
			hroot, err := s.lookupOptional(hierarchyRoot)
			if err != nil {
				return err
			}
			hint, err := s.lookupOptional(into)
			if err != nil {
				return err
			}

			local, err := s.engine.Create(root, hroot, hint)
			if err != nil {
				return err
			}
			return s.finish(cmd, &display.Result{
				Command:     "create",
				Message:     fmt.Sprintf(MsgCreatedFormat, idSpec(local)),
				IDs:         []display.IDView{display.FromID(local, false)},
				Hierarchies: display.Hierarchies(s.main),
			})
		},
	}
	cmd.Flags().StringVar(&hierarchyRoot, "hierarchy-root", "", MsgFlagHierarchyRoot)
	cmd.Flags().StringVar(&into, "into", "", MsgFlagInto)
	return cmd
}

func newResyncCmd(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "resync [ID]",
		Short:   MsgResyncShort,
		Long:    MsgResyncLong,
		Example: MsgResyncExample,
		GroupID: "core",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}

			result := &display.Result{Command: "resync"}
			if all || len(args) == 0 {
				n := s.engine.MainResync()
				result.Message = fmt.Sprintf(MsgMainResyncFormat, n)
			} else {
				root, err := s.lookup(args[0])
				if err != nil {
					return err
				}
				spec := idSpec(root)
				done, err := s.engine.Resync(root, nil)
				if err != nil {
					return err
				}
				result.Message = fmt.Sprintf(MsgResyncSkippedFormat, spec)
				if done {
					result.Message = fmt.Sprintf(MsgResyncedFormat, spec)
				}
			}
			result.Hierarchies = display.Hierarchies(s.main)
			return s.finish(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, MsgFlagAll)
	return cmd
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Short:   MsgDeleteShort,
		Long:    MsgDeleteLong,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			root, err := s.lookup(args[0])
			if err != nil {
				return err
			}
			n, err := s.engine.Delete(root)
			if err != nil {
				return err
			}
			return s.finish(cmd, &display.Result{
				Command: "delete",
				Message: fmt.Sprintf(MsgDeletedFormat, n),
			})
		},
	}
}

func newRemapCmd(opts *globalOptions) *cobra.Command {
	var extraFlags []string

	cmd := &cobra.Command{
		Use:     "remap OLD NEW|none",
		Short:   MsgRemapShort,
		Long:    MsgRemapLong,
		Example: MsgRemapExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			old, err := s.lookup(args[0])
			if err != nil {
				return err
			}
			var newID *types.ID
			target := "none"
			if args[1] != target {
				if newID, err = s.lookup(args[1]); err != nil {
					return err
				}
				if newID.Type != old.Type {
					return errors.Newf(errors.ErrInvalidInput, MsgErrTypeClash, old, newID)
				}
				target = idSpec(newID)
			}

			names := append(append([]string(nil), opts.cfg.Remap.DefaultFlags...), extraFlags...)
			flags, err := remap.ParseFlags(names)
			if err != nil {
				return err
			}

			logger := logging.GetLogger("cli")
			logger.Info().Str("old", old.String()).Str("new", target).Stringer("flags", flags).Msg("remapping")

			r := remap.NewRemapper()
			r.Add(old, newID)
			summary := remap.RemapMultipleWith(s.main, r, remap.Options{
				Flags:         flags,
				CheckRefcount: opts.cfg.Remap.CheckRefcount,
				Reports:       s.reports,
			})
			return s.finish(cmd, &display.Result{
				Command: "remap",
				Message: fmt.Sprintf(MsgRemapFormat, idSpec(old), target),
				Remap:   display.FromSummary(summary),
			})
		},
	}
	cmd.Flags().StringSliceVar(&extraFlags, "flag", nil, MsgFlagRemapFlag)
	return cmd
}

func newDiffCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "diff [ID...]",
		Short:   MsgDiffShort,
		Long:    MsgDiffLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			s.engine.MainHierarchyRootEnsure()

			var ids []*types.ID
			changed := 0
			if len(args) == 0 {
				if changed, err = s.engine.MainOperationsCreate(); err != nil {
					return err
				}
				for _, id := range s.main.All() {
					if id.IsOverrideLibraryReal() && !id.IsLinked() {
						ids = append(ids, id)
					}
				}
			}
			for _, arg := range args {
				id, err := s.lookup(arg)
				if err != nil {
					return err
				}
				if s.engine.OperationsCreate(id) {
					changed++
				}
				ids = append(ids, id)
			}

			result := &display.Result{
				Command: "diff",
				Message: fmt.Sprintf(MsgDiffFormat, changed),
			}
			for _, id := range ids {
				result.IDs = append(result.IDs, display.FromID(id, true))
			}
			return s.finish(cmd, result)
		},
	}
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "export FILE",
		Short:   MsgExportShort,
		Long:    MsgRecordsLong,
		Example: MsgRecordsExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			if err := scenefile.SaveRecords(s.main, args[0]); err != nil {
				return err
			}
			result := &display.Result{Command: "export"}
			for _, id := range s.main.All() {
				if id.IsOverrideLibraryReal() && !id.IsLinked() {
					result.IDs = append(result.IDs, display.FromID(id, false))
				}
			}
			result.Message = fmt.Sprintf(MsgExportedFormat, len(result.IDs), args[0])
			return s.finish(cmd, result)
		},
	}
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "import FILE",
		Short:   MsgImportShort,
		Long:    MsgRecordsLong,
		Example: MsgRecordsExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			n, err := scenefile.LoadRecords(s.main, args[0])
			if err != nil {
				return err
			}
			return s.finish(cmd, &display.Result{
				Command:     "import",
				Message:     fmt.Sprintf(MsgImportedFormat, n),
				Hierarchies: display.Hierarchies(s.main),
			})
		},
	}
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.DefaultsContent())
				return err
			}
			text, err := opts.cfg.TOML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "liboverride version %s\n", version.Version)
			fmt.Fprintf(out, "  commit: %s\n", version.Commit)
			fmt.Fprintf(out, "  built:  %s\n", version.Date)
		},
	}
}

func newManCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:     "man",
		Short:   MsgManShort,
		GroupID: "misc",
		Hidden:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", dir)
			}
			header := &doc.GenManHeader{
				Title:   "LIBOVERRIDE",
				Section: "1",
				Source:  "liboverride " + version.Version,
				Manual:  "liboverride manual",
			}
			if err := doc.GenManTree(cmd.Root(), header, dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgManWritten, dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", MsgFlagManDir)
	return cmd
}
