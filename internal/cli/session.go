package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/liboverride/pkg/config"
	"github.com/arthur-debert/liboverride/pkg/display"
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/liboverride"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/paths"
	"github.com/arthur-debert/liboverride/pkg/scenefile"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags and what PersistentPreRunE
// derives from them.
type globalOptions struct {
	verbosity  int
	configPath string
	format     string
	scene      string
	output     string
	write      bool

	cfg          *config.Config
	outputFormat display.Format
}

// session is one command run against a loaded scene.
type session struct {
	opts      *globalOptions
	scenePath string
	main      *maindb.Main
	engine    *liboverride.Engine
	reports   *types.ReportList
}

func openSession(opts *globalOptions) (*session, error) {
	if opts.scene == "" {
		return nil, errors.New(errors.ErrInvalidInput, MsgErrNoScene)
	}
	path := paths.ResolveFixture(opts.scene)
	m, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}
	reports := types.NewReportList()

	logger := logging.GetLogger("cli")
	logger.Debug().Str("scene", path).Int("ids", m.Count()).Msg("scene loaded")

	return &session{
		opts:      opts,
		scenePath: path,
		main:      m,
		engine:    liboverride.New(m, opts.cfg, liboverride.WithReports(reports)),
		reports:   reports,
	}, nil
}

// lookup resolves an ID argument against the session scene.
func (s *session) lookup(spec string) (*types.ID, error) {
	return parseIDSpec(s.main, spec)
}

// lookupOptional is lookup for flags that may be empty.
func (s *session) lookupOptional(spec string) (*types.ID, error) {
	if spec == "" {
		return nil, nil
	}
	return s.lookup(spec)
}

// finish renders result with the collected reports and saves the scene
// when asked to.
func (s *session) finish(cmd *cobra.Command, result *display.Result) error {
	target := s.opts.output
	if s.opts.write {
		target = s.scenePath
	}
	if target != "" {
		if err := scenefile.Save(s.main, target); err != nil {
			return err
		}
		s.reports.Addf(types.SeverityInfo, MsgSavedFormat, target)
	}
	result.Reports = display.FromReports(s.reports)
	return render(cmd, s.opts, result)
}

func render(cmd *cobra.Command, opts *globalOptions, result *display.Result) error {
	out := cmd.OutOrStdout()
	return display.New(resolveFormat(opts.outputFormat, out), out).Render(result)
}

// resolveFormat settles FormatAuto. Anything but a file is treated as a
// pipe.
func resolveFormat(f display.Format, out io.Writer) display.Format {
	if f != display.FormatAuto {
		return f
	}
	if file, ok := out.(*os.File); ok {
		return display.Resolve(f, file)
	}
	return display.FormatText
}

// parseIDSpec finds the ID named TYPE:NAME[@LIBRARY] in m.
func parseIDSpec(m *maindb.Main, spec string) (*types.ID, error) {
	typeName, rest, ok := strings.Cut(spec, ":")
	if !ok || typeName == "" || rest == "" {
		return nil, errors.Newf(errors.ErrInvalidInput, MsgErrIDSpec, spec)
	}
	idType, err := scenefile.ParseType(typeName)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, MsgErrIDSpec, spec)
	}

	name, libName := rest, ""
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		name, libName = rest[:i], rest[i+1:]
	}
	var lib *types.Library
	if libName != "" {
		if lib = m.FindLibrary(libName); lib == nil {
			return nil, errors.Newf(errors.ErrNotFound, MsgErrNoLibrary, libName)
		}
	}

	id := m.FindLinkedName(idType, name, lib)
	if id == nil {
		return nil, errors.Newf(errors.ErrNotFound, MsgErrNoID, spec).
			WithDetail("type", string(idType)).
			WithDetail("library", lib.String())
	}
	return id, nil
}

// idSpec is the inverse of parseIDSpec.
func idSpec(id *types.ID) string {
	spec := fmt.Sprintf("%s:%s", id.Type, id.Name)
	if id.Lib != nil {
		spec += "@" + id.Lib.Name
	}
	return spec
}
