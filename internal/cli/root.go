// Package cli is the liboverride command line: cobra commands that load a
// scene file, run one override operation on it and print the result.
package cli

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/arthur-debert/liboverride/internal/version"
	"github.com/arthur-debert/liboverride/pkg/cobrax/topics"
	"github.com/arthur-debert/liboverride/pkg/config"
	"github.com/arthur-debert/liboverride/pkg/display"
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/spf13/cobra"
)

//go:embed topics/*.md
var topicFiles embed.FS

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "liboverride",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			verbosity := opts.verbosity
			if verbosity == 0 {
				verbosity = cfg.Logging.Verbosity
			}
			logging.SetupLogger(verbosity)
			logging.SetSlowOperation(cfg.Logging.SlowOperation)
			logging.LogCommand(cmd.CommandPath(), args)

			if opts.outputFormat, err = display.ParseFormat(opts.format); err != nil {
				return err
			}
			if opts.write && opts.output != "" {
				return errors.New(errors.ErrInvalidInput, MsgErrWriteTarget)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVar(&opts.configPath, "config", "", MsgFlagConfig)
	flags.StringVar(&opts.format, "format", "auto", MsgFlagFormat)
	flags.StringVarP(&opts.scene, "scene", "s", "", MsgFlagScene)
	flags.StringVarP(&opts.output, "output", "o", "", MsgFlagOutput)
	flags.BoolVar(&opts.write, "write", false, MsgFlagWrite)

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newCreateCmd(opts))
	rootCmd.AddCommand(newResyncCmd(opts))
	rootCmd.AddCommand(newDeleteCmd(opts))
	rootCmd.AddCommand(newRemapCmd(opts))
	rootCmd.AddCommand(newDiffCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newManCmd())

	installTopics(rootCmd)

	return rootCmd
}

// installTopics wires the embedded help topics into the help command.
// Markdown goes through glamour on a terminal.
func installTopics(root *cobra.Command) {
	logger := logging.GetLogger("cli")

	sub, err := fs.Sub(topicFiles, "topics")
	if err != nil {
		logger.Warn().Err(err).Msg(MsgErrNoTopics)
		return
	}
	var renderer topics.Renderer = &topics.PlainRenderer{}
	if stdoutIsTerminal() {
		renderer = topics.NewGlamourRenderer()
	}
	m, err := topics.Load(sub, topics.Options{Renderer: renderer})
	if err != nil {
		logger.Warn().Err(err).Msg(MsgErrNoTopics)
		return
	}
	m.Install(root)
}
