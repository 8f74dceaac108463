// Package cli implements the rowset command-line interface: a thin shell
// over a schema file, a configured backend, and the mapping engine.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/rowset/internal/paths"
	"github.com/mesh-intelligence/rowset/pkg/auth"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	verbose   bool
}

// app carries per-invocation state from the root command to subcommands.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *viper.Viper
	log       *zap.SugaredLogger
}

// NewRootCmd creates the top-level "rowset" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "rowset",
		Short: "Schema-checked records over spreadsheet-style storage",
		Long: "Rowset maps entity records onto header-plus-rows sheets, validating\n" +
			"them against a YAML schema and following declared relations.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				_ = a.log.Sync()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newEntitiesCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newInsertCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newTokenCmd(a),
	)
	return root
}

// setup resolves the config directory, loads config.yaml, and builds the
// logger. The version command needs none of it.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = dir

	a.cfg, err = loadConfig(dir)
	if err != nil {
		return sysError(err)
	}
	a.log = newLogger(a.flags.verbose, cmd.ErrOrStderr()).Sugar()
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "rowset:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitError attaches an exit code to an error returned by a subcommand.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }

func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

// userErrors are failures caused by the input rather than the environment.
var userErrors = []error{
	types.ErrInvalidArgument,
	types.ErrValidation,
	types.ErrUniqueConstraint,
	types.ErrNotFound,
	types.ErrIntegrity,
	types.ErrUnknownEntity,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrSyncStrategyUnknown,
	types.ErrDSNRequired,
	auth.ErrUnauthenticated,
}

// classify wraps err with the exit code its cause calls for.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// exitCode maps an error to a process exit code. Errors raised by cobra
// itself (unknown flags, wrong argument counts) are user errors.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
