// Package cli implements the shelf command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/shelf/internal/paths"
	"github.com/mesh-intelligence/shelf/pkg/sqlite"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir  string
	packageDir string
	staging    string
	format     string
	logLevel   string
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags  rootFlags
	cfg    *viper.Viper
	logger *slog.Logger
}

// NewRootCmd creates the top-level "shelf" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "shelf",
		Short: "Curate things and tags in a tabular data package",
		Long: `Shelf keeps a curated list of things (URLs) and tags in a directory of CSV
files described by datapackage.json. Changes are staged first and written
back to the CSV files by commit.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVarP(&a.flags.packageDir, "package", "p", "", "package directory (default: current directory)")
	pf.StringVar(&a.flags.staging, cfgKeyStaging, "", `staging ring: ":memory:" or a file path (default: <package>/.shelf.db)`)
	pf.StringVar(&a.flags.format, cfgKeyFormat, "", "output format: text, json or yaml")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newTagCmd(a))
	root.AddCommand(newThingCmd(a))
	root.AddCommand(newChangesCmd(a))
	root.AddCommand(newCommitCmd(a))
	root.AddCommand(newDiscardCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to a process exit code. Failures of the file
// system are system errors; everything else was caused by the input.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var (
		pathErr    *fs.PathError
		linkErr    *os.LinkError
		syscallErr *os.SyscallError
	)
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &syscallErr) {
		return exitSysError
	}
	return exitUserError
}

// setup loads config.yaml, merges the global flags over it and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	for key, flag := range map[string]string{
		cfgKeyStaging:  cfgKeyStaging,
		cfgKeyFormat:   cfgKeyFormat,
		cfgKeyLogLevel: "log-level",
	} {
		if err := cfg.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	a.cfg = cfg

	if _, err := parseFormat(cfg.GetString(cfgKeyFormat)); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.GetString(cfgKeyLogLevel))); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.GetString(cfgKeyLogLevel))
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// packageDir resolves the package directory: --package, then package_dir
// from config.yaml, then SHELF_PACKAGE_DIR, then the current directory.
func (a *app) packageDir() (string, error) {
	dir, err := paths.ResolvePackageDir(a.flags.packageDir, a.cfg.GetString(cfgKeyPackageDir))
	if err != nil {
		return "", fmt.Errorf("resolve package dir: %w", err)
	}
	return dir, nil
}

// openStore opens the resolved package. The caller must close the store.
func (a *app) openStore() (*sqlite.Store, error) {
	dir, err := a.packageDir()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(
		types.Config{PackageDir: dir, Staging: a.cfg.GetString(cfgKeyStaging)},
		sqlite.WithLogger(a.logger),
	)
}

// withStore opens the package, runs fn and closes the store.
func (a *app) withStore(fn func(s *sqlite.Store) error) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// format returns the configured output format.
func (a *app) format() outputFormat {
	f, _ := parseFormat(a.cfg.GetString(cfgKeyFormat))
	return f
}
