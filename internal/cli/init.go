package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/internal/datapackage"
	"github.com/mesh-intelligence/shelf/pkg/sqlite"
)

const defaultDescription = "A shelf of curated things."

type initOptions struct {
	name        string
	title       string
	description string
	homepage    string
	keywords    []string
	noSeed      bool
}

func newInitCmd(a *app) *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new package",
		Long: `Init writes datapackage.json and one CSV file per resource (tag, thing,
thing_tag) into the package directory, then seeds the default category tag.

Example:
  shelf init --package ./links --title "My links"
  shelf init --name reading-list --description "Articles to read"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "package name (default: directory name)")
	cmd.Flags().StringVar(&opts.title, "title", "", "package title (default: package name)")
	cmd.Flags().StringVar(&opts.description, "description", defaultDescription, "package description")
	cmd.Flags().StringVar(&opts.homepage, "homepage", "", "package homepage URL")
	cmd.Flags().StringSliceVar(&opts.keywords, "keyword", nil, "package keyword (repeatable)")
	cmd.Flags().BoolVar(&opts.noSeed, "no-seed", false, "do not seed the default category tag")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, opts initOptions) error {
	dir, err := a.packageDir()
	if err != nil {
		return err
	}

	name := opts.name
	if name == "" {
		name = packageName(dir)
	}
	title := opts.title
	if title == "" {
		title = name
	}

	b := datapackage.NewBuilder(name).
		Title(title).
		Description(opts.description).
		Resources(datapackage.DefaultResources()...)
	if opts.homepage != "" {
		b = b.Homepage(opts.homepage)
	}
	if len(opts.keywords) > 0 {
		b = b.Keywords(opts.keywords...)
	}
	pkg, err := b.Build()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create package directory: %w", err)
	}
	if err := datapackage.Scaffold(dir, pkg); err != nil {
		return err
	}
	a.logger.Info("scaffolded package", "dir", dir, "name", pkg.Name)

	if !opts.noSeed {
		err := a.withStore(func(s *sqlite.Store) error {
			_, err := s.Seed()
			return err
		})
		if err != nil {
			return fmt.Errorf("seed package: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized package %s in %s\n", pkg.Name, dir)
	return nil
}

// packageName derives a valid package name from a directory path.
func packageName(dir string) string {
	base := strings.ToLower(filepath.Base(dir))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, base)
}
