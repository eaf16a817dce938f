package types

import (
	"errors"
	"path/filepath"
)

// Config locates a package and selects where the staging ring lives.
type Config struct {
	PackageDir string `json:"package_dir" yaml:"package_dir"`
	// Staging is ":memory:" for an ephemeral staging ring, a file path for a
	// persistent one, or empty for the default side file in PackageDir.
	Staging string `json:"staging" yaml:"staging"`
}

// Staging tokens and defaults.
const (
	MemoryStaging      = ":memory:"
	DefaultStagingFile = ".shelf.db"
)

// Config validation errors.
var (
	ErrPackageDirEmpty = errors.New("package directory must not be empty")
	ErrStagingIsDir    = errors.New("staging path must not be the package directory")
)

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.PackageDir == "" {
		return ErrPackageDirEmpty
	}
	s := c.Strategy()
	if !s.Memory && filepath.Clean(s.Path) == filepath.Clean(c.PackageDir) {
		return ErrStagingIsDir
	}
	return nil
}

// Strategy resolves the staging setting. Relative staging paths are taken
// relative to the package directory.
func (c Config) Strategy() Strategy {
	switch c.Staging {
	case MemoryStaging:
		return Strategy{Memory: true}
	case "":
		return Strategy{Path: filepath.Join(c.PackageDir, DefaultStagingFile)}
	default:
		if filepath.IsAbs(c.Staging) {
			return Strategy{Path: c.Staging}
		}
		return Strategy{Path: filepath.Join(c.PackageDir, c.Staging)}
	}
}

// Strategy says whether staged work lives in memory or in a side file that
// survives between runs.
type Strategy struct {
	Memory bool
	Path   string
}

// ParseStrategy maps the ":memory:" token to the memory strategy and any
// other value to a disk path.
func ParseStrategy(s string) Strategy {
	if s == MemoryStaging {
		return Strategy{Memory: true}
	}
	return Strategy{Path: s}
}

// DSN returns the name to ATTACH for this strategy.
func (s Strategy) DSN() string {
	if s.Memory {
		return MemoryStaging
	}
	return s.Path
}

func (s Strategy) String() string {
	if s.Memory {
		return "memory"
	}
	return "disk(" + s.Path + ")"
}
