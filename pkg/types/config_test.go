package types

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty package dir returns ErrPackageDirEmpty",
			config:  Config{},
			wantErr: ErrPackageDirEmpty,
		},
		{
			name:   "default staging is valid",
			config: Config{PackageDir: "/tmp/pkg"},
		},
		{
			name:   "memory staging is valid",
			config: Config{PackageDir: "/tmp/pkg", Staging: MemoryStaging},
		},
		{
			name:    "staging pointing at the package dir is rejected",
			config:  Config{PackageDir: "/tmp/pkg", Staging: "/tmp/pkg"},
			wantErr: ErrStagingIsDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigStrategy(t *testing.T) {
	dir := filepath.Join("/tmp", "pkg")

	tests := []struct {
		name    string
		staging string
		want    Strategy
	}{
		{"empty uses side file", "", Strategy{Path: filepath.Join(dir, DefaultStagingFile)}},
		{"memory token", MemoryStaging, Strategy{Memory: true}},
		{"relative path joins package dir", "work.db", Strategy{Path: filepath.Join(dir, "work.db")}},
		{"absolute path kept", "/var/tmp/work.db", Strategy{Path: "/var/tmp/work.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Config{PackageDir: dir, Staging: tt.staging}.Strategy()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStrategy(t *testing.T) {
	assert.True(t, ParseStrategy(":memory:").Memory)
	assert.Equal(t, ":memory:", ParseStrategy(":memory:").DSN())

	s := ParseStrategy("/tmp/x.db")
	assert.False(t, s.Memory)
	assert.Equal(t, "/tmp/x.db", s.DSN())
	assert.Equal(t, "disk(/tmp/x.db)", s.String())
}
