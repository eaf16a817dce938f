package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain ascii", in: "rust", want: "rust"},
		{name: "inner space allowed", in: "web dev", want: "web dev"},
		{name: "decomposed input is composed", in: "cafe\u0301", want: "caf\u00e9"},
		{name: "empty", in: "", wantErr: true},
		{name: "leading space", in: " rust", wantErr: true},
		{name: "trailing newline", in: "rust\n", wantErr: true},
		{name: "control character", in: "ru\x00st", wantErr: true},
		{name: "invalid utf8", in: "\xff\xfe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeID(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "https", in: "https://example.org/a"},
		{name: "http with port", in: "http://localhost:8080/"},
		{name: "no scheme", in: "example.org", wantErr: true},
		{name: "ftp scheme", in: "ftp://example.org", wantErr: true},
		{name: "no host", in: "https:///path", wantErr: true},
		{name: "whitespace", in: " https://example.org", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateURL(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)
		})
	}
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString(""))

	got := OptionalString("  hello ")
	require.NotNil(t, got)
	assert.Equal(t, "  hello ", *got, "whitespace is kept")

	assert.Equal(t, "", StringValue(nil))
	assert.Equal(t, "hello", StringValue(got))
}
