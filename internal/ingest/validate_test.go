package ingest

import (
	"errors"
	"testing"
)

func TestValidateNamingSplit(t *testing.T) {
	tests := []struct {
		filename string
		name     string
		version  string
		format   Format
	}{
		{"alpha_v2.zip", "alpha", "v2", FormatZip},
		{"alpha_v2.ZIP", "alpha", "v2", FormatZip},
		{"pack_v3.tar.gz", "pack", "v3", FormatTarGz},
		{"pack_v3.TAR.GZ", "pack", "v3", FormatTarGz},
		{"multi_part_name_1.0.zip", "multi_part_name", "1.0", FormatZip},
	}

	for _, tt := range tests {
		name, version, format, err := Validate([]byte("content"), tt.filename, 7)
		if err != nil {
			t.Errorf("Validate(%q): unexpected error %v", tt.filename, err)
			continue
		}
		if name != tt.name || version != tt.version || format != tt.format {
			t.Errorf("Validate(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.filename, name, version, format, tt.name, tt.version, tt.format)
		}
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		filename string
		size     int64
		want     error
	}{
		{"empty bytes", nil, "alpha_v2.zip", 0, ErrEmptyFile},
		{"declared size over ceiling", []byte("x"), "alpha_v2.zip", MaxUploadBytes + 1, ErrFileTooLarge},
		{"wrong extension", []byte("x"), "alpha_v2.rar", 1, ErrUnsupportedFormat},
		{"no extension", []byte("x"), "alpha_v2", 1, ErrUnsupportedFormat},
		{"no separator", []byte("x"), "alpha.zip", 1, ErrBadNamingConvention},
		{"empty name", []byte("x"), "_v2.zip", 1, ErrBadNamingConvention},
		{"empty version", []byte("x"), "alpha_.zip", 1, ErrBadNamingConvention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Validate(tt.raw, tt.filename, tt.size)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate(%q) error = %v, want %v", tt.filename, err, tt.want)
			}
		})
	}
}

func TestValidateShortCircuitOrder(t *testing.T) {
	// An empty upload with a bad extension must fail as empty, not as
	// unsupported: rules apply in order.
	_, _, _, err := Validate(nil, "whatever.rar", 0)
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestValidateIdempotent(t *testing.T) {
	raw := []byte("payload")
	n1, v1, f1, e1 := Validate(raw, "demo_v1.zip", int64(len(raw)))
	n2, v2, f2, e2 := Validate(raw, "demo_v1.zip", int64(len(raw)))
	if n1 != n2 || v1 != v2 || f1 != f2 || !errors.Is(e1, e2) {
		t.Errorf("identical inputs produced different results: (%q,%q,%q,%v) vs (%q,%q,%q,%v)",
			n1, v1, f1, e1, n2, v2, f2, e2)
	}
}
