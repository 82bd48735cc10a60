package ingest

import (
	"strings"
)

// Format identifies the container type of an uploaded archive.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "targz"
)

// MaxUploadBytes is the upload size ceiling. The whole archive is held
// in memory during ingestion, so this bound is load-bearing.
const MaxUploadBytes = 100 << 20 // 100 MiB

// Extension returns the filename extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatTarGz {
		return "tar.gz"
	}
	return "zip"
}

// ContentType returns the MIME type served for downloads of this format.
func (f Format) ContentType() string {
	if f == FormatTarGz {
		return "application/gzip"
	}
	return "application/zip"
}

// Validate checks an upload before any parsing work and splits its
// filename into catalog name and version. Rules apply in order and
// short-circuit on the first failure:
//
//  1. bytes must be non-empty
//  2. declared size must not exceed MaxUploadBytes
//  3. filename must end in .zip or .tar.gz (case-insensitive)
//  4. the remaining stem must contain "_"; the part before the last
//     "_" is the catalog name, the part after is the version
//
// Validate is a pure function of its inputs.
func Validate(raw []byte, filename string, size int64) (name, version string, format Format, err error) {
	if len(raw) == 0 {
		return "", "", "", ErrEmptyFile
	}
	if size > MaxUploadBytes || int64(len(raw)) > MaxUploadBytes {
		return "", "", "", ErrFileTooLarge
	}

	lower := strings.ToLower(filename)
	var stem string
	switch {
	case strings.HasSuffix(lower, ".tar.gz"):
		format = FormatTarGz
		stem = filename[:len(filename)-len(".tar.gz")]
	case strings.HasSuffix(lower, ".zip"):
		format = FormatZip
		stem = filename[:len(filename)-len(".zip")]
	default:
		return "", "", "", ErrUnsupportedFormat
	}

	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return "", "", "", ErrBadNamingConvention
	}
	name = stem[:idx]
	version = stem[idx+1:]
	if name == "" || version == "" {
		return "", "", "", ErrBadNamingConvention
	}
	return name, version, format, nil
}
