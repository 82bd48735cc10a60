package ingest

import (
	"errors"
)

// Sentinel errors for upload pipeline failures. All of them map to
// user-facing 400-class responses; anything else is internal.
var (
	ErrEmptyFile             = errors.New("uploaded file is empty")
	ErrFileTooLarge          = errors.New("uploaded file exceeds the size limit")
	ErrUnsupportedFormat     = errors.New("unsupported archive format, expected .zip or .tar.gz")
	ErrBadNamingConvention   = errors.New("archive filename must be <name>_<version> before the extension")
	ErrCorruptArchive        = errors.New("archive could not be opened")
	ErrMissingSpreadsheet    = errors.New("archive does not contain cases.xlsx")
	ErrMissingHeaderRow      = errors.New("spreadsheet has no usable header row")
	ErrUnreadableSpreadsheet = errors.New("spreadsheet could not be read")
)

// IsUserError reports whether err is an upload validation failure
// rather than an internal one.
func IsUserError(err error) bool {
	for _, sentinel := range []error{
		ErrEmptyFile,
		ErrFileTooLarge,
		ErrUnsupportedFormat,
		ErrBadNamingConvention,
		ErrCorruptArchive,
		ErrMissingSpreadsheet,
		ErrMissingHeaderRow,
		ErrUnreadableSpreadsheet,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
