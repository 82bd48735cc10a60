package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

const (
	spreadsheetEntry = "cases.xlsx"
	scriptsPrefix    = "scripts/"
	scriptSuffix     = ".py"
)

// ArchiveContent is what the reader pulls out of an uploaded bundle:
// the spreadsheet bytes (empty if no cases.xlsx entry existed) and the
// base filenames of the python scripts under scripts/. Script bodies
// are never buffered, only their names.
type ArchiveContent struct {
	SpreadsheetBytes []byte
	ScriptNames      map[string]struct{}
}

// ReadArchive walks every entry of the in-memory archive. If multiple
// cases.xlsx entries occur, the last one wins. Directory entries and
// files outside the two designated locations are ignored; an empty
// archive is an empty result, not an error.
func ReadArchive(raw []byte, format Format) (*ArchiveContent, error) {
	content := &ArchiveContent{
		ScriptNames: make(map[string]struct{}),
	}

	switch format {
	case FormatTarGz:
		if err := readTarGz(raw, content); err != nil {
			return nil, err
		}
	default:
		if err := readZip(raw, content); err != nil {
			return nil, err
		}
	}
	return content, nil
}

func readZip(raw []byte, content *ArchiveContent) error {
	r, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.Name == spreadsheetEntry {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("%w: open %s: %v", ErrCorruptArchive, f.Name, err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return fmt.Errorf("%w: read %s: %v", ErrCorruptArchive, f.Name, err)
			}
			content.SpreadsheetBytes = data
			continue
		}
		if name, ok := scriptName(f.Name); ok {
			content.ScriptNames[name] = struct{}{}
		}
	}
	return nil
}

func readTarGz(raw []byte, content *ArchiveContent) error {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if header.Name == spreadsheetEntry {
			data, err := io.ReadAll(tr)
			if err != nil {
				return fmt.Errorf("%w: read %s: %v", ErrCorruptArchive, header.Name, err)
			}
			content.SpreadsheetBytes = data
			continue
		}
		// Script content is skipped by the next tr.Next call.
		if name, ok := scriptName(header.Name); ok {
			content.ScriptNames[name] = struct{}{}
		}
	}
	return nil
}

// scriptName returns the base filename for entries under scripts/
// ending in .py, and false for everything else.
func scriptName(path string) (string, bool) {
	if !strings.HasPrefix(path, scriptsPrefix) || !strings.HasSuffix(path, scriptSuffix) {
		return "", false
	}
	base := path[strings.LastIndex(path, "/")+1:]
	if base == "" {
		return "", false
	}
	return base, true
}
