package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"testing"
)

type archiveEntry struct {
	name string
	data []byte
}

func buildZip(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, entry := range entries {
		f, err := w.Create(entry.name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", entry.name, err)
		}
		if _, err := f.Write(entry.data); err != nil {
			t.Fatalf("write zip entry %s: %v", entry.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func buildTarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, entry := range entries {
		header := &tar.Header{
			Name:     entry.name,
			Mode:     0644,
			Size:     int64(len(entry.data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("write tar header %s: %v", entry.name, err)
		}
		if _, err := tw.Write(entry.data); err != nil {
			t.Fatalf("write tar entry %s: %v", entry.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

func TestReadArchiveZipRoundTrip(t *testing.T) {
	sheet := []byte("workbook bytes")
	raw := buildZip(t, []archiveEntry{
		{"cases.xlsx", sheet},
		{"scripts/TC001.py", []byte("print('a')")},
		{"scripts/TC002.py", []byte("print('b')")},
		{"scripts/readme.txt", []byte("not a script")},
		{"other/TC003.py", []byte("wrong directory")},
	})

	content, err := ReadArchive(raw, FormatZip)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if !bytes.Equal(content.SpreadsheetBytes, sheet) {
		t.Errorf("spreadsheet bytes do not match the archived entry")
	}
	if len(content.ScriptNames) != 2 {
		t.Fatalf("expected 2 script names, got %d", len(content.ScriptNames))
	}
	for _, name := range []string{"TC001.py", "TC002.py"} {
		if _, ok := content.ScriptNames[name]; !ok {
			t.Errorf("expected script %s in set", name)
		}
	}
}

func TestReadArchiveTarGzRoundTrip(t *testing.T) {
	sheet := []byte("workbook bytes")
	raw := buildTarGz(t, []archiveEntry{
		{"scripts/TC001.py", []byte("print('a')")},
		{"cases.xlsx", sheet},
	})

	content, err := ReadArchive(raw, FormatTarGz)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if !bytes.Equal(content.SpreadsheetBytes, sheet) {
		t.Errorf("spreadsheet bytes do not match the archived entry")
	}
	if _, ok := content.ScriptNames["TC001.py"]; !ok {
		t.Errorf("expected script TC001.py in set")
	}
}

func TestReadArchiveAbsenceDetection(t *testing.T) {
	raw := buildZip(t, []archiveEntry{
		{"notes.txt", []byte("no spreadsheet, no scripts")},
	})

	content, err := ReadArchive(raw, FormatZip)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(content.SpreadsheetBytes) != 0 {
		t.Errorf("expected empty spreadsheet bytes")
	}
	if len(content.ScriptNames) != 0 {
		t.Errorf("expected empty script set, got %v", content.ScriptNames)
	}
}

func TestReadArchiveEmptyArchive(t *testing.T) {
	raw := buildZip(t, nil)

	content, err := ReadArchive(raw, FormatZip)
	if err != nil {
		t.Fatalf("empty archive should not error at this layer: %v", err)
	}
	if len(content.SpreadsheetBytes) != 0 || len(content.ScriptNames) != 0 {
		t.Errorf("expected empty result for empty archive")
	}
}

func TestReadArchiveDuplicateSpreadsheetLastWins(t *testing.T) {
	raw := buildZip(t, []archiveEntry{
		{"cases.xlsx", []byte("first")},
		{"cases.xlsx", []byte("second")},
	})

	content, err := ReadArchive(raw, FormatZip)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if string(content.SpreadsheetBytes) != "second" {
		t.Errorf("expected last cases.xlsx entry to win, got %q", content.SpreadsheetBytes)
	}
}

func TestReadArchiveCorrupt(t *testing.T) {
	garbage := []byte("this is not an archive of any kind")

	if _, err := ReadArchive(garbage, FormatZip); !errors.Is(err, ErrCorruptArchive) {
		t.Errorf("zip: expected ErrCorruptArchive, got %v", err)
	}
	if _, err := ReadArchive(garbage, FormatTarGz); !errors.Is(err, ErrCorruptArchive) {
		t.Errorf("tar.gz: expected ErrCorruptArchive, got %v", err)
	}
}

func TestReadArchiveScriptsInNestedDirs(t *testing.T) {
	raw := buildZip(t, []archiveEntry{
		{"scripts/nested/TC042.py", []byte("x")},
	})

	content, err := ReadArchive(raw, FormatZip)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	// Base filename is recorded regardless of depth under scripts/.
	if _, ok := content.ScriptNames["TC042.py"]; !ok {
		t.Errorf("expected base filename TC042.py, got %v", content.ScriptNames)
	}
}
