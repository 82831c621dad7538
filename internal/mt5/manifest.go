package mt5

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ManifestEntry is one line of a report_list.csv manifest. Include mirrors
// the CSV's 0/1 flag: excluded reports stay listed so a batch can report them
// as explicitly skipped.
type ManifestEntry struct {
	Path    string
	Include bool
}

// ReadManifest reads a report_list.csv manifest, preserving file order.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	entries, err := parseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	return entries, nil
}

func parseManifest(r io.Reader) ([]ManifestEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var entries []ManifestEntry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rec[0]), "FilePath") {
			continue
		}

		e := ManifestEntry{Path: strings.TrimSpace(rec[0]), Include: true}
		if len(rec) > 1 && strings.TrimSpace(rec[1]) == "0" {
			e.Include = false
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// WriteManifest writes entries back out in report_list.csv shape.
func WriteManifest(path string, entries []ManifestEntry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"FilePath", "Include"}); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	for _, e := range entries {
		include := "1"
		if !e.Include {
			include = "0"
		}
		if err := w.Write([]string{e.Path, include}); err != nil {
			return fmt.Errorf("failed to write manifest row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
