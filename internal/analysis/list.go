package analysis

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
)

// ReportsSubdir is where a strategy folder keeps its statement files.
const ReportsSubdir = "HTML Reports"

// ListResult describes a freshly prepared output directory.
type ListResult struct {
	OutputDir string
	Entries   []mt5.ManifestEntry
	SetFiles  int
}

// List scans <parent>/HTML Reports for statements and prepares a new
// timestamped output directory under <parent>/analysis: a manifest listing
// every statement (all included), plus a copy of the parent's .set files
// for the estimator and the report parameter listings.
func List(parent string, now time.Time, log *slog.Logger) (*ListResult, error) {
	parent, err := filepath.Abs(parent)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parent folder: %w", err)
	}

	reportsDir := filepath.Join(parent, ReportsSubdir)
	paths, err := filepath.Glob(filepath.Join(reportsDir, "*.htm"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", reportsDir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .htm reports found in %s", reportsDir)
	}
	sort.Slice(paths, func(i, j int) bool {
		return filepath.Base(paths[i]) < filepath.Base(paths[j])
	})

	outputDir := filepath.Join(parent, "analysis", "output_"+now.Format("20060102_150405"))
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	res := &ListResult{OutputDir: outputDir}
	for _, p := range paths {
		res.Entries = append(res.Entries, mt5.ManifestEntry{Path: p, Include: true})
	}
	if err := mt5.WriteManifest(filepath.Join(outputDir, ManifestFile), res.Entries); err != nil {
		return nil, err
	}

	setsDir := filepath.Join(outputDir, SetsDir)
	if err := os.MkdirAll(setsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sets dir: %w", err)
	}
	sets, err := filepath.Glob(filepath.Join(parent, "*.set"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan set files: %w", err)
	}
	for _, s := range sets {
		if err := copyFile(s, filepath.Join(setsDir, filepath.Base(s))); err != nil {
			return nil, err
		}
		res.SetFiles++
	}

	log.Info("output folder created",
		"dir", outputDir,
		"reports", len(res.Entries),
		"sets", res.SetFiles)
	return res, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
