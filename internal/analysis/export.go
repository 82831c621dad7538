package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/csvk/MT5Enhance/internal/mt5"
)

// ExportDir is the subdirectory of an output folder that holds the
// deployment bundle.
const ExportDir = "export"

// ExportResult summarizes a deployment bundle.
type ExportResult struct {
	Dir      string
	Reports  int
	Sets     int
	Assigned int
}

// Export builds a deployment bundle for the reports that made it into the
// portfolio: their statement files and their .set files with magic numbers
// assigned and trade comments rewritten to carry the observed sequence
// depth. The bundle directory is recreated from scratch on every run.
func Export(run *Run, magicStart int, log *slog.Logger) (*ExportResult, error) {
	if run.Monthly == nil || len(run.Monthly.Rows) == 0 {
		return nil, errors.New("nothing to export: the portfolio has no contributing reports")
	}

	reports := make(map[string]*Report, len(run.Reports))
	for i := range run.Reports {
		reports[run.Reports[i].Name] = &run.Reports[i]
	}

	dir := filepath.Join(run.OutputDir, ExportDir)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear export dir: %w", err)
	}
	statementsDir := filepath.Join(dir, ReportsSubdir)
	setsDir := filepath.Join(dir, SetsDir)
	for _, d := range []string{statementsDir, setsDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create export dir: %w", err)
		}
	}

	res := &ExportResult{Dir: dir}
	magic := magicStart
	seen := map[string]bool{}
	for _, row := range run.Monthly.Rows {
		if seen[row.Report] {
			continue
		}
		seen[row.Report] = true

		rep, ok := reports[row.Report]
		if !ok {
			log.Warn("portfolio contributor missing from run reports", "report", row.Report)
			continue
		}

		assigned, patched, err := exportSet(run, rep, setsDir, magic, log)
		if err != nil {
			return nil, err
		}
		if assigned {
			magic++
			res.Assigned++
		}
		if patched {
			res.Sets++
		}

		if err := copyFile(rep.Path, filepath.Join(statementsDir, rep.Name)); err != nil {
			return nil, err
		}
		res.Reports++
	}

	log.Info("export complete",
		"dir", dir,
		"reports", res.Reports,
		"sets", res.Sets,
		"magics_assigned", res.Assigned)
	return res, nil
}

// exportSet patches a report's .set file and writes it into the bundle. A
// magic number is assigned only when the file still carries the default 0,
// so hand-assigned magics survive re-export.
func exportSet(run *Run, rep *Report, setsDir string, magic int, log *slog.Logger) (assigned, patched bool, err error) {
	src := filepath.Join(run.OutputDir, SetsDir, rep.BaseName()+".set")
	s, err := mt5.ReadSetFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("no set file for exported report", "report", rep.Name)
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	if cur, ok := s.Value("MAGIC_NUMBER"); ok && cur == "0" {
		s.Set("MAGIC_NUMBER", strconv.Itoa(magic))
		assigned = true
	}
	if comment, ok := s.Value("TradeComment"); ok {
		s.Set("TradeComment", rewriteComment(comment, rep.MaxTrades))
	}

	if err := s.WriteToFile(filepath.Join(setsDir, filepath.Base(src))); err != nil {
		return false, false, err
	}
	return assigned, true, nil
}

// rewriteComment compacts a TradeComment to its strategy prefix plus the
// last three tokens and appends the observed sequence depth. Comments with
// fewer than four tokens are left alone.
func rewriteComment(comment string, maxTrades int) string {
	parts := strings.Split(comment, "_")
	if len(parts) < 4 {
		return comment
	}
	return parts[0] + "_" + strings.Join(parts[len(parts)-3:], "_") + fmt.Sprintf("_Max%d", maxTrades)
}
