// Package inspector finds the newest data file of a table in the lake and reports its most
// recent records.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/malbeclabs/jvlake/inspector/pkg/metrics"
	"github.com/malbeclabs/jvlake/inspector/pkg/partition"
	"github.com/malbeclabs/jvlake/inspector/pkg/report"
	"github.com/malbeclabs/jvlake/inspector/pkg/selector"
	"github.com/malbeclabs/jvlake/inspector/pkg/table"
)

// Outcome classifies how a scan ended.
type Outcome string

const (
	OutcomeReport           Outcome = "report"
	OutcomeSchemaDiagnostic Outcome = "schema_diagnostic"
	OutcomeNoFiles          Outcome = "no_files"
	OutcomeNoMatchingFiles  Outcome = "no_matching_files"
	OutcomeDecodeError      Outcome = "decode_error"
	OutcomeError            Outcome = "error"
)

// Scan is the result of one inspection.
type Scan struct {
	RunID     string
	Table     string
	Year      int
	Outcome   Outcome
	Selection selector.Result
	Columns   []string
	Rows      int
	Report    report.Result
}

type Inspector struct {
	log    *slog.Logger
	cfg    Config
	loader *table.Loader
}

func New(cfg Config) (*Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Inspector{
		log:    cfg.Logger,
		cfg:    cfg,
		loader: table.NewLoader(cfg.Store),
	}, nil
}

func (i *Inspector) year() int {
	if i.cfg.Year != 0 {
		return i.cfg.Year
	}
	return i.cfg.Clock.Now().Year()
}

// Scan walks the year partition, selects the newest file matching the table token, loads it and
// builds the report. The returned Scan is never nil; its Outcome is set on every path. Errors
// wrap selector.ErrNoFiles, selector.ErrNoMatchingFiles or *table.DecodeError for the
// anticipated failures.
func (i *Inspector) Scan(ctx context.Context) (*Scan, error) {
	start := i.cfg.Clock.Now()
	scan := &Scan{
		RunID: uuid.NewString(),
		Table: i.cfg.TableToken,
		Year:  i.year(),
	}
	log := i.log.With("run_id", scan.RunID, "table", i.cfg.TableToken, "year", scan.Year)

	defer func() {
		metrics.ScansTotal.WithLabelValues(i.cfg.TableToken, string(scan.Outcome)).Inc()
		metrics.ScanDuration.WithLabelValues(i.cfg.TableToken).Observe(i.cfg.Clock.Since(start).Seconds())
	}()

	log.Debug("scanning partition", "root", i.cfg.Root, "ext", i.cfg.Ext)
	files := partition.Walk(ctx, i.cfg.Store, partition.WalkConfig{
		Root: i.cfg.Root,
		Year: scan.Year,
		Ext:  i.cfg.Ext,
	})
	sel, err := selector.SelectLatest(files, i.cfg.TableToken)
	scan.Selection = sel
	metrics.FilesDiscovered.WithLabelValues(i.cfg.TableToken).Set(float64(sel.Discovered))
	if err != nil {
		switch {
		case errors.Is(err, selector.ErrNoFiles):
			scan.Outcome = OutcomeNoFiles
			log.Warn("no files found in year partition")
		case errors.Is(err, selector.ErrNoMatchingFiles):
			scan.Outcome = OutcomeNoMatchingFiles
			log.Warn("no files match table token", "discovered", sel.Discovered)
		default:
			scan.Outcome = OutcomeError
		}
		return scan, err
	}

	latest := sel.Latest
	log.Info("selected latest file", "path", latest.Path, "partition", latest.Partition.String(), "matched", sel.Matched, "discovered", sel.Discovered)
	metrics.LatestFileInfo.Reset()
	metrics.LatestFileInfo.WithLabelValues(i.cfg.TableToken, latest.Partition.String(), latest.Name).Set(1)

	tbl, err := i.loader.Load(ctx, latest)
	if err != nil {
		var decodeErr *table.DecodeError
		if errors.As(err, &decodeErr) {
			scan.Outcome = OutcomeDecodeError
		} else {
			scan.Outcome = OutcomeError
		}
		return scan, err
	}
	scan.Columns = tbl.Columns()
	scan.Rows = tbl.Len()
	metrics.RowsLoaded.WithLabelValues(i.cfg.TableToken).Set(float64(tbl.Len()))

	scan.Report = i.cfg.Reporter.Report(tbl)
	switch scan.Report.Outcome {
	case report.OutcomeSchemaDiagnostic:
		scan.Outcome = OutcomeSchemaDiagnostic
		log.Warn("no date column in table", "columns", len(scan.Columns))
	default:
		scan.Outcome = OutcomeReport
		log.Debug("report built", "records", len(scan.Report.Records), "date_column", scan.Report.DateColumn)
	}
	return scan, nil
}

// Print writes the scan header followed by the report or schema diagnostic.
func Print(w io.Writer, s *Scan) error {
	fmt.Fprintf(w, "Files found: %d\n", s.Selection.Discovered)
	fmt.Fprintf(w, "Reading: %s\n\n", s.Selection.Latest.Path)
	fmt.Fprintf(w, "Rows: %d\n", s.Rows)
	fmt.Fprintf(w, "Columns: [%s]\n\n", strings.Join(s.Columns, ", "))
	return report.Render(w, s.Report)
}

// Describe returns the operator message for a failed scan.
func Describe(s *Scan, err error) string {
	switch s.Outcome {
	case OutcomeNoFiles:
		return fmt.Sprintf("No files found for year=%d. The partition is missing or empty.", s.Year)
	case OutcomeNoMatchingFiles:
		return fmt.Sprintf("Found %d files for year=%d, but none matches table %q.", s.Selection.Discovered, s.Year, s.Table)
	case OutcomeDecodeError:
		var decodeErr *table.DecodeError
		if errors.As(err, &decodeErr) {
			return fmt.Sprintf("Could not decode %s: %v", decodeErr.Path, decodeErr.Err)
		}
		return err.Error()
	default:
		return err.Error()
	}
}
