// Package report ranks the newest rows of a table and renders them for an operator.
package report

import (
	"slices"

	"github.com/malbeclabs/jvlake/inspector/pkg/identifier"
	"github.com/malbeclabs/jvlake/inspector/pkg/table"
)

// MaxRecords is the number of newest rows a report shows.
const MaxRecords = 10

// DefaultDateColumns are the recognised date columns, in lookup order.
var DefaultDateColumns = []string{"race_date", "RaceDate", "race_datetime"}

// Outcome is the terminal state of one Report call.
type Outcome int

const (
	// OutcomeReport means a ranked report of records was produced.
	OutcomeReport Outcome = iota
	// OutcomeSchemaDiagnostic means no date column was found and the table layout is returned
	// instead.
	OutcomeSchemaDiagnostic
)

func (o Outcome) String() string {
	if o == OutcomeSchemaDiagnostic {
		return "schema_diagnostic"
	}
	return "report"
}

// Record is one reported row.
type Record struct {
	// Row is the position of the row in the table.
	Row        int
	Date       any
	HasDate    bool
	Identifier identifier.Identifier
	Name       any
	HasName    bool
}

type Result struct {
	Outcome Outcome

	// Set for OutcomeReport.
	DateColumn string
	// NameColumn is the descriptive column found in the table, empty if none.
	NameColumn string
	Records    []Record
	TotalRows  int

	// Set for OutcomeSchemaDiagnostic. FirstRow is nil for an empty table.
	Columns        []string
	FirstRow       table.Row
	LookedForDates []string
}

type Reporter struct {
	dateColumns []string
	nameColumns []string
	parent      string
	extractor   *identifier.Extractor
}

type Option func(*Reporter)

func WithDateColumns(cols ...string) Option {
	return func(r *Reporter) { r.dateColumns = cols }
}

// WithNameColumns sets the descriptive race-name columns.
func WithNameColumns(cols ...string) Option {
	return func(r *Reporter) { r.nameColumns = cols }
}

func WithIdentifierParent(parent string) Option {
	return func(r *Reporter) { r.parent = parent }
}

func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{
		dateColumns: DefaultDateColumns,
		nameColumns: identifier.DefaultNameColumns,
		parent:      identifier.DefaultParent,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.extractor = identifier.NewExtractor(
		identifier.WithParent(r.parent),
		identifier.WithNameColumns(r.nameColumns...),
	)
	return r
}

// Report ranks t by its date column, newest first, and resolves the first MaxRecords rows. Rows
// with equal dates keep their file order; rows without a date sort last. Without a recognised
// date column it returns the table layout instead.
func (r *Reporter) Report(t *table.Table) Result {
	dateCol, ok := t.FirstColumn(r.dateColumns...)
	if !ok {
		res := Result{
			Outcome:        OutcomeSchemaDiagnostic,
			Columns:        t.Columns(),
			TotalRows:      t.Len(),
			LookedForDates: slices.Clone(r.dateColumns),
		}
		if t.Len() > 0 {
			res.FirstRow = t.Row(0)
		}
		return res
	}

	order := make([]int, t.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		da, okA := t.Value(a, dateCol)
		db, okB := t.Value(b, dateCol)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return -table.Compare(da, db)
	})

	n := min(MaxRecords, len(order))
	res := Result{
		Outcome:    OutcomeReport,
		DateColumn: dateCol,
		Records:    make([]Record, 0, n),
		TotalRows:  t.Len(),
	}
	if col, ok := t.FirstColumn(r.nameColumns...); ok {
		res.NameColumn = col
	}
	for _, i := range order[:n] {
		date, hasDate := t.Value(i, dateCol)
		name, hasName := r.extractor.Name(t, i)
		res.Records = append(res.Records, Record{
			Row:        i,
			Date:       date,
			HasDate:    hasDate,
			Identifier: r.extractor.Extract(t, i),
			Name:       name,
			HasName:    hasName,
		})
	}
	return res
}
