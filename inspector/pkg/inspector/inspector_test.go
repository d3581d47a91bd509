package inspector

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jonboulle/clockwork"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/jvlake/inspector/pkg/report"
	"github.com/malbeclabs/jvlake/inspector/pkg/selector"
	"github.com/malbeclabs/jvlake/inspector/pkg/store"
	"github.com/malbeclabs/jvlake/inspector/pkg/table"
	laketesting "github.com/malbeclabs/jvlake/utils/pkg/testing"
)

type raceID struct {
	JyoCD   string `parquet:"JyoCD"`
	Kaiji   int32  `parquet:"Kaiji"`
	Nichiji int32  `parquet:"Nichiji"`
	RaceNum int32  `parquet:"RaceNum"`
}

type race struct {
	RaceDate string `parquet:"race_date"`
	ID       raceID `parquet:"id"`
	RaceName string `parquet:"RaceName"`
}

type undated struct {
	Kyori int32 `parquet:"Kyori"`
}

func writeParquet[T any](t *testing.T, fs billy.Filesystem, path string, rows []T) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, parquet.Write(&buf, rows))
	require.NoError(t, util.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func races(day int, n int) []race {
	rows := make([]race, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, race{
			RaceDate: fmt.Sprintf("202507%02d", day),
			ID:       raceID{JyoCD: "05", Kaiji: 3, Nichiji: 2, RaceNum: int32(i)},
			RaceName: fmt.Sprintf("Race %d", i),
		})
	}
	return rows
}

func newInspector(t *testing.T, fs billy.Filesystem, mutate ...func(*Config)) *Inspector {
	t.Helper()
	cfg := Config{
		Logger: laketesting.NewLogger(),
		Clock:  clockwork.NewFakeClockAt(time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)),
		Store:  store.NewBilly(fs),
		Root:   "RA",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	i, err := New(cfg)
	require.NoError(t, err)
	return i
}

func TestLake_Inspector_Scan_Report(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	writeParquet(t, fs, "RA/year=2025/month=7/day=13/20250713_RACE.parquet", races(13, 3))
	writeParquet(t, fs, "RA/year=2025/month=7/day=14/20250714_RACE.parquet", races(14, 12))
	writeParquet(t, fs, "RA/year=2025/month=7/day=14/20250714_SE.parquet", races(14, 1))

	scan, err := newInspector(t, fs).Scan(t.Context())
	require.NoError(t, err)
	require.Equal(t, OutcomeReport, scan.Outcome)
	require.Equal(t, 2025, scan.Year, "year defaults to the clock's year")
	require.NotEmpty(t, scan.RunID)
	require.Equal(t, "RA/year=2025/month=7/day=14/20250714_RACE.parquet", scan.Selection.Latest.Path)
	require.Equal(t, 3, scan.Selection.Discovered)
	require.Equal(t, 12, scan.Rows)
	require.Len(t, scan.Report.Records, report.MaxRecords)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, scan))
	out := buf.String()
	require.Contains(t, out, "Files found: 3")
	require.Contains(t, out, "Reading: RA/year=2025/month=7/day=14/20250714_RACE.parquet")
	require.Contains(t, out, "Rows: 12")
	require.Contains(t, out, "  Venue code: 05")
	require.Contains(t, out, "  Race name: Race 1")
}

func TestLake_Inspector_Scan_NoFiles(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	writeParquet(t, fs, "RA/year=2024/month=12/day=28/20241228_RACE.parquet", races(28, 1))

	scan, err := newInspector(t, fs).Scan(t.Context())
	require.ErrorIs(t, err, selector.ErrNoFiles)
	require.Equal(t, OutcomeNoFiles, scan.Outcome)
	require.Contains(t, Describe(scan, err), "No files found for year=2025")
}

func TestLake_Inspector_Scan_NoMatchingFiles(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	writeParquet(t, fs, "RA/year=2025/month=7/day=14/20250714_SE.parquet", races(14, 1))

	scan, err := newInspector(t, fs).Scan(t.Context())
	require.ErrorIs(t, err, selector.ErrNoMatchingFiles)
	require.NotErrorIs(t, err, selector.ErrNoFiles)
	require.Equal(t, OutcomeNoMatchingFiles, scan.Outcome)
	require.Contains(t, Describe(scan, err), `none matches table "RACE"`)
}

func TestLake_Inspector_Scan_DecodeError(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "RA/year=2025/month=7/day=14/20250714_RACE.parquet", []byte("not parquet"), 0o644))

	scan, err := newInspector(t, fs).Scan(t.Context())
	var decodeErr *table.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, OutcomeDecodeError, scan.Outcome)
	require.Contains(t, Describe(scan, err), "Could not decode RA/year=2025/month=7/day=14/20250714_RACE.parquet")
}

func TestLake_Inspector_Scan_SchemaDiagnostic(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	writeParquet(t, fs, "RA/year=2025/month=7/day=14/20250714_RACE.parquet", []undated{{Kyori: 1600}})

	scan, err := newInspector(t, fs).Scan(t.Context())
	require.NoError(t, err)
	require.Equal(t, OutcomeSchemaDiagnostic, scan.Outcome)
	require.Equal(t, []string{"Kyori"}, scan.Columns)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, scan))
	require.Contains(t, buf.String(), "First row: {Kyori=1600}")
}

func TestLake_Inspector_Scan_ExplicitYearAndToken(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	writeParquet(t, fs, "RA/year=2024/month=12/day=28/20241228_RACE.parquet", races(28, 1))
	writeParquet(t, fs, "RA/year=2024/month=12/day=28/20241228_SE.parquet", races(28, 2))

	scan, err := newInspector(t, fs, func(c *Config) {
		c.Year = 2024
		c.TableToken = "SE"
	}).Scan(t.Context())
	require.NoError(t, err)
	require.Equal(t, "20241228_SE.parquet", scan.Selection.Latest.Name)
	require.Equal(t, 2, scan.Rows)
}

func TestLake_Inspector_ConfigValidate(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Store: store.NewBilly(memfs.New())})
	require.Error(t, err)

	_, err = New(Config{Logger: laketesting.NewLogger()})
	require.Error(t, err)

	cfg := Config{Logger: laketesting.NewLogger(), Store: store.NewBilly(memfs.New())}
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultExt, cfg.Ext)
	require.Equal(t, DefaultTableToken, cfg.TableToken)
	require.NotNil(t, cfg.Clock)
	require.NotNil(t, cfg.Reporter)
}
