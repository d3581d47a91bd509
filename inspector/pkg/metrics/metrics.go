package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the inspector collectors. It is separate from the default registry so that a
// textfile export only carries scan metrics.
var Registry = prometheus.NewRegistry()

var (
	BuildInfo = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvlake_inspect_build_info",
			Help: "Build information of the lake inspector",
		},
		[]string{"version", "commit", "date"},
	)

	ScansTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "jvlake_inspect_scans_total",
			Help: "Total number of scans by outcome",
		},
		[]string{"table", "outcome"},
	)

	ScanDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jvlake_inspect_scan_duration_seconds",
			Help:    "Duration of scans",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"table"},
	)

	FilesDiscovered = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvlake_inspect_files_discovered",
			Help: "Number of files found in the scanned year partition",
		},
		[]string{"table"},
	)

	RowsLoaded = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvlake_inspect_rows_loaded",
			Help: "Number of rows in the latest file",
		},
		[]string{"table"},
	)

	LatestFileInfo = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvlake_inspect_latest_file_info",
			Help: "Latest file selected for a table, value is always 1",
		},
		[]string{"table", "partition", "file"},
	)
)

// WriteTextfile writes the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
