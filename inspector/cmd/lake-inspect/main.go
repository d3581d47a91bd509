package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/jvlake/inspector/pkg/inspector"
	"github.com/malbeclabs/jvlake/inspector/pkg/metrics"
	"github.com/malbeclabs/jvlake/inspector/pkg/store"
	"github.com/malbeclabs/jvlake/utils/pkg/logger"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	storeLocal = "local"
	storeS3    = "s3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	// Lake layout
	rootFlag := flag.String("root", "", "lake root directory, or key prefix for --store=s3 (or set LAKE_ROOT env var)")
	recordSpecFlag := flag.String("record-spec", "RA", "record spec directory under the root (or set LAKE_RECORD_SPEC env var)")
	yearFlag := flag.Int("year", 0, "year partition to scan (0 = current year) (or set LAKE_YEAR env var)")
	tableTokenFlag := flag.String("table-token", inspector.DefaultTableToken, "token a file name must contain (or set LAKE_TABLE_TOKEN env var)")
	extFlag := flag.String("ext", inspector.DefaultExt, "data file extension")

	// Store
	storeFlag := flag.String("store", storeLocal, "directory store: local or s3 (or set LAKE_STORE env var)")
	s3BucketFlag := flag.String("s3-bucket", "", "S3 bucket (or set LAKE_S3_BUCKET env var)")
	s3RegionFlag := flag.String("s3-region", "", "S3 region (or set AWS_REGION env var)")
	s3EndpointFlag := flag.String("s3-endpoint", "", "custom S3 endpoint, e.g. for MinIO or LocalStack (or set LAKE_S3_ENDPOINT env var)")
	s3PathStyleFlag := flag.Bool("s3-path-style", false, "use path-style S3 addressing")

	// Reporting
	metricsTextfileFlag := flag.String("metrics-textfile", "", "write scan metrics to this node-exporter textfile (or set LAKE_METRICS_TEXTFILE env var)")
	sentryDSNFlag := flag.String("sentry-dsn", "", "report failures to Sentry (or set SENTRY_DSN env var)")

	flag.Parse()

	if v := os.Getenv("LAKE_ROOT"); v != "" {
		*rootFlag = v
	}
	if v, ok := os.LookupEnv("LAKE_RECORD_SPEC"); ok {
		*recordSpecFlag = v
	}
	if v := os.Getenv("LAKE_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LAKE_YEAR %q: %w", v, err)
		}
		*yearFlag = year
	}
	if v := os.Getenv("LAKE_TABLE_TOKEN"); v != "" {
		*tableTokenFlag = v
	}
	if v := os.Getenv("LAKE_STORE"); v != "" {
		*storeFlag = v
	}
	if v := os.Getenv("LAKE_S3_BUCKET"); v != "" {
		*s3BucketFlag = v
	}
	if v := os.Getenv("LAKE_S3_ENDPOINT"); v != "" {
		*s3EndpointFlag = v
	}
	if v := os.Getenv("LAKE_METRICS_TEXTFILE"); v != "" {
		*metricsTextfileFlag = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		*sentryDSNFlag = v
	}

	log := logger.New(os.Stderr, *verboseFlag)
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	if *sentryDSNFlag != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:     *sentryDSNFlag,
			Release: version,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		s    store.Store
		root string
	)
	switch *storeFlag {
	case storeLocal:
		if *rootFlag == "" {
			return fmt.Errorf("--root is required for --store=%s", storeLocal)
		}
		s = store.NewLocal(*rootFlag)
		root = *recordSpecFlag
	case storeS3:
		s3Store, err := store.NewS3(ctx, store.S3Config{
			Bucket:       *s3BucketFlag,
			Region:       *s3RegionFlag,
			Endpoint:     *s3EndpointFlag,
			UsePathStyle: *s3PathStyleFlag,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 store: %w", err)
		}
		s = s3Store
		root = path.Join(*rootFlag, *recordSpecFlag)
	default:
		return fmt.Errorf("--store must be %q or %q, got: %s", storeLocal, storeS3, *storeFlag)
	}

	insp, err := inspector.New(inspector.Config{
		Logger:     log,
		Clock:      clockwork.NewRealClock(),
		Store:      s,
		Root:       root,
		Year:       *yearFlag,
		Ext:        *extFlag,
		TableToken: *tableTokenFlag,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	scan, scanErr := insp.Scan(ctx)

	if *metricsTextfileFlag != "" {
		if err := metrics.WriteTextfile(*metricsTextfileFlag); err != nil {
			log.Error("failed to export metrics", "path", *metricsTextfileFlag, "error", err)
		}
	}

	switch scan.Outcome {
	case inspector.OutcomeReport, inspector.OutcomeSchemaDiagnostic:
		return inspector.Print(os.Stdout, scan)
	case inspector.OutcomeNoFiles, inspector.OutcomeNoMatchingFiles:
		// Missing recent data is an answer for the operator, not a fault.
		fmt.Fprintln(os.Stdout, inspector.Describe(scan, scanErr))
		return nil
	default:
		if scanErr == nil {
			scanErr = errors.New("scan ended without a result")
		}
		if *sentryDSNFlag != "" {
			sentry.CaptureException(scanErr)
		}
		return errors.New(inspector.Describe(scan, scanErr))
	}
}
