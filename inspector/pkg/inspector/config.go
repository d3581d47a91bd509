package inspector

import (
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/jvlake/inspector/pkg/report"
	"github.com/malbeclabs/jvlake/inspector/pkg/store"
)

const (
	DefaultTableToken = "RACE"
	DefaultExt        = ".parquet"
)

type Config struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	Store  store.Store

	// Root is the directory within the store that holds year=YYYY partitions.
	Root string
	// Year selects the partition to scan. Zero means the current year.
	Year       int
	Ext        string
	TableToken string

	// Reporter overrides the default report settings.
	Reporter *report.Reporter
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Year < 0 {
		return errors.New("year must not be negative")
	}
	if cfg.Ext == "" {
		cfg.Ext = DefaultExt
	}
	if cfg.TableToken == "" {
		cfg.TableToken = DefaultTableToken
	}
	if cfg.Reporter == nil {
		cfg.Reporter = report.NewReporter()
	}
	return nil
}
