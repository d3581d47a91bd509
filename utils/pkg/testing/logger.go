// Package laketesting holds helpers shared by the lake test suites.
package laketesting

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// NewLogger returns a test logger. Output is suppressed below error level unless DEBUG is set
// ("1" for info, "2" for debug).
func NewLogger() *slog.Logger {
	var level slog.Level
	switch os.Getenv("DEBUG") {
	case "2":
		level = slog.LevelDebug
	case "1":
		level = slog.LevelInfo
	default:
		level = slog.LevelError
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, NoColor: true}))
}
