// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger returns a slog logger writing through a charm log handler.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Prefix: "cargo-wapm",
		Level:  log.Level(level),
	})
	return slog.New(handler)
}
