// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// SlogLevel returns the configured slog level. Unknown names map to info;
// Validate rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger writing to w. The auto format
// picks text when w is a terminal and JSON otherwise.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: l.SlogLevel()}
	format := l.Format
	if format == "auto" {
		format = "json"
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			format = "text"
		}
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	return slog.New(handler)
}
