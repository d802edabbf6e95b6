// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package logger

import (
	"io"
	"log/slog"
	"os"
)

// L is the process-wide logger. It discards everything until Init is called.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

type Options struct {
	Enabled bool       // If false, all logging is discarded
	Output  io.Writer  // Default: os.Stderr
	Level   slog.Level // Minimum level, LevelInfo unless set
	JSON    bool
}

// Init replaces L according to opts.
func Init(opts Options) {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	if opts.JSON {
		L = slog.New(slog.NewJSONHandler(out, handlerOpts))
	} else {
		L = slog.New(slog.NewTextHandler(out, handlerOpts))
	}
}
