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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lassandro/divine/internal/logger"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/telemetry"
)

var (
	configvar  string
	verbosevar bool
	jsonvar    bool
	otelvar    string
)

var rootCmd = &cobra.Command{
	Use:   "divine",
	Short: "A small cooperative kernel core running in user space",
	Long: `divine boots a heap allocator, a round-robin task scheduler and an
interrupt-fed keyboard queue inside one process, then drives them from an
interactive shell or a scripted demo.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbosevar {
			level = slog.LevelDebug
		}

		logger.Init(logger.Options{
			Enabled: verbosevar || jsonvar,
			Output:  cmd.ErrOrStderr(),
			Level:   level,
			JSON:    jsonvar,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configvar, "config", "c", "", "YAML file overriding the boot configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbosevar, "verbose", "v", false, "Log kernel events to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonvar, "log-json", false, "Log kernel events as JSON")
	rootCmd.PersistentFlags().StringVar(&otelvar, "otel", "", "Write OpenTelemetry spans to this file, - for stderr")
}

func loadConfig() (kernel.Config, error) {
	if configvar == "" {
		return kernel.DefaultConfig(), nil
	}

	return kernel.LoadConfig(configvar)
}

// openTelemetry returns the tracers selected by --otel and a function that
// flushes them.
func openTelemetry(stderr io.Writer) ([]kernel.Tracer, func(), error) {
	if otelvar == "" {
		return nil, func() {}, nil
	}

	w := stderr
	var file *os.File

	if otelvar != "-" {
		var err error
		if file, err = os.Create(otelvar); err != nil {
			return nil, nil, err
		}
		w = file
	}

	provider, err := telemetry.NewProvider(w)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, nil, err
	}

	flush := func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			fmt.Fprintln(stderr, err)
		}

		if file != nil {
			file.Close()
		}
	}

	return []kernel.Tracer{telemetry.New(provider)}, flush, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
