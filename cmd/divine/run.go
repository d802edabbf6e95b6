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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	tty "github.com/mattn/go-tty"
	"github.com/spf13/cobra"

	"github.com/lassandro/divine/internal/logger"
	"github.com/lassandro/divine/pkg/device"
)

// endOfTransmission (^D) ends the session in raw mode.
const endOfTransmission = 0x04

var devicevar string

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVarP(&devicevar, "device", "d", "", "Serve the shell on a terminal device such as /dev/ttyUSB0")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Boot the kernel and start the interactive shell",
		Long: `The run command boots the kernel and attaches the terminal to its
keyboard. Every byte read from the terminal is typed into a simulated PS/2
controller, which raises IRQ1 so that the keyboard interrupt handler fills
the input queue. The shell reads the queue from the mainline.

Example:
  divine run
  divine run --config divine.yaml --verbose
  divine run --device /dev/ttyUSB0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), cmd.ErrOrStderr())
		},
	}
}

func runShell(ctx context.Context, stderr io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tracers, flush, err := openTelemetry(stderr)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var next func() (byte, error)
	var out io.Writer

	if devicevar != "" {
		t, err := tty.OpenDevice(devicevar)
		if err != nil {
			return fmt.Errorf("opening %s: %w", devicevar, err)
		}
		defer t.Close()

		restore, err := t.Raw()
		if err != nil {
			return fmt.Errorf("raw mode on %s: %w", devicevar, err)
		}
		defer restore()

		next = func() (byte, error) {
			for {
				r, err := t.ReadRune()
				if err != nil {
					return 0, err
				}

				if r < utf8.RuneSelf {
					return byte(r), nil
				}
			}
		}
		out = crlfWriter{t.Output()}
	} else {
		fd := int(os.Stdin.Fd())
		out = os.Stdout

		if isTerminal(fd) {
			if err := enterRawTerm(fd); err != nil {
				return err
			}
			defer exitRawTerm(fd)

			out = crlfWriter{os.Stdout}
		}

		next = bufio.NewReader(os.Stdin).ReadByte
	}

	bus := &device.Bus{}

	sh, err := newShell(cfg, bus, out, tracers...)
	if err != nil {
		return err
	}
	defer sh.k.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()

		if err := feed(bus, next); err != nil && err != io.EOF {
			logger.L.Error("terminal input stopped", "err", err)
		}
	}()

	return sh.interact(ctx)
}

// feed plays the keyboard: each byte becomes scan codes on the bus, and the
// calling goroutine serves as interrupt context.
func feed(bus *device.Bus, next func() (byte, error)) error {
	for {
		c, err := next()
		if err != nil {
			return err
		}

		if c == endOfTransmission {
			return io.EOF
		}

		if err := bus.Type(c); err != nil {
			logger.L.Debug("key not delivered", "key", c, "err", err)
		}
	}
}
