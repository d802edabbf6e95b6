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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lassandro/divine/pkg/debugger"
	"github.com/lassandro/divine/pkg/device"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/sched"
)

type demoOptions struct {
	Tasks  int
	Rounds int
	Nap    bool
	Trace  bool
	Breaks []int
}

var demoopts demoOptions

func init() {
	cmd := newDemoCmd()
	cmd.Flags().IntVarP(&demoopts.Tasks, "tasks", "n", 3, "Number of stepping tasks")
	cmd.Flags().IntVarP(&demoopts.Rounds, "rounds", "r", 3, "Yields per stepping task")
	cmd.Flags().BoolVar(&demoopts.Nap, "nap", true, "Add a task that blocks until another task wakes it")
	cmd.Flags().BoolVar(&demoopts.Trace, "trace", false, "Print allocator and scheduler events")
	cmd.Flags().IntSliceVar(&demoopts.Breaks, "break", nil, "Report when these task ids are switched in")
	rootCmd.AddCommand(cmd)
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted set of cooperative tasks",
		Long: `The demo command boots the kernel, creates a few tasks that print and
yield, runs them to completion and prints the task table and memory report.

Example:
  divine demo
  divine demo --tasks 5 --rounds 2 --trace
  divine demo --break 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tracers, flush, err := openTelemetry(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer flush()

			return runDemo(cfg, demoopts, cmd.OutOrStdout(), tracers...)
		},
	}
}

func runDemo(cfg kernel.Config, opts demoOptions, out io.Writer, tracers ...kernel.Tracer) error {
	dbg := &debugger.Debugger{Out: out, Trace: opts.Trace}

	for _, id := range opts.Breaks {
		dbg.Breakpoints = append(dbg.Breakpoints, debugger.Breakpoint{Task: sched.TaskID(id)})
	}

	dbg.HandleBreak = func(id sched.TaskID, _ *debugger.Debugger, k *kernel.Kernel) {
		t, _ := k.Sched.Task(id)
		fmt.Fprintf(out, "Break: task %d (%s)\n", id, t.Name)
	}

	tracer := append(kernel.Tracers{dbg}, tracers...)

	k, err := kernel.New(cfg, &device.Bus{}, kernel.WithTracer(tracer))
	if err != nil {
		return err
	}
	defer k.Shutdown()

	napper := sched.NoTask

	if opts.Nap {
		if napper, err = k.Spawn(sleeper(k, out, "sleeper"), "sleeper", 0); err != nil {
			return err
		}
	}

	for i := 0; i < opts.Tasks; i++ {
		name := fmt.Sprintf("worker-%d", i)

		if _, err := k.Spawn(stepper(k, out, name, opts.Rounds), name, uint32(i)); err != nil {
			return err
		}
	}

	if opts.Nap {
		if _, err := k.Spawn(waker(k, out, "waker", napper), "waker", 0); err != nil {
			return err
		}
	}

	k.RunTasks()

	if err := k.WriteTasks(out); err != nil {
		return err
	}

	return k.WriteMem(out)
}
