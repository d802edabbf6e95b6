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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/divine/pkg/debugger"
	"github.com/lassandro/divine/pkg/device"
	"github.com/lassandro/divine/pkg/encoding"
	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/sched"
)

const (
	prompt     = "divine> "
	lineSize   = 256
	stepRounds = 3
)

type shell struct {
	k   *kernel.Kernel
	dbg *debugger.Debugger
	out io.Writer

	// ctx bounds key reads made on behalf of the debugger.
	ctx  context.Context
	quit bool
}

func newShell(cfg kernel.Config, bus *device.Bus, out io.Writer, tracers ...kernel.Tracer) (*shell, error) {
	s := &shell{
		dbg: &debugger.Debugger{Out: out},
		out: out,
		ctx: context.Background(),
	}

	s.dbg.HandleBreak = s.handleBreak
	s.dbg.HandleWatch = s.handleWatch

	tracer := append(kernel.Tracers{s.dbg}, tracers...)

	k, err := kernel.New(cfg, bus, kernel.WithTracer(tracer))
	if err != nil {
		return nil, err
	}

	bus.Attach(k.Keyboard.Handler)
	s.k = k

	return s, nil
}

func (s *shell) banner() {
	fmt.Fprint(s.out,
		"========================================\n"+
			"       divine - cooperative kernel      \n"+
			"========================================\n"+
			"\n"+
			"[OK] Heap allocator initialised\n"+
			"[OK] Keyboard driver initialised\n"+
			"[OK] Task scheduler initialised\n"+
			"\n"+
			"Type 'help' to get started.\n"+
			"\n",
	)
}

// interact is the mainline loop: it reads keys from the input queue, edits
// the current line and executes it on enter.
func (s *shell) interact(ctx context.Context) error {
	s.ctx = ctx
	defer func() { s.ctx = context.Background() }()

	s.banner()
	fmt.Fprint(s.out, prompt)

	line := make([]byte, 0, lineSize)

	for !s.quit {
		key, err := s.k.Keyboard.ReadKey(ctx)

		if err != nil {
			fmt.Fprintln(s.out)

			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		}

		switch {
		case key == '\n':
			fmt.Fprintln(s.out)
			s.exec(string(line))
			line = line[:0]

			if !s.quit {
				fmt.Fprint(s.out, prompt)
			}

		case key == '\b':
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(s.out, "\b \b")
			}

		case key >= 32 && key <= 126:
			if len(line) < lineSize-1 {
				line = append(line, key)
				s.out.Write([]byte{key})
			}
		}
	}

	return nil
}

func (s *shell) exec(line string) {
	args := strings.Fields(line)

	if len(args) == 0 {
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "help", "h", "?":
		s.help()

	case "clear":
		fmt.Fprint(s.out, "\033[2J\033[H")

	case "mem":
		s.k.WriteMem(s.out)

	case "tasks", "ps":
		s.k.WriteTasks(s.out)

	case "spawn":
		s.spawn(args)

	case "nap":
		s.nap(args)

	case "wake":
		s.wake(args)

	case "run":
		if !s.k.RunTasks() {
			fmt.Fprintln(s.out, "No runnable tasks")
		}

	case "alloc":
		s.alloc(args)

	case "free":
		s.free(args)

	case "blocks":
		s.dbg.PrintBlocks(s.k.Heap)

	case "x", "dump":
		debugDump(s, args)

	case "b", "break":
		debugBreak(s, args)

	case "w", "watch":
		debugWatch(s, args)

	case "trace":
		debugTrace(s, args)

	case "kbd":
		mods := s.k.Keyboard.Modifiers()
		fmt.Fprintf(
			s.out,
			"Buffered: %d\nDropped:  %d\nShift: %t Ctrl: %t Alt: %t\n",
			s.k.Keyboard.Buffered(),
			s.k.Keyboard.Dropped(),
			mods.Shift, mods.Ctrl, mods.Alt,
		)

	case "q", "quit", "exit":
		s.quit = true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s\nType 'help' to list commands.\n", cmd)
	}
}

func (s *shell) help() {
	fmt.Fprint(s.out,
		"divine commands:\n"+
			"  help                       - show this message\n"+
			"  clear                      - clear the screen\n"+
			"  mem                        - show memory usage\n"+
			"  tasks                      - list tasks\n"+
			"  spawn <name> [prio] [n]    - create a task that prints and yields n times\n"+
			"  nap <name> [prio]          - create a task that blocks until woken\n"+
			"  wake <id>                  - make a blocked task ready\n"+
			"  run                        - run tasks until none is ready\n"+
			"  alloc <size>               - allocate heap memory\n"+
			"  free <0xaddr>              - release heap memory\n"+
			"  blocks                     - show the heap block chain\n"+
			"  x <0xaddr> [n]             - dump heap memory\n"+
			"  break [add|list|rm|clear]  - break when a task is switched in\n"+
			"  watch [add|list|rm|clear]  - watch heap addresses\n"+
			"  trace [on|off]             - print allocator and scheduler events\n"+
			"  kbd                        - show keyboard queue state\n"+
			"  quit                       - leave the shell\n",
	)
}

func (s *shell) spawn(args []string) {
	const usage = "spawn <name> [prio] [n]"

	if len(args) < 1 || len(args) > 3 {
		fmt.Fprintln(s.out, usage)
		return
	}

	name := args[0]
	rounds := uint32(stepRounds)

	var priority uint32
	var err error

	if len(args) > 1 {
		if priority, err = encoding.DecodeInt(args[1]); err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
	}

	if len(args) > 2 {
		if rounds, err = encoding.DecodeInt(args[2]); err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
	}

	s.create(stepper(s.k, s.out, name, int(rounds)), name, priority)
}

func (s *shell) nap(args []string) {
	const usage = "nap <name> [prio]"

	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.out, usage)
		return
	}

	name := args[0]

	var priority uint32
	if len(args) > 1 {
		var err error
		if priority, err = encoding.DecodeInt(args[1]); err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
	}

	s.create(sleeper(s.k, s.out, name), name, priority)
}

func (s *shell) create(entry sched.Entry, name string, priority uint32) {
	id, err := s.k.Spawn(entry, name, priority)

	switch {
	case errors.Is(err, sched.ErrTableFull):
		fmt.Fprintln(s.out, "Task limit reached")
	case errors.Is(err, sched.ErrNoStack):
		fmt.Fprintln(s.out, "Not enough memory for a task stack")
	case err != nil:
		fmt.Fprintln(s.out, err)
	default:
		fmt.Fprintf(s.out, "Task %d created\n", id)
	}
}

func (s *shell) wake(args []string) {
	const usage = "wake <id>"

	if len(args) != 1 {
		fmt.Fprintln(s.out, usage)
		return
	}

	id, err := encoding.DecodeInt(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	if err := s.k.Sched.Wake(sched.TaskID(id)); err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	fmt.Fprintf(s.out, "Task %d ready\n", id)
}

func (s *shell) alloc(args []string) {
	const usage = "alloc <size>"

	if len(args) != 1 {
		fmt.Fprintln(s.out, usage)
		return
	}

	size, err := encoding.DecodeNumber(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	addr := s.k.Alloc(size)
	if addr == heap.Nil {
		fmt.Fprintln(s.out, "Allocation failed")
		return
	}

	fmt.Fprintln(s.out, addr)
}

func (s *shell) free(args []string) {
	const usage = "free <0xaddr>"

	if len(args) != 1 {
		fmt.Fprintln(s.out, usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	if err := s.k.Free(heap.Addr(addr)); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

// handleBreak runs on the task being switched in and waits for the user
// before letting it continue.
func (s *shell) handleBreak(id sched.TaskID, dbg *debugger.Debugger, k *kernel.Kernel) {
	t, _ := k.Sched.Task(id)
	fmt.Fprintf(s.out, "Break: task %d (%s) [s]tep [c]ontinue\n", id, t.Name)

	for {
		key, err := k.Keyboard.ReadKey(s.ctx)

		if err != nil {
			dbg.Break = false
			return
		}

		switch key {
		case 's':
			dbg.Break = true
			return
		case 'c', '\n':
			dbg.Break = false
			return
		}
	}
}

func (s *shell) handleWatch(addr heap.Addr, wtype debugger.WatchpointType, dbg *debugger.Debugger, k *kernel.Kernel) {
	by := "idle"
	if t, ok := k.Sched.Current(); ok {
		by = fmt.Sprintf("task %d (%s)", t.ID, t.Name)
	}

	fmt.Fprintf(s.out, "Watch: %s %s by %s\n", addr, wtype, by)
}
