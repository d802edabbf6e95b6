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
	"math"
	"strconv"

	"github.com/lassandro/divine/pkg/debugger"
	"github.com/lassandro/divine/pkg/encoding"
	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/sched"
)

const dumpSize = 64

func debugBreak(s *shell, args []string) {
	dbg := s.dbg

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [task#]"

		if len(args) != 1 {
			fmt.Fprintln(s.out, usage)
			return
		}

		id, err := encoding.DecodeInt(args[0])

		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}

		task := sched.TaskID(id)
		exists := false

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Task == task {
				exists = true
				break
			}
		}

		if !exists {
			dbg.Breakpoints = append(
				dbg.Breakpoints,
				debugger.Breakpoint{Task: task},
			)

			fmt.Fprintf(s.out, "Breakpoint added [task %d]\n", task)
		}

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			fmt.Fprintln(s.out, usage)
			return
		}

		fmtstring := indexFormat(len(dbg.Breakpoints), "task %d\n")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Fprintf(s.out, fmtstring, i, breakpoint.Task)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			fmt.Fprintln(s.out, usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			fmt.Fprintln(s.out, "Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		fmt.Fprintf(s.out, "Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Fprintln(s.out, "Breakpoints reset")

	case "step":
		dbg.Break = true
		fmt.Fprintln(s.out, "Breaking on the next task switch")

	default:
		fmt.Fprintf(s.out, "break: '%s' is not a valid command\n", cmd)
	}
}

func debugWatch(s *shell, args []string) {
	const usage = "watch [add|list|rm|clear]"

	dbg := s.dbg

	if len(args) == 0 {
		fmt.Fprintln(s.out, usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x########] [alloc|free|allocfree]"

		if len(args) != 2 {
			fmt.Fprintln(s.out, usage)
			return
		}

		value, err := encoding.DecodeHex(args[0])

		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}

		addr := heap.Addr(value)

		var wtype debugger.WatchpointType

		switch args[1] {
		case "a", "alloc":
			wtype = debugger.AllocWatch
		case "f", "free":
			wtype = debugger.FreeWatch
		case "af", "allocfree":
			wtype = debugger.AllocFreeWatch
		default:
			fmt.Fprintln(s.out, usage)
			return
		}

		exists := false

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				exists = true
				break
			}
		}

		if !exists {
			dbg.Watchpoints = append(
				dbg.Watchpoints,
				debugger.Watchpoint{Addr: addr, Type: wtype},
			)

			fmt.Fprintf(s.out, "Watchpoint added [%s] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			fmt.Fprintln(s.out, usage)
			return
		}

		fmtstring := indexFormat(len(dbg.Watchpoints), "%s %s\n")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Fprintf(s.out, fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			fmt.Fprintln(s.out, usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			fmt.Fprintln(s.out, "Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Fprintf(s.out, "Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Fprintln(s.out, "Watchpoints reset")

	default:
		fmt.Fprintf(s.out, "watch: '%s' is not a valid command\n", cmd)
	}
}

func debugDump(s *shell, args []string) {
	const usage = "x [0x########] [#]"

	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.out, usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	var count uint32 = dumpSize

	if len(args) > 1 {
		if count, err = encoding.DecodeNumber(args[1]); err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
	}

	s.dbg.PrintMem(s.k.Heap, heap.Addr(addr), count)
}

func debugTrace(s *shell, args []string) {
	const usage = "trace [on|off]"

	if len(args) > 1 {
		fmt.Fprintln(s.out, usage)
		return
	}

	if len(args) == 1 {
		switch args[0] {
		case "on":
			s.dbg.Trace = true
		case "off":
			s.dbg.Trace = false
		default:
			fmt.Fprintln(s.out, usage)
			return
		}
	}

	if s.dbg.Trace {
		fmt.Fprintln(s.out, "Tracing on")
	} else {
		fmt.Fprintln(s.out, "Tracing off")
	}
}

// indexFormat builds a "#NN: " prefixed format wide enough for n entries.
func indexFormat(n int, rest string) string {
	digits := math.Floor(math.Log10(float64(n + 1)))
	return fmt.Sprintf("#%%0%dd: ", int64(digits)+1) + rest
}
