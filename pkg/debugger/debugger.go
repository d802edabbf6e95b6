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

package debugger

import (
	"fmt"
	"io"

	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/sched"
)

var _ kernel.Tracer = (*Debugger)(nil)

func (dbg *Debugger) Alloc(addr heap.Addr, size uint32, k *kernel.Kernel) {
	if dbg.Trace {
		fmt.Fprintf(dbg.out(), "alloc %s %d\n", addr, size)
	}

	dbg.watch(addr, size, FreeWatch, k)
}

func (dbg *Debugger) Free(addr heap.Addr, k *kernel.Kernel) {
	var size uint32

	for _, block := range k.Heap.Blocks() {
		if block.Addr == addr {
			size = block.Size
			break
		}
	}

	if dbg.Trace {
		fmt.Fprintf(dbg.out(), "free  %s %d\n", addr, size)
	}

	dbg.watch(addr, size, AllocWatch, k)
}

func (dbg *Debugger) Switch(prev, next sched.TaskID, k *kernel.Kernel) {
	if dbg.Trace {
		fmt.Fprintf(dbg.out(), "switch %s -> %s\n", taskName(prev, k), taskName(next, k))
	}

	if next == sched.NoTask || dbg.HandleBreak == nil {
		return
	}

	if dbg.Break {
		dbg.HandleBreak(next, dbg, k)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Task == next {
			dbg.HandleBreak(next, dbg, k)
			break
		}
	}
}

// watch reports the first watchpoint inside [addr, addr+size) whose type is
// not skip.
func (dbg *Debugger) watch(addr heap.Addr, size uint32, skip WatchpointType, k *kernel.Kernel) {
	if dbg.HandleWatch == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == skip {
			continue
		}

		if contains(addr, size, watchpoint.Addr) {
			dbg.HandleWatch(watchpoint.Addr, watchpoint.Type, dbg, k)
			break
		}
	}
}

func (dbg *Debugger) PrintMem(h *heap.Heap, addr heap.Addr, count uint32) {
	out := dbg.out()
	data := h.Arena(addr, count)

	if len(data) == 0 {
		fmt.Fprintf(out, "No memory at %s\n", addr)
		return
	}

	for i, value := range data {
		if i == 0 {
			fmt.Fprintf(out, "\033[1m[%s]\033[0m ", addr)
		} else if i%8 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%s]\033[0m ", addr+heap.Addr(i))
		}

		if value == 0 {
			fmt.Fprintf(out, "\033[1;30m%02x\033[0m ", value)
		} else {
			fmt.Fprintf(out, "%02x ", value)
		}
	}

	fmt.Fprintln(out)
}

func (dbg *Debugger) PrintBlocks(h *heap.Heap) {
	out := dbg.out()

	for i, block := range h.Blocks() {
		state := "used"
		if block.Free {
			state = "free"
		}

		fmt.Fprintf(out, "#%02d: %s %8d %s\n", i, block.Addr, block.Size, state)
	}
}

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return io.Discard
	}

	return dbg.Out
}

func contains(start heap.Addr, size uint32, addr heap.Addr) bool {
	if size == 0 {
		return addr == start
	}

	return addr >= start && uint64(addr) < uint64(start)+uint64(size)
}

func taskName(id sched.TaskID, k *kernel.Kernel) string {
	if id == sched.NoTask {
		return "idle"
	}

	if t, ok := k.Sched.Task(id); ok && t.Name != "" {
		return fmt.Sprintf("%d:%s", id, t.Name)
	}

	return fmt.Sprint(int(id))
}
