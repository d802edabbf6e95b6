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
	"io"

	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/sched"
)

type WatchpointType uint

const (
	AllocWatch WatchpointType = iota
	FreeWatch
	AllocFreeWatch
)

func (t WatchpointType) String() string {
	switch t {
	case AllocWatch:
		return "alloc"
	case FreeWatch:
		return "free"
	case AllocFreeWatch:
		return "allocfree"
	default:
		return "unknown"
	}
}

// Watchpoint fires when a block containing Addr is handed out or released.
type Watchpoint struct {
	Addr heap.Addr
	Type WatchpointType
}

// Breakpoint fires when Task is switched in.
type Breakpoint struct {
	Task sched.TaskID
}

type Debugger struct {
	Break bool

	// Trace writes every traced event to Out.
	Trace bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Out io.Writer

	HandleBreak func(sched.TaskID, *Debugger, *kernel.Kernel)
	HandleWatch func(heap.Addr, WatchpointType, *Debugger, *kernel.Kernel)
}
