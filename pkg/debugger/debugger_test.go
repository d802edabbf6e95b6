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

package debugger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/divine/pkg/debugger"
	"github.com/lassandro/divine/pkg/device"
	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/sched"
)

type watchHit struct {
	Addr heap.Addr
	Type debugger.WatchpointType
}

func newDebugged(t *testing.T) (*kernel.Kernel, *debugger.Debugger) {
	t.Helper()

	dbg := &debugger.Debugger{}
	k, err := kernel.New(kernel.DefaultConfig(), &device.Bus{}, kernel.WithTracer(dbg))
	require.NoError(t, err)

	return k, dbg
}

func TestWatchpoints(t *testing.T) {
	k, dbg := newDebugged(t)

	var hits []watchHit
	dbg.HandleWatch = func(addr heap.Addr, wtype debugger.WatchpointType, _ *debugger.Debugger, _ *kernel.Kernel) {
		hits = append(hits, watchHit{addr, wtype})
	}

	first := heap.Addr(heap.DefaultBase + heap.HeaderSize)
	inside := first + 40

	dbg.Watchpoints = []debugger.Watchpoint{
		{Addr: inside, Type: debugger.AllocWatch},
		{Addr: inside, Type: debugger.FreeWatch},
	}

	addr := k.Alloc(64)
	require.Equal(t, first, addr)
	assert.Equal(t, []watchHit{{inside, debugger.AllocWatch}}, hits)

	// Outside the block.
	other := k.Alloc(8)
	require.NoError(t, k.Free(other))
	assert.Len(t, hits, 1)

	require.NoError(t, k.Free(addr))
	assert.Equal(t, []watchHit{
		{inside, debugger.AllocWatch},
		{inside, debugger.FreeWatch},
	}, hits)

	dbg.Watchpoints = []debugger.Watchpoint{{Addr: inside, Type: debugger.AllocFreeWatch}}
	hits = nil

	addr = k.Alloc(64)
	require.NoError(t, k.Free(addr))
	assert.Equal(t, []watchHit{
		{inside, debugger.AllocFreeWatch},
		{inside, debugger.AllocFreeWatch},
	}, hits)
}

func TestBreakpoints(t *testing.T) {
	k, dbg := newDebugged(t)

	var breaks []sched.TaskID
	dbg.HandleBreak = func(id sched.TaskID, dbg *debugger.Debugger, _ *kernel.Kernel) {
		breaks = append(breaks, id)
		dbg.Break = false
	}

	for _, name := range []string{"a", "b"} {
		_, err := k.Spawn(func() { k.Sched.Yield() }, name, 0)
		require.NoError(t, err)
	}

	dbg.Breakpoints = []debugger.Breakpoint{{Task: 1}}
	k.RunTasks()

	// b is switched in once by a's yield and once when a exits.
	assert.Equal(t, []sched.TaskID{1, 1}, breaks)

	breaks = nil
	dbg.Breakpoints = nil
	dbg.Break = true

	_, err := k.Spawn(nil, "c", 0)
	require.NoError(t, err)
	k.RunTasks()

	assert.Equal(t, []sched.TaskID{2}, breaks)
	assert.False(t, dbg.Break)
}

func TestTrace(t *testing.T) {
	k, dbg := newDebugged(t)

	var out bytes.Buffer
	dbg.Out = &out
	dbg.Trace = true

	_, err := k.Spawn(nil, "init", 0)
	require.NoError(t, err)
	k.RunTasks()

	assert.Equal(t,
		"alloc 0x0010000c 4096\n"+
			"switch idle -> 0:init\n"+
			"free  0x0010000c 4096\n"+
			"switch 0:init -> idle\n",
		out.String(),
	)
}

func TestPrintMem(t *testing.T) {
	k, dbg := newDebugged(t)

	var out bytes.Buffer
	dbg.Out = &out

	addr := k.Alloc(16)
	copy(k.Heap.Bytes(addr), "divine")

	dbg.PrintMem(k.Heap, addr, 9)
	assert.Equal(t,
		"\033[1m[0x0010000c]\033[0m 64 69 76 69 6e 65 "+
			"\033[1;30m00\033[0m \033[1;30m00\033[0m \n"+
			"\033[1m[0x00100014]\033[0m \033[1;30m00\033[0m \n",
		out.String(),
	)

	out.Reset()
	dbg.PrintMem(k.Heap, heap.Addr(0x10), 4)
	assert.Equal(t, "No memory at 0x00000010\n", out.String())
}

func TestPrintBlocks(t *testing.T) {
	k, dbg := newDebugged(t)

	var out bytes.Buffer
	dbg.Out = &out

	k.Alloc(100)
	dbg.PrintBlocks(k.Heap)

	assert.Equal(t,
		"#00: 0x0010000c      100 used\n"+
			"#01: 0x0010007c  1048452 free\n",
		out.String(),
	)
}
