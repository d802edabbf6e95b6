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

package sched

import "github.com/lassandro/divine/pkg/heap"

type TaskID int

// NoTask stands for the idle context: no task is running.
const NoTask TaskID = -1

type State uint8

const (
	Ready State = iota
	Running
	Blocked
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Terminated:
		return "TERM"
	default:
		return "UNKNOWN"
	}
}

// Entry is the code a task resumes into the first time it is switched in.
type Entry func()

type Task struct {
	ID       TaskID
	Name     string
	State    State
	Priority uint32
	Entry    Entry

	// Stack is the base of the task's stack region, owned until the task
	// terminates. StackTop is the initial stack pointer.
	Stack    heap.Addr
	StackTop uint32
}

// Allocator provisions task stacks.
type Allocator interface {
	Alloc(size uint32) heap.Addr
	Free(addr heap.Addr) error
}

// Switcher transfers execution between tasks. It is called exactly when the
// running task changes; either side may be NoTask. The call returns in the
// context of prev once prev is switched back in.
type Switcher interface {
	Switch(prev, next TaskID)
}

type Scheduler struct {
	alloc    Allocator
	switcher Switcher

	tasks     []Task
	capacity  int
	stackSize uint32

	// current is the table index chosen by the last decision; the round
	// robin resumes after it even when that task has stopped running.
	current int
}
