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

import (
	"fmt"
	"strings"

	"github.com/lassandro/divine/pkg/heap"
)

func New(alloc Allocator, opts ...Option) *Scheduler {
	s := &Scheduler{
		alloc:     alloc,
		capacity:  DefaultCapacity,
		stackSize: DefaultStackSize,
		current:   -1,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.tasks = make([]Task, 0, s.capacity)

	return s
}

// Create claims the next table slot for a Ready task with its own stack. On
// failure the table is left untouched.
func (s *Scheduler) Create(entry Entry, name string, priority uint32) (TaskID, error) {
	if len(s.tasks) >= s.capacity {
		return NoTask, ErrTableFull
	}

	stack := s.alloc.Alloc(s.stackSize)
	if stack == heap.Nil {
		return NoTask, ErrNoStack
	}

	id := TaskID(len(s.tasks))
	s.tasks = append(s.tasks, Task{
		ID:       id,
		Name:     truncateName(name),
		State:    Ready,
		Priority: priority,
		Entry:    entry,
		Stack:    stack,
		StackTop: uint32(stack) + s.stackSize,
	})

	return id, nil
}

// Schedule picks the next Ready task after the current one in table order
// and makes it the running task. It returns the running task after the
// decision and whether the decision changed it.
func (s *Scheduler) Schedule() (TaskID, bool) {
	if len(s.tasks) == 0 {
		return NoTask, false
	}

	next, ok := s.pick()
	if !ok {
		return s.running(), false
	}

	prev := s.running()
	if prev != NoTask {
		s.tasks[prev].State = Ready
	}

	s.promote(next)
	s.switchTo(prev, next)

	return next, true
}

// Yield gives up the processor voluntarily.
func (s *Scheduler) Yield() (TaskID, bool) {
	return s.Schedule()
}

// Exit terminates the running task, returns its stack and schedules a
// replacement. When a Switcher is installed Exit does not return to the
// exiting task.
func (s *Scheduler) Exit() error {
	prev := s.running()
	if prev == NoTask {
		return ErrNoCurrentTask
	}

	t := &s.tasks[prev]
	t.State = Terminated

	err := s.alloc.Free(t.Stack)
	if err != nil {
		err = fmt.Errorf("sched: releasing stack of task %d: %w", prev, err)
	}

	t.Stack = heap.Nil

	s.reschedule(prev)

	return err
}

// Block parks the running task until Wake is called for it.
func (s *Scheduler) Block() error {
	prev := s.running()
	if prev == NoTask {
		return ErrNoCurrentTask
	}

	s.tasks[prev].State = Blocked
	s.reschedule(prev)

	return nil
}

// Wake makes a blocked task Ready again. It does not schedule.
func (s *Scheduler) Wake(id TaskID) error {
	if !s.valid(id) {
		return ErrNoTask
	}

	if s.tasks[id].State != Blocked {
		return ErrNotBlocked
	}

	s.tasks[id].State = Ready

	return nil
}

// Current returns the running task, if any.
func (s *Scheduler) Current() (Task, bool) {
	if id := s.running(); id != NoTask {
		return s.tasks[id], true
	}

	return Task{}, false
}

func (s *Scheduler) Task(id TaskID) (Task, bool) {
	if !s.valid(id) {
		return Task{}, false
	}

	return s.tasks[id], true
}

// Tasks returns a copy of the task table in creation order.
func (s *Scheduler) Tasks() []Task {
	return append([]Task(nil), s.tasks...)
}

func (s *Scheduler) Len() int {
	return len(s.tasks)
}

func (s *Scheduler) Capacity() int {
	return s.capacity
}

func (s *Scheduler) StackSize() uint32 {
	return s.stackSize
}

// pick scans at most one lap of the table starting after current.
func (s *Scheduler) pick() (TaskID, bool) {
	n := len(s.tasks)
	next := (s.current + 1) % n

	for attempts := 0; s.tasks[next].State != Ready && attempts < n; attempts++ {
		next = (next + 1) % n
	}

	if s.tasks[next].State != Ready {
		return NoTask, false
	}

	return TaskID(next), true
}

// reschedule replaces prev, which has already left the Running state.
func (s *Scheduler) reschedule(prev TaskID) {
	next, ok := s.pick()
	if ok {
		s.promote(next)
	} else {
		next = NoTask
	}

	s.switchTo(prev, next)
}

func (s *Scheduler) promote(next TaskID) {
	s.tasks[next].State = Running
	s.current = int(next)
}

func (s *Scheduler) switchTo(prev, next TaskID) {
	if s.switcher != nil && prev != next {
		s.switcher.Switch(prev, next)
	}
}

func (s *Scheduler) running() TaskID {
	if s.current >= 0 && s.current < len(s.tasks) &&
		s.tasks[s.current].State == Running {
		return TaskID(s.current)
	}

	return NoTask
}

func (s *Scheduler) valid(id TaskID) bool {
	return id >= 0 && int(id) < len(s.tasks)
}

func truncateName(name string) string {
	if i := strings.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	if len(name) > NameWidth {
		name = name[:NameWidth]
	}

	return name
}
