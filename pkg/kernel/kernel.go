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

package kernel

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lassandro/divine/internal/logger"
	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/keyboard"
	"github.com/lassandro/divine/pkg/sched"
)

// New initialises the heap, the scheduler and the keyboard queue. port is the
// I/O space the keyboard interrupt handler reads from; the caller delivers
// IRQ1 by invoking k.Keyboard.Handler.
func New(cfg Config, port keyboard.Port, opts ...Option) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := &Kernel{
		Config: cfg,
		BootID: uuid.NewString(),
		log:    logger.L,
	}

	for _, opt := range opts {
		opt(k)
	}

	k.log = k.log.With("boot", k.BootID)

	var err error

	if k.Heap, err = heap.New(cfg.HeapBase, cfg.HeapSize); err != nil {
		return nil, fmt.Errorf("kernel: heap: %w", err)
	}

	if k.Keyboard, err = keyboard.New(port, cfg.KeyBuffer); err != nil {
		return nil, fmt.Errorf("kernel: keyboard: %w", err)
	}

	k.cpu = newCPU(k)
	k.Sched = sched.New(
		k,
		sched.WithCapacity(cfg.MaxTasks),
		sched.WithStackSize(cfg.StackSize),
		sched.WithSwitcher(k.cpu),
	)

	k.log.Info(
		"kernel initialised",
		"heapBase", heap.Addr(cfg.HeapBase).String(),
		"heapSize", cfg.HeapSize,
		"maxTasks", cfg.MaxTasks,
		"keyBuffer", cfg.KeyBuffer,
	)

	return k, nil
}

// Alloc is the kernel allocator. Task stacks come from here as well.
func (k *Kernel) Alloc(size uint32) heap.Addr {
	addr := k.Heap.Alloc(size)

	if addr == heap.Nil {
		if size != 0 {
			k.log.Debug("allocation failed", "size", size, "free", k.Heap.Available())
		}
		return heap.Nil
	}

	if k.Tracer != nil {
		k.Tracer.Alloc(addr, size, k)
	}

	return addr
}

// Free releases a block handed out by Alloc. The stack of a task that has
// not terminated belongs to that task and is refused. Failures are logged
// here because a task's own stack is released on a path that never returns
// to it.
func (k *Kernel) Free(addr heap.Addr) error {
	if addr == heap.Nil {
		return nil
	}

	if id, ok := k.stackOwner(addr); ok {
		k.log.Warn("refusing to free a live task stack", "addr", addr.String(), "task", id)
		return fmt.Errorf("%w: %s belongs to task %d", ErrTaskStack, addr, id)
	}

	if k.Tracer != nil {
		k.Tracer.Free(addr, k)
	}

	if err := k.Heap.Free(addr); err != nil {
		k.log.Error("free failed", "addr", addr.String(), "err", err)
		return err
	}

	return nil
}

func (k *Kernel) stackOwner(addr heap.Addr) (sched.TaskID, bool) {
	for _, t := range k.Sched.Tasks() {
		if t.State != sched.Terminated && t.Stack == addr {
			return t.ID, true
		}
	}

	return sched.NoTask, false
}

// Spawn creates a task and reports table or memory exhaustion.
func (k *Kernel) Spawn(entry sched.Entry, name string, priority uint32) (sched.TaskID, error) {
	id, err := k.Sched.Create(entry, name, priority)

	switch {
	case errors.Is(err, sched.ErrTableFull):
		k.log.Warn("task limit reached", "name", name, "capacity", k.Sched.Capacity())
	case errors.Is(err, sched.ErrNoStack):
		k.log.Error(
			"no memory for task stack",
			"name", name,
			"stackSize", k.Sched.StackSize(),
			"free", k.Heap.Available(),
		)
	case err == nil:
		k.log.Info("task created", "id", id, "name", name, "priority", priority)
	}

	return id, err
}

// Exit terminates the calling task. Called from a task switched in by the
// kernel it does not return.
func (k *Kernel) Exit() error {
	if current, ok := k.Sched.Current(); ok {
		k.log.Info("task exited", "id", current.ID, "name", current.Name)
	}

	return k.Sched.Exit()
}

// RunTasks hands the processor from the idle context to the next Ready task
// and returns once no task is left to run. It reports whether any task ran.
// After Shutdown it does nothing.
func (k *Kernel) RunTasks() bool {
	if k.cpu.isHalted() {
		return false
	}

	_, switched := k.Sched.Schedule()
	return switched
}

// Shutdown ends the goroutines of tasks that are parked mid-run, such as
// blocked tasks or tasks that yielded and never got the processor back. The
// task table is left as it was. Call it from the idle context once the
// kernel is no longer needed; RunTasks does nothing afterwards.
func (k *Kernel) Shutdown() {
	if n := k.cpu.halt(); n > 0 {
		k.log.Info("kernel shut down", "parked", n)
	}
}
