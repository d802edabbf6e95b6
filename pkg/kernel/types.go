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
	"log/slog"

	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/keyboard"
	"github.com/lassandro/divine/pkg/sched"
)

// Tracer observes the kernel. Calls arrive on whichever context triggered
// the event, before the event takes effect for Free and Switch.
type Tracer interface {
	Alloc(addr heap.Addr, size uint32, k *Kernel)
	Free(addr heap.Addr, k *Kernel)
	Switch(prev, next sched.TaskID, k *Kernel)
}

// Tracers hands every event to each of its tracers in order.
type Tracers []Tracer

func (ts Tracers) Alloc(addr heap.Addr, size uint32, k *Kernel) {
	for _, t := range ts {
		t.Alloc(addr, size, k)
	}
}

func (ts Tracers) Free(addr heap.Addr, k *Kernel) {
	for _, t := range ts {
		t.Free(addr, k)
	}
}

func (ts Tracers) Switch(prev, next sched.TaskID, k *Kernel) {
	for _, t := range ts {
		t.Switch(prev, next, k)
	}
}

// Kernel is the context object shared by every kernel operation.
type Kernel struct {
	Config   Config
	Heap     *heap.Heap
	Sched    *sched.Scheduler
	Keyboard *keyboard.Keyboard
	Tracer   Tracer

	// BootID tags every log record of this instance.
	BootID string

	log *slog.Logger
	cpu *cpu
}

type Option func(*Kernel)

func WithLogger(log *slog.Logger) Option {
	return func(k *Kernel) {
		k.log = log
	}
}

func WithTracer(tracer Tracer) Option {
	return func(k *Kernel) {
		k.Tracer = tracer
	}
}
