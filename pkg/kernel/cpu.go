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
	"runtime"
	"sync"

	"github.com/lassandro/divine/pkg/sched"
)

// cpu switches context by running every task on its own goroutine and
// passing a single baton between them over unbuffered channels. The idle
// context is whatever goroutine called into the scheduler with no task
// running.
type cpu struct {
	k    *Kernel
	idle chan struct{}

	mu     sync.Mutex
	resume map[sched.TaskID]chan struct{}
	halted bool
}

func newCPU(k *Kernel) *cpu {
	return &cpu{
		k:      k,
		idle:   make(chan struct{}),
		resume: make(map[sched.TaskID]chan struct{}),
	}
}

func (c *cpu) Switch(prev, next sched.TaskID) {
	if c.k.Tracer != nil {
		c.k.Tracer.Switch(prev, next, c.k)
	}

	// Everything about prev is read before next starts running.
	var exiting bool
	var parked chan struct{}

	if prev != sched.NoTask {
		t, _ := c.k.Sched.Task(prev)
		exiting = t.State == sched.Terminated

		c.mu.Lock()
		parked = c.resume[prev]
		if exiting {
			delete(c.resume, prev)
		}
		c.mu.Unlock()
	}

	c.dispatch(next)

	switch {
	case prev == sched.NoTask:
		<-c.idle
	case exiting:
		runtime.Goexit()
	default:
		// A closed channel means the kernel shut down while prev was parked.
		if _, ok := <-parked; !ok {
			runtime.Goexit()
		}
	}
}

func (c *cpu) dispatch(next sched.TaskID) {
	if next == sched.NoTask {
		c.idle <- struct{}{}
		return
	}

	c.mu.Lock()
	ch, started := c.resume[next]
	if !started {
		ch = make(chan struct{})
		c.resume[next] = ch
	}
	c.mu.Unlock()

	if started {
		ch <- struct{}{}
		return
	}

	t, _ := c.k.Sched.Task(next)
	go c.run(t.Entry)
}

// run is the bottom frame of every task. Exit switches away for good, so
// nothing after it runs.
func (c *cpu) run(entry sched.Entry) {
	if entry != nil {
		entry()
	}

	_ = c.k.Exit()
}

// halt releases the goroutine of every task that is parked mid-run. It must
// be called from the idle context.
func (c *cpu) halt() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.halted = true

	n := len(c.resume)
	for id, ch := range c.resume {
		close(ch)
		delete(c.resume, id)
	}

	return n
}

func (c *cpu) isHalted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.halted
}
