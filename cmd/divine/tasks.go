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
	"io"

	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/sched"
)

// stepper prints a line and yields, rounds times.
func stepper(k *kernel.Kernel, out io.Writer, name string, rounds int) sched.Entry {
	return func() {
		for i := 1; i <= rounds; i++ {
			fmt.Fprintf(out, "[%s] step %d/%d\n", name, i, rounds)
			k.Sched.Yield()
		}
	}
}

// sleeper blocks once and finishes after somebody wakes it.
func sleeper(k *kernel.Kernel, out io.Writer, name string) sched.Entry {
	return func() {
		fmt.Fprintf(out, "[%s] sleeping\n", name)

		if err := k.Sched.Block(); err != nil {
			fmt.Fprintf(out, "[%s] %v\n", name, err)
			return
		}

		fmt.Fprintf(out, "[%s] awake\n", name)
	}
}

// waker makes id ready again, then yields so that it gets to run.
func waker(k *kernel.Kernel, out io.Writer, name string, id sched.TaskID) sched.Entry {
	return func() {
		fmt.Fprintf(out, "[%s] waking task %d\n", name, id)

		if err := k.Sched.Wake(id); err != nil {
			fmt.Fprintf(out, "[%s] %v\n", name, err)
		}

		k.Sched.Yield()
	}
}
