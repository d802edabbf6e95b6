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
	"fmt"
	"io"

	"github.com/lassandro/divine/pkg/sched"
)

// WriteMem prints the arena totals in KB.
func (k *Kernel) WriteMem(w io.Writer) error {
	stats := k.Heap.Stats()

	_, err := fmt.Fprintf(
		w,
		"=== Memory ===\n"+
			"Total: %d KB\n"+
			"Used:  %d KB\n"+
			"Free:  %d KB\n",
		stats.Total/1024,
		stats.Used/1024,
		stats.Free/1024,
	)

	return err
}

func (k *Kernel) WriteTasks(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "=== Tasks ==="); err != nil {
		return err
	}

	return sched.WriteTable(w, k.Sched.Tasks())
}
