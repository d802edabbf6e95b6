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
	"io"
)

// WriteTable renders tasks in the layout of the shell's task listing.
func WriteTable(w io.Writer, tasks []Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	if _, err := fmt.Fprintf(
		w,
		"ID  Name                State      Priority\n"+
			"--- ------------------- ---------- --------\n",
	); err != nil {
		return err
	}

	for _, t := range tasks {
		if _, err := fmt.Fprintf(
			w, "%-3d %-19s %-10s %d\n", t.ID, t.Name, t.State, t.Priority,
		); err != nil {
			return err
		}
	}

	return nil
}
