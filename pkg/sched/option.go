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

type Option func(*Scheduler)

// WithCapacity sets the size of the task table.
func WithCapacity(n int) Option {
	return func(s *Scheduler) {
		s.capacity = n
	}
}

func WithStackSize(size uint32) Option {
	return func(s *Scheduler) {
		s.stackSize = size
	}
}

// WithSwitcher installs the mechanism invoked whenever the running task
// changes. Without one the scheduler only records decisions.
func WithSwitcher(sw Switcher) Option {
	return func(s *Scheduler) {
		s.switcher = sw
	}
}
