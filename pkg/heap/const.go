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

package heap

const (
	// HeaderSize is the overhead of one block descriptor: a 32-bit size, a
	// free flag padded to a word and a 32-bit forward link.
	HeaderSize uint32 = 12

	// Alignment is the granularity every request is rounded up to.
	Alignment uint32 = 4

	// SplitSlack is the extra room, beyond one descriptor, a free block must
	// have left over before it is split.
	SplitSlack uint32 = 16
)

const (
	DefaultBase uint32 = 0x100000
	DefaultSize uint32 = 0x100000
)

// none terminates the descriptor chain.
const none = -1
