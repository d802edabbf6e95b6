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

import "fmt"

// Addr is the address of a payload inside the arena.
type Addr uint32

// Nil is the null allocation result.
const Nil Addr = 0

func (a Addr) String() string {
	return fmt.Sprintf("0x%08x", uint32(a))
}

// Block is a read-only view of one descriptor in chain order.
type Block struct {
	Addr Addr
	Size uint32
	Free bool
}

// Stats summarises the arena.
type Stats struct {
	Total       uint32
	Used        uint32
	Free        uint32
	Blocks      int
	FreeBlocks  int
	LargestFree uint32
}

type descriptor struct {
	offset uint32
	size   uint32
	free   bool
	next   int
}

// Heap manages a fixed arena as a singly linked chain of block descriptors.
// Descriptors live in a slice and link to each other by index, payloads live
// in the arena at offset+HeaderSize.
//
// A Heap is not safe for concurrent use and must never be called from
// interrupt context.
type Heap struct {
	base  uint32
	arena []byte

	desc  []descriptor
	spare []int
	head  int

	// byPayload maps a payload offset to its descriptor slot.
	byPayload map[uint32]int

	used uint32
}
