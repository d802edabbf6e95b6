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

import (
	"fmt"

	"github.com/lassandro/divine/pkg/encoding"
)

// New establishes an arena of size bytes whose first byte sits at base.
func New(base, size uint32) (*Heap, error) {
	if size <= HeaderSize {
		return nil, ErrArenaTooSmall
	}

	if uint64(base)+uint64(size) > 1<<32 {
		return nil, ErrArenaRange
	}

	h := &Heap{
		base:  base,
		arena: make([]byte, size),
	}
	h.Reset()

	return h, nil
}

// Reset returns the arena to a single free block spanning all of it.
func (h *Heap) Reset() {
	h.desc = h.desc[:0]
	h.spare = h.spare[:0]
	h.byPayload = make(map[uint32]int)

	h.head = h.newDescriptor(0, uint32(len(h.arena))-HeaderSize, none)
	h.desc[h.head].free = true

	h.used = HeaderSize
}

// Alloc hands out the first free block able to hold size bytes, rounded up to
// Alignment. It returns Nil for a zero size request or when no block fits.
func (h *Heap) Alloc(size uint32) Addr {
	if size == 0 {
		return Nil
	}

	size, ok := encoding.AlignUp(size, Alignment)
	if !ok {
		return Nil
	}

	for cur := h.head; cur != none; cur = h.desc[cur].next {
		if !h.desc[cur].free || h.desc[cur].size < size {
			continue
		}

		if h.desc[cur].size > size+HeaderSize+SplitSlack {
			h.split(cur, size)
		}

		d := &h.desc[cur]
		d.free = false
		h.used += d.size + HeaderSize

		return h.addr(d.offset)
	}

	return Nil
}

// Free releases the block whose payload starts at addr and merges free
// neighbours. Freeing Nil is a no-op.
func (h *Heap) Free(addr Addr) error {
	if addr == Nil {
		return nil
	}

	slot, ok := h.lookup(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBadAddr, addr)
	}

	d := &h.desc[slot]
	if d.free {
		return fmt.Errorf("%w: %s", ErrDoubleFree, addr)
	}

	d.free = true
	h.used -= d.size + HeaderSize

	h.coalesce()

	return nil
}

// Bytes returns the payload of an allocated block, or nil.
func (h *Heap) Bytes(addr Addr) []byte {
	slot, ok := h.lookup(addr)
	if !ok || h.desc[slot].free {
		return nil
	}

	start := h.desc[slot].offset + HeaderSize
	end := start + h.desc[slot].size

	return h.arena[start:end:end]
}

// Arena returns the raw arena bytes between addr and addr+count, clamped to
// the arena bounds.
func (h *Heap) Arena(addr Addr, count uint32) []byte {
	if uint32(addr) < h.base {
		return nil
	}

	start := uint64(uint32(addr) - h.base)
	end := start + uint64(count)

	if start >= uint64(len(h.arena)) {
		return nil
	}

	if end > uint64(len(h.arena)) {
		end = uint64(len(h.arena))
	}

	return h.arena[start:end]
}

func (h *Heap) Base() uint32 {
	return h.base
}

func (h *Heap) Total() uint32 {
	return uint32(len(h.arena))
}

func (h *Heap) Used() uint32 {
	return h.used
}

// Available is the difference between Total and Used. The used counter
// starts at one descriptor and charges every allocation its own descriptor,
// so a full arena can report more used bytes than it holds.
func (h *Heap) Available() uint32 {
	if h.used >= h.Total() {
		return 0
	}

	return h.Total() - h.used
}

// Blocks walks the chain in arena order.
func (h *Heap) Blocks() []Block {
	var blocks []Block

	for cur := h.head; cur != none; cur = h.desc[cur].next {
		d := h.desc[cur]
		blocks = append(blocks, Block{
			Addr: h.addr(d.offset),
			Size: d.size,
			Free: d.free,
		})
	}

	return blocks
}

func (h *Heap) Stats() Stats {
	stats := Stats{
		Total: h.Total(),
		Used:  h.used,
		Free:  h.Available(),
	}

	for cur := h.head; cur != none; cur = h.desc[cur].next {
		stats.Blocks++

		if d := h.desc[cur]; d.free {
			stats.FreeBlocks++

			if d.size > stats.LargestFree {
				stats.LargestFree = d.size
			}
		}
	}

	return stats
}

// Check verifies that the chain tiles the arena without gaps or overlaps,
// that no two adjacent blocks are both free and that the used counter agrees
// with the chain.
func (h *Heap) Check() error {
	var offset uint32
	var used = HeaderSize
	var prevFree bool

	for cur := h.head; cur != none; cur = h.desc[cur].next {
		d := h.desc[cur]

		if d.offset != offset {
			return fmt.Errorf(
				"%w: block at offset %#x, expected %#x", ErrCorrupt, d.offset, offset,
			)
		}

		if d.free && prevFree {
			return fmt.Errorf(
				"%w: adjacent free blocks at offset %#x", ErrCorrupt, d.offset,
			)
		}

		if !d.free {
			used += d.size + HeaderSize
		}

		prevFree = d.free
		offset += HeaderSize + d.size
	}

	if offset != h.Total() {
		return fmt.Errorf(
			"%w: chain covers %d of %d bytes", ErrCorrupt, offset, h.Total(),
		)
	}

	if used != h.used {
		return fmt.Errorf(
			"%w: used counter %d, chain accounts for %d", ErrCorrupt, h.used, used,
		)
	}

	return nil
}

// split carves a free descriptor out of the tail of cur's payload and
// shrinks cur to exactly size bytes.
func (h *Heap) split(cur int, size uint32) {
	d := h.desc[cur]
	tail := h.newDescriptor(
		d.offset+HeaderSize+size,
		d.size-size-HeaderSize,
		d.next,
	)
	h.desc[tail].free = true

	h.desc[cur].size = size
	h.desc[cur].next = tail
}

// coalesce makes one pass from the head of the chain, folding every free
// block that is followed by a free block into the earlier one.
func (h *Heap) coalesce() {
	cur := h.head

	for cur != none && h.desc[cur].next != none {
		next := h.desc[cur].next

		if h.desc[cur].free && h.desc[next].free {
			h.desc[cur].size += HeaderSize + h.desc[next].size
			h.desc[cur].next = h.desc[next].next
			h.releaseDescriptor(next)
		} else {
			cur = next
		}
	}
}

func (h *Heap) newDescriptor(offset, size uint32, next int) int {
	d := descriptor{offset: offset, size: size, next: next}

	var slot int
	if n := len(h.spare); n > 0 {
		slot = h.spare[n-1]
		h.spare = h.spare[:n-1]
		h.desc[slot] = d
	} else {
		slot = len(h.desc)
		h.desc = append(h.desc, d)
	}

	h.byPayload[offset+HeaderSize] = slot

	return slot
}

func (h *Heap) releaseDescriptor(slot int) {
	delete(h.byPayload, h.desc[slot].offset+HeaderSize)
	h.desc[slot] = descriptor{next: none}
	h.spare = append(h.spare, slot)
}

func (h *Heap) lookup(addr Addr) (int, bool) {
	if uint32(addr) < h.base+HeaderSize {
		return 0, false
	}

	slot, ok := h.byPayload[uint32(addr)-h.base]

	return slot, ok
}

func (h *Heap) addr(offset uint32) Addr {
	return Addr(h.base + offset + HeaderSize)
}
