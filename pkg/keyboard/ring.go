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

package keyboard

import (
	"errors"
	"sync/atomic"

	"github.com/lassandro/divine/pkg/encoding"
)

var ErrBufferSize = errors.New("keyboard: buffer size must be a power of 2")

// Ring is a single-producer single-consumer byte queue. head and tail run
// freely and are masked into the buffer, so head == tail means empty and
// head - tail == len(buffer) means full. Only the producer stores head and
// only the consumer stores tail.
type Ring struct {
	buffer []byte
	mask   uint32

	head atomic.Uint32
	tail atomic.Uint32

	dropped atomic.Uint64
}

func NewRing(size int) (*Ring, error) {
	if size <= 0 || size > 1<<30 || !encoding.IsPowerOfTwo(uint32(size)) {
		return nil, ErrBufferSize
	}

	return &Ring{
		buffer: make([]byte, size),
		mask:   uint32(size - 1),
	}, nil
}

// Push appends b unless the ring is full, in which case b is dropped and
// counted. Producer side only.
func (r *Ring) Push(b byte) bool {
	head := r.head.Load()

	if head-r.tail.Load() == uint32(len(r.buffer)) {
		r.dropped.Add(1)
		return false
	}

	r.buffer[head&r.mask] = b
	r.head.Store(head + 1)

	return true
}

// Pop removes the oldest byte. Consumer side only.
func (r *Ring) Pop() (byte, bool) {
	tail := r.tail.Load()

	if r.head.Load() == tail {
		return 0, false
	}

	b := r.buffer[tail&r.mask]
	r.tail.Store(tail + 1)

	return b, true
}

func (r *Ring) Empty() bool {
	return r.head.Load() == r.tail.Load()
}

func (r *Ring) Len() int {
	tail := r.tail.Load()
	n := int(r.head.Load() - tail)

	if n > len(r.buffer) {
		n = len(r.buffer)
	}

	return n
}

func (r *Ring) Cap() int {
	return len(r.buffer)
}

// Dropped counts bytes rejected because the ring was full.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}
