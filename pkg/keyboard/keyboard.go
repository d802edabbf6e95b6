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
	"context"
	"sync/atomic"
)

// Port is byte-granularity access to the I/O port space.
type Port interface {
	In(port uint16) byte
	Out(port uint16, value byte)
}

type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

const (
	modShift uint32 = 1 << iota
	modCtrl
	modAlt
)

// Keyboard decodes scan codes delivered by IRQ1 into a queue of characters.
// Handler is the producer and runs in interrupt context; GetKey, ReadKey and
// KeyAvailable are the consumer side and run in the mainline.
type Keyboard struct {
	port Port
	ring *Ring

	// mods is written by the producer only.
	mods atomic.Uint32

	// wake is signalled at the end of every interrupt, the way an interrupt
	// ends a halt.
	wake chan struct{}
}

func New(port Port, bufferSize int) (*Keyboard, error) {
	ring, err := NewRing(bufferSize)
	if err != nil {
		return nil, err
	}

	return &Keyboard{
		port: port,
		ring: ring,
		wake: make(chan struct{}, 1),
	}, nil
}

// Handler services one keyboard interrupt: it reads a scan code, updates the
// modifier toggles or queues the mapped character, and acknowledges the
// interrupt controller.
func (kb *Keyboard) Handler() {
	code := kb.port.In(DataPort)
	mods := kb.mods.Load()

	if code&ReleaseBit != 0 {
		mods &^= modifierBit(code &^ ReleaseBit)
	} else if isModifier(code) {
		mods |= modifierBit(code)
	} else if key := Lookup(code, mods&modShift != 0); key != 0 {
		kb.ring.Push(key)
	}

	kb.mods.Store(mods)

	kb.port.Out(PICCommandPort, EOI)

	select {
	case kb.wake <- struct{}{}:
	default:
	}
}

// GetKey blocks until a character is queued and returns it.
func (kb *Keyboard) GetKey() byte {
	key, _ := kb.ReadKey(context.Background())
	return key
}

// ReadKey is GetKey with cancellation.
func (kb *Keyboard) ReadKey(ctx context.Context) (byte, error) {
	for {
		if key, ok := kb.ring.Pop(); ok {
			return key, nil
		}

		select {
		case <-kb.wake:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (kb *Keyboard) KeyAvailable() bool {
	return !kb.ring.Empty()
}

func (kb *Keyboard) Buffered() int {
	return kb.ring.Len()
}

// Dropped counts characters lost to a full queue.
func (kb *Keyboard) Dropped() uint64 {
	return kb.ring.Dropped()
}

func (kb *Keyboard) Modifiers() Modifiers {
	mods := kb.mods.Load()

	return Modifiers{
		Shift: mods&modShift != 0,
		Ctrl:  mods&modCtrl != 0,
		Alt:   mods&modAlt != 0,
	}
}

func modifierBit(code byte) uint32 {
	switch code {
	case ScanLeftShift, ScanRightShift:
		return modShift
	case ScanCtrl:
		return modCtrl
	case ScanAlt:
		return modAlt
	}

	return 0
}
