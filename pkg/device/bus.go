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

package device

import (
	"errors"
	"sync"

	"github.com/lassandro/divine/pkg/keyboard"
)

const (
	// StatusOutputFull is set in the 8042 status byte while a scan code
	// waits in the data register.
	StatusOutputFull byte = 1 << 0
)

var (
	ErrNoHandler = errors.New("device: no handler attached to IRQ1")
	ErrNoEOI     = errors.New("device: handler returned without EOI")
	ErrUnmapped  = errors.New("device: character has no scan code")
)

// PIC models the master 8259's in-service register for IRQ1.
type PIC struct {
	InService bool
	EOIs      uint64
}

// PS2 models the 8042 controller's data and status registers.
type PS2 struct {
	Data   byte
	Status byte
}

// Bus routes port I/O to the simulated keyboard controller and interrupt
// controller, and delivers IRQ1 to the attached handler. Interrupts are
// delivered on the caller's goroutine, one at a time.
type Bus struct {
	mu sync.Mutex

	PS2 PS2
	PIC PIC

	irq1 func()
}

// Attach installs the IRQ1 handler.
func (b *Bus) Attach(handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.irq1 = handler
}

// In reads a port. It is only valid from inside the IRQ1 handler.
func (b *Bus) In(port uint16) byte {
	switch port {
	case keyboard.DataPort:
		b.PS2.Status &^= StatusOutputFull
		return b.PS2.Data
	case keyboard.StatusPort:
		return b.PS2.Status
	default:
		return 0xFF
	}
}

// Out writes a port. It is only valid from inside the IRQ1 handler.
func (b *Bus) Out(port uint16, value byte) {
	if port == keyboard.PICCommandPort && value == keyboard.EOI {
		b.PIC.InService = false
		b.PIC.EOIs++
	}
}

// Raise latches code in the data register and runs the IRQ1 handler.
func (b *Bus) Raise(code byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.irq1 == nil {
		return ErrNoHandler
	}

	b.PS2.Data = code
	b.PS2.Status |= StatusOutputFull
	b.PIC.InService = true

	b.irq1()

	if b.PIC.InService {
		return ErrNoEOI
	}

	return nil
}

// Type raises the make and break codes that produce c.
func (b *Bus) Type(c byte) error {
	codes, ok := Encode(c)
	if !ok {
		return ErrUnmapped
	}

	for _, code := range codes {
		if err := b.Raise(code); err != nil {
			return err
		}
	}

	return nil
}

// TypeString types every byte of s, stopping at the first failure.
func (b *Bus) TypeString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := b.Type(s[i]); err != nil {
			return err
		}
	}

	return nil
}

// EOIs returns the number of acknowledged interrupts.
func (b *Bus) EOIs() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.PIC.EOIs
}
