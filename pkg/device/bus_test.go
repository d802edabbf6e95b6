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

package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/divine/pkg/device"
	"github.com/lassandro/divine/pkg/keyboard"
)

func newBus(t *testing.T) (*device.Bus, *keyboard.Keyboard) {
	t.Helper()

	bus := &device.Bus{}
	kb, err := keyboard.New(bus, keyboard.DefaultBufferSize)
	require.NoError(t, err)
	bus.Attach(kb.Handler)

	return bus, kb
}

func TestEncode(t *testing.T) {
	tests := []struct {
		Name string
		In   byte
		Want []byte
	}{
		{Name: "Letter", In: 'a', Want: []byte{0x1E, 0x9E}},
		{Name: "Enter", In: '\n', Want: []byte{0x1C, 0x9C}},
		{Name: "Carriage return", In: '\r', Want: []byte{0x1C, 0x9C}},
		{Name: "Delete", In: 0x7F, Want: []byte{0x0E, 0x8E}},
		{Name: "Space", In: ' ', Want: []byte{0x39, 0xB9}},
		{Name: "Upper", In: 'Q', Want: []byte{0x2A, 0x10, 0x90, 0xAA}},
		{Name: "Symbol", In: '?', Want: []byte{0x2A, 0x35, 0xB5, 0xAA}},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			have, ok := device.Encode(test.In)
			require.True(t, ok)
			assert.Equal(t, test.Want, have)
		})
	}

	_, ok := device.Encode(0)
	assert.False(t, ok)

	_, ok = device.Encode(0xE9)
	assert.False(t, ok)
}

func TestEncodeCoversPrintable(t *testing.T) {
	bus, kb := newBus(t)

	for c := byte(' '); c <= '~'; c++ {
		require.NoError(t, bus.Type(c), "%q", c)
		require.Equal(t, c, kb.GetKey(), "%q", c)
	}

	assert.Equal(t, keyboard.Modifiers{}, kb.Modifiers())
}

func TestTypeString(t *testing.T) {
	bus, kb := newBus(t)

	require.NoError(t, bus.TypeString("Hello, World!\n"))

	var have []byte
	for kb.KeyAvailable() {
		have = append(have, kb.GetKey())
	}

	assert.Equal(t, "Hello, World!\n", string(have))
	assert.False(t, bus.PIC.InService)
	assert.Zero(t, bus.PS2.Status&device.StatusOutputFull)

	assert.ErrorIs(t, bus.TypeString("caf\xe9"), device.ErrUnmapped)
}

func TestRaise(t *testing.T) {
	bus := &device.Bus{}
	assert.ErrorIs(t, bus.Raise(0x1E), device.ErrNoHandler)

	var status byte
	bus.Attach(func() {
		status = bus.In(keyboard.StatusPort)
		_ = bus.In(keyboard.DataPort)
	})
	assert.ErrorIs(t, bus.Raise(0x1E), device.ErrNoEOI)
	assert.Equal(t, device.StatusOutputFull, status)
	assert.Equal(t, byte(0xFF), bus.In(0x1234))

	kb, err := keyboard.New(bus, keyboard.DefaultBufferSize)
	require.NoError(t, err)
	bus.Attach(kb.Handler)
	require.NoError(t, bus.Raise(0x1E))
	assert.Equal(t, uint64(1), bus.EOIs())
}
