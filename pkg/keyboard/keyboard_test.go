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

package keyboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/divine/pkg/keyboard"
)

func TestRingFIFO(t *testing.T) {
	r, err := keyboard.NewRing(8)
	require.NoError(t, err)

	for n := 0; n <= r.Cap(); n++ {
		for i := 0; i < n; i++ {
			require.True(t, r.Push(byte('a'+i)))
		}

		assert.Equal(t, n, r.Len())

		for i := 0; i < n; i++ {
			b, ok := r.Pop()
			require.True(t, ok)
			require.Equal(t, byte('a'+i), b)
		}

		_, ok := r.Pop()
		assert.False(t, ok)
		assert.True(t, r.Empty())
	}

	// Indices have wrapped around the buffer several times by now.
	assert.Zero(t, r.Dropped())
}

func TestRingFull(t *testing.T) {
	r, err := keyboard.NewRing(4)
	require.NoError(t, err)

	for _, b := range []byte("abcd") {
		require.True(t, r.Push(b))
	}

	assert.False(t, r.Push('e'))
	assert.False(t, r.Push('f'))
	assert.Equal(t, uint64(2), r.Dropped())
	assert.Equal(t, 4, r.Len())

	var have []byte
	for {
		b, ok := r.Pop()
		if !ok {
			break
		}
		have = append(have, b)
	}

	assert.Equal(t, []byte("abcd"), have)
}

func TestNewRing(t *testing.T) {
	for _, size := range []int{0, -1, 3, 100} {
		_, err := keyboard.NewRing(size)
		assert.ErrorIs(t, err, keyboard.ErrBufferSize, "size %d", size)
	}

	r, err := keyboard.NewRing(1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Cap())
}

func TestLookup(t *testing.T) {
	tests := []struct {
		Code    byte
		Shifted bool
		Want    byte
	}{
		{Code: 0x00, Want: 0},
		{Code: 0x01, Want: 27},
		{Code: 0x02, Want: '1'},
		{Code: 0x02, Shifted: true, Want: '!'},
		{Code: 0x03, Shifted: true, Want: '@'},
		{Code: 0x0E, Want: 8},
		{Code: 0x0F, Want: 9},
		{Code: 0x10, Want: 'q'},
		{Code: 0x10, Shifted: true, Want: 'Q'},
		{Code: 0x1A, Shifted: true, Want: '{'},
		{Code: 0x1C, Want: '\n'},
		{Code: 0x1D, Want: 0},
		{Code: 0x1E, Want: 'a'},
		{Code: 0x27, Shifted: true, Want: ':'},
		{Code: 0x28, Want: '\''},
		{Code: 0x28, Shifted: true, Want: '"'},
		{Code: 0x29, Want: '`'},
		{Code: 0x29, Shifted: true, Want: '~'},
		{Code: 0x2A, Want: 0},
		{Code: 0x2B, Want: '\\'},
		{Code: 0x2B, Shifted: true, Want: '|'},
		{Code: 0x35, Shifted: true, Want: '?'},
		{Code: 0x36, Want: 0},
		{Code: 0x37, Want: '*'},
		{Code: 0x38, Want: 0},
		{Code: 0x39, Want: ' '},
		{Code: 0x3A, Want: 0},
		{Code: 0x7F, Shifted: true, Want: 0},
	}

	for _, test := range tests {
		assert.Equal(
			t, test.Want, keyboard.Lookup(test.Code, test.Shifted),
			"code %#02x shifted=%v", test.Code, test.Shifted,
		)
	}
}

type fakePort struct {
	codes []byte
	eoi   int
}

func (p *fakePort) In(port uint16) byte {
	if port != keyboard.DataPort || len(p.codes) == 0 {
		return 0
	}

	code := p.codes[0]
	p.codes = p.codes[1:]

	return code
}

func (p *fakePort) Out(port uint16, value byte) {
	if port == keyboard.PICCommandPort && value == keyboard.EOI {
		p.eoi++
	}
}

// interrupt delivers each code as its own IRQ.
func interrupt(kb *keyboard.Keyboard, port *fakePort, codes ...byte) {
	for _, code := range codes {
		port.codes = append(port.codes, code)
		kb.Handler()
	}
}

func newKeyboard(t *testing.T, size int) (*keyboard.Keyboard, *fakePort) {
	t.Helper()

	port := &fakePort{}
	kb, err := keyboard.New(port, size)
	require.NoError(t, err)

	return kb, port
}

func TestKeyboardOrder(t *testing.T) {
	kb, port := newKeyboard(t, keyboard.DefaultBufferSize)

	// a, b, c with their key-up codes in between
	interrupt(kb, port, 0x1E, 0x9E, 0x30, 0xB0, 0x2E, 0xAE)

	assert.Equal(t, 6, port.eoi)
	assert.True(t, kb.KeyAvailable())
	assert.Equal(t, 3, kb.Buffered())

	assert.Equal(t, byte('a'), kb.GetKey())
	assert.Equal(t, byte('b'), kb.GetKey())
	assert.Equal(t, byte('c'), kb.GetKey())
	assert.False(t, kb.KeyAvailable())

	done := make(chan byte)
	go func() {
		done <- kb.GetKey()
	}()

	select {
	case <-done:
		t.Fatal("GetKey returned on an empty queue")
	case <-time.After(50 * time.Millisecond):
	}

	interrupt(kb, port, 0x20)

	select {
	case key := <-done:
		assert.Equal(t, byte('d'), key)
	case <-time.After(time.Second):
		t.Fatal("GetKey did not wake after a key press")
	}
}

func TestKeyboardModifiers(t *testing.T) {
	kb, port := newKeyboard(t, keyboard.DefaultBufferSize)

	interrupt(kb, port, keyboard.ScanLeftShift)
	assert.Equal(t, keyboard.Modifiers{Shift: true}, kb.Modifiers())

	interrupt(kb, port, 0x1E, 0x02)
	interrupt(kb, port, keyboard.ScanLeftShift|keyboard.ReleaseBit)
	interrupt(kb, port, 0x1E)

	interrupt(kb, port, keyboard.ScanRightShift, 0x03)
	interrupt(kb, port, keyboard.ScanRightShift|keyboard.ReleaseBit)

	interrupt(kb, port, keyboard.ScanCtrl, keyboard.ScanAlt)
	assert.Equal(t, keyboard.Modifiers{Ctrl: true, Alt: true}, kb.Modifiers())

	// Ctrl and Alt only toggle, letters still map unshifted.
	interrupt(kb, port, 0x1F)
	interrupt(kb, port, keyboard.ScanCtrl|keyboard.ReleaseBit)
	assert.Equal(t, keyboard.Modifiers{Alt: true}, kb.Modifiers())
	interrupt(kb, port, keyboard.ScanAlt|keyboard.ReleaseBit)
	assert.Equal(t, keyboard.Modifiers{}, kb.Modifiers())

	var have []byte
	for kb.KeyAvailable() {
		have = append(have, kb.GetKey())
	}

	assert.Equal(t, []byte("A!a@s"), have)
}

func TestKeyboardIgnored(t *testing.T) {
	kb, port := newKeyboard(t, keyboard.DefaultBufferSize)

	// unmapped key-down, non-modifier key-up, unmapped high table entry
	interrupt(kb, port, 0x3B, 0x9E, 0x58, 0x00)

	assert.False(t, kb.KeyAvailable())
	assert.Equal(t, 4, port.eoi)
	assert.Equal(t, keyboard.Modifiers{}, kb.Modifiers())
}

func TestKeyboardOverflow(t *testing.T) {
	kb, port := newKeyboard(t, 4)

	// q w e r t y
	interrupt(kb, port, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15)

	assert.Equal(t, 6, port.eoi)
	assert.Equal(t, uint64(2), kb.Dropped())

	var have []byte
	for kb.KeyAvailable() {
		have = append(have, kb.GetKey())
	}

	assert.Equal(t, []byte("qwer"), have)
}

func TestReadKeyCancel(t *testing.T) {
	kb, _ := newKeyboard(t, keyboard.DefaultBufferSize)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := kb.ReadKey(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewKeyboard(t *testing.T) {
	_, err := keyboard.New(&fakePort{}, 100)
	assert.ErrorIs(t, err, keyboard.ErrBufferSize)
}
