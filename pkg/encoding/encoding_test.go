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

package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/divine/pkg/encoding"
)

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		Name  string
		Input string
		Want  uint32
		Fail  bool
	}{
		{Name: "Prefixed", Input: "0x100000", Want: 0x100000},
		{Name: "Short prefix", Input: "xFF", Want: 0xFF},
		{Name: "Upper", Input: "0XCAFE", Want: 0xCAFE},
		{Name: "No prefix", Input: "FF", Fail: true},
		{Name: "Misplaced prefix", Input: "1x00", Fail: true},
		{Name: "Too wide", Input: "0x100000000", Fail: true},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			have, err := encoding.DecodeHex(test.Input)

			if test.Fail {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.Want, have)
		})
	}
}

func TestDecodeNumber(t *testing.T) {
	have, err := encoding.DecodeNumber("#4096")
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), have)

	have, err = encoding.DecodeNumber("0x1000")
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), have)

	_, err = encoding.DecodeNumber("-1")
	assert.Error(t, err)
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		Value, N, Want uint32
		Ok             bool
	}{
		{Value: 0, N: 4, Want: 0, Ok: true},
		{Value: 1, N: 4, Want: 4, Ok: true},
		{Value: 100, N: 4, Want: 100, Ok: true},
		{Value: 101, N: 4, Want: 104, Ok: true},
		{Value: 4095, N: 4096, Want: 4096, Ok: true},
		{Value: 0xFFFFFFFE, N: 4, Want: 0, Ok: false},
	}

	for _, test := range tests {
		have, ok := encoding.AlignUp(test.Value, test.N)

		assert.Equal(t, test.Ok, ok, "AlignUp(%d, %d)", test.Value, test.N)
		if test.Ok {
			assert.Equal(t, test.Want, have, "AlignUp(%d, %d)", test.Value, test.N)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, encoding.IsPowerOfTwo(1))
	assert.True(t, encoding.IsPowerOfTwo(256))
	assert.False(t, encoding.IsPowerOfTwo(0))
	assert.False(t, encoding.IsPowerOfTwo(255))
}
