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

// US QWERTY, scan code set 1. Zero entries produce no character.
var keymap = [128]byte{
	0, 27, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', 8,
	9, 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', 10,
	0, 'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', 39, 96,
	0, 92, 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/', 0,
	42, 0, 32, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var keymapShift = [128]byte{
	0, 27, 33, 64, 35, 36, 37, 94, 38, 42, 40, 41, 95, 43, 8,
	9, 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I', 'O', 'P', 123, 125, 10,
	0, 'A', 'S', 'D', 'F', 'G', 'H', 'J', 'K', 'L', 58, 34, 126,
	0, 124, 'Z', 'X', 'C', 'V', 'B', 'N', 'M', 60, 62, 63, 0,
	42, 0, 32, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Lookup maps a key-down scan code to its character, 0 if it has none.
func Lookup(code byte, shifted bool) byte {
	code &^= ReleaseBit

	if shifted {
		return keymapShift[code]
	}

	return keymap[code]
}

func isModifier(code byte) bool {
	switch code {
	case ScanLeftShift, ScanRightShift, ScanCtrl, ScanAlt:
		return true
	}

	return false
}
