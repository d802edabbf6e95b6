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

import "github.com/lassandro/divine/pkg/keyboard"

// Encode returns the scan code sequence that types c on a US QWERTY
// keyboard, bracketed by left shift when c is only on the shifted layer.
func Encode(c byte) ([]byte, bool) {
	switch c {
	case '\r':
		c = '\n'
	case 0x7F:
		c = '\b'
	}

	if code, ok := find(c, false); ok {
		return []byte{code, code | keyboard.ReleaseBit}, true
	}

	if code, ok := find(c, true); ok {
		return []byte{
			keyboard.ScanLeftShift,
			code,
			code | keyboard.ReleaseBit,
			keyboard.ScanLeftShift | keyboard.ReleaseBit,
		}, true
	}

	return nil, false
}

func find(c byte, shifted bool) (byte, bool) {
	if c == 0 {
		return 0, false
	}

	for code := byte(1); code < 0x80; code++ {
		if keyboard.Lookup(code, shifted) == c {
			return code, true
		}
	}

	return 0, false
}
