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

const (
	DataPort   uint16 = 0x60
	StatusPort uint16 = 0x64

	// PICCommandPort receives the end-of-interrupt acknowledgement.
	PICCommandPort uint16 = 0x20
	EOI            byte   = 0x20
)

const (
	ScanLeftShift  byte = 0x2A
	ScanRightShift byte = 0x36
	ScanCtrl       byte = 0x1D
	ScanAlt        byte = 0x38

	// ReleaseBit marks a key-up scan code.
	ReleaseBit byte = 0x80
)

// DefaultBufferSize must be a power of 2.
const DefaultBufferSize = 256
