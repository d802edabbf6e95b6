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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// Decodes a hexidecimal address in the formats: 0xFFFFFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint32, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 32)

	if err != nil {
		return 0, err
	}

	return uint32(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (uint32, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseUint(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return uint32(result), nil
}

// Decodes either a hex or base-10 string
func DecodeNumber(s string) (uint32, error) {
	if strings.ContainsAny(s, "xX") {
		return DecodeHex(s)
	}

	return DecodeInt(s)
}

// AlignUp rounds value up to the next multiple of n, n must be a power of 2.
// The second result is false when the rounded value does not fit in 32 bits.
func AlignUp(value, n uint32) (uint32, bool) {
	aligned := (value + (n - 1)) & ^(n - 1)

	return aligned, aligned >= value
}

func IsPowerOfTwo(value uint32) bool {
	return value != 0 && value&(value-1) == 0
}
