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

package heap

import "errors"

var (
	// ErrArenaTooSmall indicates the arena cannot hold a single descriptor.
	ErrArenaTooSmall = errors.New("heap: arena too small")

	// ErrArenaRange indicates base+size does not fit a 32-bit address space.
	ErrArenaRange = errors.New("heap: arena exceeds address space")

	// ErrBadAddr indicates an address that is not the payload of any block.
	ErrBadAddr = errors.New("heap: bad address")

	// ErrDoubleFree indicates an attempt to free a block that is already free.
	ErrDoubleFree = errors.New("heap: block already free")

	// ErrCorrupt is returned by Check when the chain breaks an invariant.
	ErrCorrupt = errors.New("heap: chain corrupt")
)
