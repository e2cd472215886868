// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytes provides helpers to describe byte ranges within a
// firmware image. Every entity of a parsed image references the backing
// buffer through a Range instead of owning a copy.
package bytes

import (
	"fmt"
)

// Range is a generic byte range: an offset into a buffer and a length.
type Range struct {
	Offset uint64
	Length uint64
}

func (r Range) String() string {
	return fmt.Sprintf(`{"Offset":"0x%x", "Length":"0x%x"}`, r.Offset, r.Length)
}

// End returns the exclusive end offset of the range.
func (r Range) End() uint64 {
	return r.Offset + r.Length
}

// Contains returns true if "sub" lies completely within "r".
func (r Range) Contains(sub Range) bool {
	if sub.Length == 0 {
		return sub.Offset >= r.Offset && sub.Offset <= r.End()
	}
	return sub.Offset >= r.Offset && sub.End() <= r.End()
}
