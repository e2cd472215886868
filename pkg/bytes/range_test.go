// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeEnd(t *testing.T) {
	assert.Equal(t, uint64(0x300), Range{Offset: 0x100, Length: 0x200}.End())
	assert.Equal(t, uint64(0x100), Range{Offset: 0x100}.End())
}

func TestRangeContains(t *testing.T) {
	r := Range{Offset: 0x100, Length: 0x100}

	t.Run("inside", func(t *testing.T) {
		assert.True(t, r.Contains(Range{Offset: 0x100, Length: 0x100}))
		assert.True(t, r.Contains(Range{Offset: 0x180, Length: 0x80}))
	})
	t.Run("outside", func(t *testing.T) {
		assert.False(t, r.Contains(Range{Offset: 0x80, Length: 0x100}))
		assert.False(t, r.Contains(Range{Offset: 0x180, Length: 0x100}))
		assert.False(t, r.Contains(Range{Offset: 0x300, Length: 1}))
	})
	t.Run("zero_length", func(t *testing.T) {
		// A zero-length range at the exclusive end is still inside,
		// the same way a slice index at len() is a valid cut point.
		assert.True(t, r.Contains(Range{Offset: 0x200}))
		assert.False(t, r.Contains(Range{Offset: 0x201}))
		assert.False(t, r.Contains(Range{Offset: 0x80}))
	})
}

func TestRangeString(t *testing.T) {
	assert.Equal(t, `{"Offset":"0x10", "Length":"0x20"}`,
		Range{Offset: 0x10, Length: 0x20}.String())
}
