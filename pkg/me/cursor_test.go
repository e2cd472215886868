// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorBytes(t *testing.T) {
	c := NewCursor([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	b, err := c.Bytes(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4, 5}, b)

	b, err = c.Bytes(8, 0)
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = c.Bytes(6, 4)
	var oob *ErrOutOfBounds
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, uint64(6), oob.Offset)
	assert.Equal(t, uint64(8), oob.Size)
}

func TestCursorOverflowIsOutOfBounds(t *testing.T) {
	c := NewCursor(make([]byte, 16))

	// offset+length wraps around; must not be treated as in bounds.
	_, err := c.Bytes(math.MaxUint64-2, 8)
	var overflow *ErrLengthOverflow
	require.ErrorAs(t, err, &overflow)

	_, err = c.Uint32(math.MaxUint64 - 1)
	require.Error(t, err)
}

func TestCursorReads(t *testing.T) {
	c := NewCursor([]byte{
		0x78, 0x56, 0x34, 0x12,
		'F', 'T', 'P', 'R', 0x00, 0x00,
	})

	v32, err := c.Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v32)

	v16, err := c.Uint16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x5678), v16)

	s, err := c.ASCII(4, 6)
	require.NoError(t, err)
	assert.Equal(t, "FTPR", s)

	_, err = c.ASCII(8, 4)
	assert.Error(t, err)
}

func TestCursorHasPrefix(t *testing.T) {
	c := NewCursor([]byte(`$FPTxx`))
	assert.True(t, c.HasPrefix(0, FPTSignature))
	assert.False(t, c.HasPrefix(1, FPTSignature))
	assert.False(t, c.HasPrefix(4, FPTSignature))
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange(0x100, 0x80, 0x80))
	assert.Error(t, CheckRange(0x100, 0x80, 0x81))
	assert.Error(t, CheckRange(0x100, math.MaxUint64, 2))
	assert.NoError(t, CheckRange(0x100, 0x100, 0))
}
