// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"bytes"
	"encoding/binary"
	"math/bits"

	"github.com/hashicorp/go-multierror"
)

// Cursor is a bounds-checked, offset-addressable view over an image
// buffer. Every read performed by the decoders goes through it; offsets
// and lengths come from the image itself and are never trusted.
type Cursor struct {
	buf []byte
}

// NewCursor returns a Cursor over buf. The Cursor borrows buf, it does
// not copy it.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() uint64 {
	return uint64(len(c.buf))
}

// CheckRange validates that [offset, offset+length) lies within a buffer
// of size limit, including overflow of the end offset. All violations
// are accumulated and returned together.
func CheckRange(limit, offset, length uint64) error {
	var result *multierror.Error
	end, carry := bits.Add64(offset, length, 0)
	if carry != 0 {
		result = multierror.Append(result, &ErrLengthOverflow{Offset: offset, Length: length})
	}
	if carry == 0 && end > limit {
		result = multierror.Append(result, &ErrOutOfBounds{Offset: offset, Length: length, Size: limit})
	}
	return result.ErrorOrNil()
}

// Bytes returns a borrowed slice of length bytes at offset, or an
// out-of-bounds error. It never panics, whatever the arguments are.
func (c *Cursor) Bytes(offset, length uint64) ([]byte, error) {
	end, carry := bits.Add64(offset, length, 0)
	if carry != 0 {
		return nil, &ErrLengthOverflow{Offset: offset, Length: length}
	}
	if end > c.Len() {
		return nil, &ErrOutOfBounds{Offset: offset, Length: length, Size: c.Len()}
	}
	return c.buf[offset:end], nil
}

// Uint32 reads a little-endian uint32 at offset.
func (c *Cursor) Uint32(offset uint64) (uint32, error) {
	b, err := c.Bytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint16 reads a little-endian uint16 at offset.
func (c *Cursor) Uint16(offset uint64) (uint16, error) {
	b, err := c.Bytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ASCII reads n bytes at offset and returns them as a string with
// trailing NUL padding removed.
func (c *Cursor) ASCII(offset, n uint64) (string, error) {
	b, err := c.Bytes(offset, n)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// ReadLE decodes the fixed-size structure v from the bytes at offset,
// little-endian, the same failure mode as Bytes.
func (c *Cursor) ReadLE(offset uint64, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return &ErrMalformedHeader{Structure: "struct", Reason: "not a fixed-size structure"}
	}
	b, err := c.Bytes(offset, uint64(size))
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, v)
}

// HasPrefix reports whether the bytes at offset start with sig. A read
// beyond the buffer simply reports false.
func (c *Cursor) HasPrefix(offset uint64, sig []byte) bool {
	b, err := c.Bytes(offset, uint64(len(sig)))
	if err != nil {
		return false
	}
	return bytes.Equal(b, sig)
}
