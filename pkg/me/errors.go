// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"fmt"
)

// ErrOutOfBounds means a read would exceed the buffer bounds. It is
// non-fatal for everything but the sub-structure being decoded.
type ErrOutOfBounds struct {
	Offset uint64
	Length uint64
	Size   uint64
}

func (err *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("read of %#x bytes at %#x is outside of the buffer bounds: %#x",
		err.Length, err.Offset, err.Size)
}

// ErrLengthOverflow means an offset+length computation would wrap around.
// Treated the same way as an out-of-bounds read.
type ErrLengthOverflow struct {
	Offset uint64
	Length uint64
}

func (err *ErrLengthOverflow) Error() string {
	return fmt.Sprintf("offset %#x + length %#x overflows", err.Offset, err.Length)
}

// ErrSignatureNotFound means an expected magic marker was not present.
// Fatal for the whole parse only when the marker is the top-level $FPT.
type ErrSignatureNotFound struct {
	Signature string
	Offsets   []uint64
}

func (err *ErrSignatureNotFound) Error() string {
	return fmt.Sprintf("signature %q not found at candidate offsets %#x",
		err.Signature, err.Offsets)
}

// ErrMalformedHeader means a header declares sizes inconsistent with the
// actual bytes.
type ErrMalformedHeader struct {
	Structure string
	Reason    string
}

func (err *ErrMalformedHeader) Error() string {
	return fmt.Sprintf("malformed %s header: %s", err.Structure, err.Reason)
}

// ErrInvalidEntryRange means a table entry describes a byte range outside
// its owner's extent. The entry is kept in the model for forensics.
type ErrInvalidEntryRange struct {
	Name   string
	Offset uint64
	Length uint64
	Limit  uint64
}

func (err *ErrInvalidEntryRange) Error() string {
	return fmt.Sprintf("entry %q range %#x:%#x exceeds limit %#x",
		err.Name, err.Offset, err.Offset+err.Length, err.Limit)
}

// ErrMalformedManifest means the manifest header could not be decoded or
// is internally inconsistent. Only the one manifest is affected.
type ErrMalformedManifest struct {
	Reason string
}

func (err *ErrMalformedManifest) Error() string {
	return fmt.Sprintf("malformed manifest: %s", err.Reason)
}

// ErrDuplicateManifest means a directory carries more than one entry with
// a manifest name. The first occurrence wins.
type ErrDuplicateManifest struct {
	Name string
}

func (err *ErrDuplicateManifest) Error() string {
	return fmt.Sprintf("duplicate manifest entry %q ignored", err.Name)
}

// ErrTrailingBytes means bytes remained after the last complete record of
// an extension region. They are preserved raw, never discarded.
type ErrTrailingBytes struct {
	Count uint64
}

func (err *ErrTrailingBytes) Error() string {
	return fmt.Sprintf("%d trailing bytes after last complete record", err.Count)
}

// ErrNotFound literally means "not found".
type ErrNotFound struct {
	What string
}

func (err *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", err.What)
}
