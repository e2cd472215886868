// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"bytes"
	"fmt"
)

// Name4 represents the 4-byte ASCII names used by FPT entries and CPD
// headers, with JSON string support. Names shorter than 4 bytes are
// padded with NULs in the image.
type Name4 [4]byte

// MarshalText converts Name4 to a byte range (for JSON).
func (n Name4) MarshalText() ([]byte, error) {
	return bytes.TrimRight(n[:], "\x00"), nil
}

// UnmarshalText converts a byte range to Name4 (for JSON).
func (n *Name4) UnmarshalText(b []byte) error {
	var m Name4
	copy(m[:], b)
	*n = m
	if len(b) > len(m) {
		return fmt.Errorf("can't unmarshal %q to Name4, %d > %d", b, len(b), len(m))
	}
	return nil
}

func (n Name4) String() string {
	b, _ := n.MarshalText()
	return string(b)
}

// Name12 represents the 12-byte ASCII names used by CPD entries.
type Name12 [12]byte

// MarshalText converts Name12 to a byte range (for JSON).
func (n Name12) MarshalText() ([]byte, error) {
	return bytes.TrimRight(n[:], "\x00"), nil
}

// UnmarshalText converts a byte range to Name12 (for JSON).
func (n *Name12) UnmarshalText(b []byte) error {
	var m Name12
	copy(m[:], b)
	*n = m
	if len(b) > len(m) {
		return fmt.Errorf("can't unmarshal %q to Name12, %d > %d", b, len(b), len(m))
	}
	return nil
}

func (n Name12) String() string {
	b, _ := n.MarshalText()
	return string(b)
}
