// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFPT(t *testing.T) {
	img := make([]byte, 0x200)
	writeFPTHeader(img, 0, 2)
	writeFPTEntry(img, FPTHeaderLength, "FTPR", 0x100, 0x100, 0)
	writeFPTEntry(img, FPTHeaderLength+FPTEntryLength, "MFS", 0x180, 0x80, 1)

	var diags Diagnostics
	fpt, err := DecodeFPT(NewCursor(img), &diags)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, uint64(0), fpt.Base)
	assert.Equal(t, uint32(2), fpt.Header.NumEntries)
	require.Len(t, fpt.Entries, 2)

	ftpr := fpt.Entries[0]
	assert.Equal(t, "FTPR", ftpr.Name.String())
	assert.Equal(t, "OWNR", ftpr.Owner.String())
	assert.True(t, ftpr.Valid())
	assert.False(t, ftpr.IsData())
	assert.Equal(t, uint64(0x200), ftpr.Range().End())

	mfs := fpt.Entries[1]
	assert.Equal(t, "MFS", mfs.Name.String())
	assert.True(t, mfs.IsData())
}

func TestDecodeFPTSignatureNotFound(t *testing.T) {
	var diags Diagnostics
	_, err := DecodeFPT(NewCursor(make([]byte, 0x100)), &diags)
	var sig *ErrSignatureNotFound
	require.ErrorAs(t, err, &sig)
	assert.Equal(t, "$FPT", sig.Signature)
}

// Entry count 5 with room for only 2 entries: the first 2 decode, the
// remaining 3 are each flagged out of bounds, the parse still succeeds.
func TestDecodeFPTTruncatedEntries(t *testing.T) {
	img := make([]byte, FPTHeaderLength+2*FPTEntryLength)
	writeFPTHeader(img, 0, 5)
	writeFPTEntry(img, FPTHeaderLength, "FTPR", 0, 0, 0)
	writeFPTEntry(img, FPTHeaderLength+FPTEntryLength, "NFTP", 0, 0, 0)

	var diags Diagnostics
	fpt, err := DecodeFPT(NewCursor(img), &diags)
	require.NoError(t, err)

	assert.Len(t, fpt.Entries, 2)
	require.Len(t, diags, 3)
	for _, d := range diags {
		assert.Equal(t, LayerFPT, d.Layer)
		var oob *ErrOutOfBounds
		assert.ErrorAs(t, d.Err, &oob)
	}
}

// An entry pointing beyond the image is kept for forensics but flagged.
func TestDecodeFPTInvalidEntryRange(t *testing.T) {
	img := make([]byte, 0x100)
	writeFPTHeader(img, 0, 1)
	writeFPTEntry(img, FPTHeaderLength, "FTPR", 0x80, 0x100, 0)

	var diags Diagnostics
	fpt, err := DecodeFPT(NewCursor(img), &diags)
	require.NoError(t, err)

	require.Len(t, fpt.Entries, 1)
	assert.Equal(t, "FTPR", fpt.Entries[0].Name.String())
	require.Len(t, diags, 1)
	var rng *ErrInvalidEntryRange
	require.ErrorAs(t, diags[0].Err, &rng)
	assert.Equal(t, uint64(0x100), rng.Limit)
}

// A corrupt entry count must not make the decode loop unbounded.
func TestDecodeFPTEntryCountClamped(t *testing.T) {
	img := make([]byte, 0x100)
	writeFPTHeader(img, 0, 0xffffffff)

	var diags Diagnostics
	_, err := DecodeFPT(NewCursor(img), &diags)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	var malformed *ErrMalformedHeader
	require.ErrorAs(t, diags[0].Err, &malformed)
	// One clamp report plus one out-of-bounds per clamped entry slot.
	assert.LessOrEqual(t, len(diags), maxFPTEntries+1)
}

func TestDecodeFPTHeaderTruncated(t *testing.T) {
	img := make([]byte, 8)
	putName(img, 0, "$FPT")

	var diags Diagnostics
	fpt, err := DecodeFPT(NewCursor(img), &diags)
	require.NoError(t, err)
	assert.Empty(t, fpt.Entries)
	require.Len(t, diags, 1)
	var oob *ErrOutOfBounds
	require.ErrorAs(t, diags[0].Err, &oob)
}
