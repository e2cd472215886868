// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCPD(t *testing.T) {
	part := make([]byte, 0x800)
	writeCPDHeader(part, 0, "FTPR", 3)
	writeCPDEntry(part, 0x10, "FTPR.man", 0x100, 0x200, 0)
	writeCPDEntry(part, 0x28, "kernel", 0x300, 0x100, 0)
	writeCPDEntry(part, 0x40, "bup", 0x400, 0x80, 1)
	writeManifestHeader(part, 0x100, 0x20, 0x20)

	var diags Diagnostics
	cpd := DecodeCPD(part, 0x1000, &diags)
	assert.Empty(t, diags)

	assert.Equal(t, "FTPR", cpd.Name)
	assert.Equal(t, uint64(0x1000), cpd.Offset)
	require.Len(t, cpd.Entries, 3)
	require.NotNil(t, cpd.Manifest)
	// Diagnostic offsets are absolute within the image.
	assert.Equal(t, uint64(0x1100), cpd.Manifest.Offset)

	kernel, err := cpd.Entry("kernel")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x300), kernel.Offset())
	assert.False(t, kernel.Huffman())

	_, err = cpd.Entry("pmc")
	var notFound *ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

// The compression flag bit lives above the 25 offset bits and must not
// leak into the offset.
func TestCPDEntryOffsetFlags(t *testing.T) {
	e := CPDEntry{OffsetAndFlags: cpdHuffmanFlag | 0x1234}
	assert.Equal(t, uint32(0x1234), e.Offset())
	assert.True(t, e.Huffman())
}

// A directory without a manifest entry is valid; some partitions carry
// none.
func TestDecodeCPDNoManifest(t *testing.T) {
	part := make([]byte, 0x400)
	writeCPDHeader(part, 0, "WCOD", 1)
	writeCPDEntry(part, 0x10, "ucode", 0x100, 0x100, 0)

	var diags Diagnostics
	cpd := DecodeCPD(part, 0, &diags)
	assert.Empty(t, diags)
	assert.Nil(t, cpd.Manifest)
	require.Len(t, cpd.Entries, 1)
}

// Duplicate manifest names: the first occurrence wins, the duplicate is
// a diagnostic rather than a failure.
func TestDecodeCPDDuplicateManifest(t *testing.T) {
	part := make([]byte, 0x800)
	writeCPDHeader(part, 0, "FTPR", 2)
	writeCPDEntry(part, 0x10, "FTPR.man", 0x100, 0x200, 0)
	writeCPDEntry(part, 0x28, "FTPR.man", 0x400, 0x200, 0)
	writeManifestHeader(part, 0x100, 0x20, 0x20)

	var diags Diagnostics
	cpd := DecodeCPD(part, 0, &diags)
	require.NotNil(t, cpd.Manifest)
	assert.Equal(t, uint64(0x100), cpd.Manifest.Offset)
	require.Len(t, diags, 1)
	var dup *ErrDuplicateManifest
	require.ErrorAs(t, diags[0].Err, &dup)
}

// A declared entry table exceeding the partition stops this directory,
// not its siblings.
func TestDecodeCPDEntryTableOverrun(t *testing.T) {
	part := make([]byte, 0x40)
	writeCPDHeader(part, 0, "FTPR", 100)

	var diags Diagnostics
	cpd := DecodeCPD(part, 0, &diags)
	assert.Empty(t, cpd.Entries)
	require.Len(t, diags, 1)
	assert.Equal(t, LayerCPD, diags[0].Layer)
	var malformed *ErrMalformedHeader
	require.ErrorAs(t, diags[0].Err, &malformed)
}

// An entry whose range leaves the partition is flagged and kept.
func TestDecodeCPDInvalidEntryRange(t *testing.T) {
	part := make([]byte, 0x100)
	writeCPDHeader(part, 0, "FTPR", 1)
	writeCPDEntry(part, 0x10, "kernel", 0x80, 0x100, 0)

	var diags Diagnostics
	cpd := DecodeCPD(part, 0x2000, &diags)
	require.Len(t, cpd.Entries, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, uint64(0x2010), diags[0].Offset)
	var rng *ErrInvalidEntryRange
	require.ErrorAs(t, diags[0].Err, &rng)
	assert.Equal(t, "kernel", rng.Name)
}

// Version 1.4 headers declare 0x14 bytes and carry a checksum dword.
func TestDecodeCPDExtendedHeader(t *testing.T) {
	part := make([]byte, 0x400)
	writeCPDHeader(part, 0, "NFTP", 1)
	part[10] = CPDHeaderLength + 4
	part[8] = 0x02 // header version
	putLE32(part, CPDHeaderLength, 0xcafef00d)
	writeCPDEntry(part, CPDHeaderLength+4, "gfx", 0x100, 0x80, 0)

	var diags Diagnostics
	cpd := DecodeCPD(part, 0, &diags)
	assert.Empty(t, diags)
	assert.Equal(t, uint32(0xcafef00d), cpd.Checksum)
	require.Len(t, cpd.Entries, 1)
	assert.Equal(t, "gfx", cpd.Entries[0].Name.String())
}
