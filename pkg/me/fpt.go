// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"fmt"
	"strings"

	"github.com/linuxboot/mefs/pkg/bytes"
)

// FPTSignature is the sequence of bytes a Flash Partition Table is
// expected to start with, ie. "$FPT".
var FPTSignature = []byte(`$FPT`)

const (
	// FPTHeaderLength is the size of the flash partition table header.
	FPTHeaderLength = 0x20
	// FPTEntryLength is the size of a partition table entry.
	FPTEntryLength = 0x20

	// Some image revisions place 16 bytes of ROM bypass instructions
	// before the signature.
	fptAlternateOffset = 0x10

	// An FPT realistically holds a few dozen entries. Anything beyond
	// this is a corrupt count and gets clamped so a truncated image
	// cannot make the decode loop unbounded.
	maxFPTEntries = 256
)

var fptCandidateOffsets = []uint64{0, fptAlternateOffset}

// FPTHeader describes the flash partition table header in Intel ME
// binaries.
type FPTHeader struct {
	Signature          Name4
	NumEntries         uint32
	HeaderVersion      uint8
	EntryVersion       uint8
	HeaderLength       uint8 // usually 0x20
	Checksum           uint8
	TicksToAdd         uint16
	TokensToAdd        uint16
	UMASizeOrReserved  uint32
	FlashLayoutOrFlags uint32
	// Not present in ME version 7
	FitcMajor  uint16
	FitcMinor  uint16
	FitcHotfix uint16
	FitcBuild  uint16
}

func (h FPTHeader) String() string {
	var b strings.Builder
	b.WriteString("Flash partition table:\n")
	fmt.Fprintf(&b, " Entries            : %d\n", h.NumEntries)
	fmt.Fprintf(&b, " HeaderVersion      : 0x%x\n", h.HeaderVersion)
	fmt.Fprintf(&b, " EntryVersion       : 0x%x\n", h.EntryVersion)
	fmt.Fprintf(&b, " HeaderLength       : 0x%x\n", h.HeaderLength)
	fmt.Fprintf(&b, " Checksum           : 0x%x\n", h.Checksum)
	fmt.Fprintf(&b, " TicksToAdd         : 0x%x\n", h.TicksToAdd)
	fmt.Fprintf(&b, " TokensToAdd        : 0x%x\n", h.TokensToAdd)
	fmt.Fprintf(&b, " UMASizeOrReserved  : 0x%x\n", h.UMASizeOrReserved)
	fmt.Fprintf(&b, " FlashLayoutOrFlags : 0x%x\n", h.FlashLayoutOrFlags)
	fmt.Fprintf(&b, " Fitc Version       : %d.%d.%d.%d\n", h.FitcMajor, h.FitcMinor, h.FitcHotfix, h.FitcBuild)
	return b.String()
}

// FPTEntry describes one partition of the flash partition table. The
// offset is absolute within the image. Offset and length of zero denote
// a placeholder entry, which is valid but empty.
type FPTEntry struct {
	Name           Name4
	Owner          Name4
	Offset         uint32
	Length         uint32
	StartTokens    uint32
	MaxTokens      uint32
	ScratchSectors uint32
	Flags          uint32
}

// Empty reports whether the entry is an absent/placeholder entry.
func (e FPTEntry) Empty() bool {
	return e.Offset == 0 && e.Length == 0
}

// Valid reports the validity bits of the entry flags.
func (e FPTEntry) Valid() bool {
	return e.Flags>>24 != 0xff
}

// IsData reports whether the entry flags mark a data partition.
func (e FPTEntry) IsData() bool {
	return e.Flags&1 > 0
}

// Range returns the absolute byte range the entry describes.
func (e FPTEntry) Range() bytes.Range {
	return bytes.Range{Offset: uint64(e.Offset), Length: uint64(e.Length)}
}

func (e FPTEntry) String() string {
	class, descr := PartInfo(e.Name.String())
	return fmt.Sprintf("%4s @ 0x%08x:0x%08x (0x%08x)  %s: %s",
		e.Name, e.Offset, uint64(e.Offset)+uint64(e.Length), e.Length, class, descr)
}

// FPT is the decoded flash partition table: where it was found, its
// header and its entries, including entries that failed range
// validation (those are flagged in the diagnostics instead of dropped).
type FPT struct {
	Base    uint64
	Header  FPTHeader
	Entries []FPTEntry
}

// FindFPT locates the $FPT signature at the known candidate offsets.
func FindFPT(c *Cursor) (uint64, error) {
	for _, offset := range fptCandidateOffsets {
		if c.HasPrefix(offset, FPTSignature) {
			return offset, nil
		}
	}
	return 0, &ErrSignatureNotFound{Signature: string(FPTSignature), Offsets: fptCandidateOffsets}
}

// DecodeFPT locates and decodes the flash partition table. The returned
// error is non-nil only when the signature is absent from all candidate
// offsets; every other deviation lands in diags and decoding recovers.
func DecodeFPT(c *Cursor, diags *Diagnostics) (*FPT, error) {
	base, err := FindFPT(c)
	if err != nil {
		return nil, err
	}

	fpt := &FPT{Base: base}
	if err := c.ReadLE(base, &fpt.Header); err != nil {
		diags.append(LayerFPT, base, err)
		return fpt, nil
	}

	headerLength := uint64(fpt.Header.HeaderLength)
	if headerLength < FPTHeaderLength {
		diags.append(LayerFPT, base, &ErrMalformedHeader{
			Structure: "FPT",
			Reason:    fmt.Sprintf("header length %#x below minimum %#x", headerLength, FPTHeaderLength),
		})
		headerLength = FPTHeaderLength
	}

	numEntries := fpt.Header.NumEntries
	if numEntries > maxFPTEntries {
		diags.append(LayerFPT, base, &ErrMalformedHeader{
			Structure: "FPT",
			Reason:    fmt.Sprintf("entry count %d exceeds maximum %d", numEntries, maxFPTEntries),
		})
		numEntries = maxFPTEntries
	}

	for i := uint32(0); i < numEntries; i++ {
		offset := base + headerLength + uint64(i)*FPTEntryLength
		var entry FPTEntry
		if err := c.ReadLE(offset, &entry); err != nil {
			// Flag the undecodable entry and keep going; with a
			// truncated buffer every remaining entry gets flagged.
			diags.append(LayerFPT, offset, err)
			continue
		}
		if !entry.Empty() {
			if err := CheckRange(c.Len(), uint64(entry.Offset), uint64(entry.Length)); err != nil {
				diags.append(LayerFPT, offset, &ErrInvalidEntryRange{
					Name:   entry.Name.String(),
					Offset: uint64(entry.Offset),
					Length: uint64(entry.Length),
					Limit:  c.Len(),
				})
			}
		}
		fpt.Entries = append(fpt.Entries, entry)
	}

	return fpt, nil
}
