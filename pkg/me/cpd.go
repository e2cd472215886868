// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"fmt"
	"strings"

	"github.com/linuxboot/mefs/pkg/bytes"
)

// CPDSignature is the magic marker of a Code Partition Directory,
// ie. "$CPD".
var CPDSignature = []byte(`$CPD`)

const (
	// CPDHeaderLength is the size of the directory header as laid out
	// in CPDHeader. Version 1.4 headers declare 0x14 and carry an
	// extra checksum dword.
	CPDHeaderLength = 0x10
	// CPDEntryLength is the size of a directory entry record.
	CPDEntryLength = 0x18

	// Offset field bit layout: the low 25 bits are the offset relative
	// to the partition start, bit 25 flags Huffman-compressed content.
	// Established by reverse engineering; the raw dword is preserved.
	cpdOffsetMask  = 0x01ffffff
	cpdHuffmanFlag = 1 << 25
)

// CPDHeader describes the directory header of a code partition.
type CPDHeader struct {
	Signature     Name4
	NumEntries    uint32
	HeaderVersion uint8
	EntryVersion  uint8
	HeaderLength  uint8 // 0x10, or 0x14 with the trailing checksum
	Checksum      uint8
	PartitionName Name4
}

func (h CPDHeader) String() string {
	var b strings.Builder
	b.WriteString("Code partition directory:\n")
	fmt.Fprintf(&b, " Name         : %s\n", h.PartitionName)
	fmt.Fprintf(&b, " Entries      : %d\n", h.NumEntries)
	fmt.Fprintf(&b, " HeaderVersion: 0x%x\n", h.HeaderVersion)
	fmt.Fprintf(&b, " EntryVersion : 0x%x\n", h.EntryVersion)
	fmt.Fprintf(&b, " HeaderLength : 0x%x\n", h.HeaderLength)
	fmt.Fprintf(&b, " Checksum     : 0x%x\n", h.Checksum)
	return b.String()
}

// CPDEntry describes one named entry of a code partition directory. The
// offset is relative to the partition start.
type CPDEntry struct {
	Name            Name12
	OffsetAndFlags  uint32
	Length          uint32
	CompressionFlag uint32
}

// Offset returns the entry offset relative to the partition start.
func (e CPDEntry) Offset() uint32 {
	return e.OffsetAndFlags & cpdOffsetMask
}

// Huffman reports whether the stored bytes are flagged as
// Huffman-compressed.
func (e CPDEntry) Huffman() bool {
	return e.OffsetAndFlags&cpdHuffmanFlag > 0
}

// Range returns the byte range of the entry, relative to the partition
// start.
func (e CPDEntry) Range() bytes.Range {
	return bytes.Range{Offset: uint64(e.Offset()), Length: uint64(e.Length)}
}

func (e CPDEntry) String() string {
	return fmt.Sprintf("%-13s @ 0x%06x:0x%06x (0x%06x) %032b",
		e.Name, e.Offset(), uint64(e.Offset())+uint64(e.Length), e.Length, e.CompressionFlag)
}

// CodePartitionDirectory is the decoded directory of one code
// partition: its header, its entries and, when present, the decoded
// manifest. Offset is absolute within the image.
type CodePartitionDirectory struct {
	Offset   uint64
	Header   CPDHeader
	Checksum uint32 // only meaningful for 0x14-byte headers
	Entries  []CPDEntry
	Manifest *Manifest `json:",omitempty"`
	Name     string
}

// manifestEntryIndex locates the directory entry holding the manifest.
// Real images name it "<partition>.man"; some repackaged images use a
// plain ".man" or ".MN2" suffixed name instead. Matching is
// case-sensitive, first match wins, later matches are diagnosed as
// duplicates.
func manifestEntryIndex(name string, entries []CPDEntry, base uint64, diags *Diagnostics) int {
	match := func(pred func(string) bool) int {
		found := -1
		for i, e := range entries {
			if !pred(e.Name.String()) {
				continue
			}
			if found < 0 {
				found = i
				continue
			}
			diags.append(LayerCPD, base, &ErrDuplicateManifest{Name: e.Name.String()})
		}
		return found
	}
	exact := name + ".man"
	if i := match(func(n string) bool { return n == exact }); i >= 0 {
		return i
	}
	if i := match(func(n string) bool { return strings.HasSuffix(n, ".man") }); i >= 0 {
		return i
	}
	return match(func(n string) bool { return strings.HasSuffix(n, ".MN2") })
}

// DecodeCPD decodes the code partition directory at the start of the
// partition byte range "part". The caller has already checked the
// signature. Offsets in diagnostics are absolute, "base" is the
// partition's position within the image.
func DecodeCPD(part []byte, base uint64, diags *Diagnostics) *CodePartitionDirectory {
	c := NewCursor(part)

	cpd := &CodePartitionDirectory{Offset: base}
	if err := c.ReadLE(0, &cpd.Header); err != nil {
		diags.append(LayerCPD, base, err)
		return cpd
	}
	cpd.Name = cpd.Header.PartitionName.String()

	headerLength := uint64(cpd.Header.HeaderLength)
	switch headerLength {
	case CPDHeaderLength:
	case CPDHeaderLength + 4:
		if err := c.ReadLE(CPDHeaderLength, &cpd.Checksum); err != nil {
			diags.append(LayerCPD, base+CPDHeaderLength, err)
			return cpd
		}
	default:
		diags.append(LayerCPD, base, &ErrMalformedHeader{
			Structure: "CPD",
			Reason:    fmt.Sprintf("unexpected header length %#x", headerLength),
		})
		headerLength = CPDHeaderLength
	}

	// The declared entry table must fit the partition. If it does not,
	// the directory is malformed and this partition's decode stops;
	// sibling partitions are unaffected.
	tableLength := uint64(cpd.Header.NumEntries) * CPDEntryLength
	if err := CheckRange(c.Len(), headerLength, tableLength); err != nil {
		diags.append(LayerCPD, base, &ErrMalformedHeader{
			Structure: "CPD",
			Reason: fmt.Sprintf("%d entries at %#x exceed partition length %#x",
				cpd.Header.NumEntries, headerLength, c.Len()),
		})
		return cpd
	}

	// Entry ranges are relative to the partition start, so the whole
	// partition is the containing range.
	extent := bytes.Range{Length: c.Len()}

	for i := uint32(0); i < cpd.Header.NumEntries; i++ {
		offset := headerLength + uint64(i)*CPDEntryLength
		var entry CPDEntry
		if err := c.ReadLE(offset, &entry); err != nil {
			diags.append(LayerCPD, base+offset, err)
			continue
		}
		if !extent.Contains(entry.Range()) {
			diags.append(LayerCPD, base+offset, &ErrInvalidEntryRange{
				Name:   entry.Name.String(),
				Offset: uint64(entry.Offset()),
				Length: uint64(entry.Length),
				Limit:  c.Len(),
			})
		}
		cpd.Entries = append(cpd.Entries, entry)
	}

	if i := manifestEntryIndex(cpd.Name, cpd.Entries, base, diags); i >= 0 {
		entry := cpd.Entries[i]
		if extent.Contains(entry.Range()) {
			offset, length := uint64(entry.Offset()), uint64(entry.Length)
			cpd.Manifest = DecodeManifest(part[offset:offset+length], base+offset, diags)
		}
	}

	return cpd
}

// Entry returns the directory entry with the given name, exact match.
func (cpd *CodePartitionDirectory) Entry(name string) (CPDEntry, error) {
	for _, e := range cpd.Entries {
		if e.Name.String() == name {
			return e, nil
		}
	}
	return CPDEntry{}, &ErrNotFound{What: fmt.Sprintf("directory entry %q", name)}
}
