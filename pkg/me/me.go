// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package me decodes Intel (CS)ME firmware images into a navigable
// structural model: the flash partition table, per-partition code
// partition directories, manifests and their trailing extension
// records.
//
// The format is known through reverse engineering only, so decoding is
// forensic by nature: every offset and length read from the image is
// range-validated before use, malformed sub-structures are recorded as
// diagnostics attached to their position and decoding continues with
// siblings. The single terminal failure is a missing top-level $FPT
// signature, because without it there is no structure to recover into.
//
// The model is read-only. Every decoded entity references the image
// buffer by offset and length, never by copy, so the buffer handed to
// Parse must outlive the model.
package me

import (
	"bytes"
	"sync"
)

// Image is the immutable byte buffer a model was decoded from. It is
// the root owner of the backing bytes; all other entities are views
// into it.
type Image struct {
	buf []byte
}

// NewImage wraps buf. The Image borrows buf, it does not copy it.
func NewImage(buf []byte) *Image {
	return &Image{buf: buf}
}

// Buf returns the backing bytes.
func (img *Image) Buf() []byte {
	return img.buf
}

// Len returns the image size.
func (img *Image) Len() uint64 {
	return uint64(len(img.buf))
}

// Partition is the byte range identified by one FPT entry. It holds a
// code partition directory when its first bytes carry the $CPD marker,
// and is opaque data otherwise.
type Partition struct {
	Index      int
	Entry      FPTEntry
	RangeValid bool
	Opaque     bool
	Directory  *CodePartitionDirectory `json:",omitempty"`
}

// Name returns the partition name from its FPT entry.
func (p *Partition) Name() string {
	return p.Entry.Name.String()
}

// StructuralModel is the root result of a parse: the flash partition
// table, the partition tree and every diagnostic collected on the way,
// in stable decode order. It is built once per Parse call and not
// mutated afterwards.
type StructuralModel struct {
	img *Image

	FPT         *FPT
	Partitions  []*Partition
	Diagnostics Diagnostics
}

// Image returns the image the model was decoded from.
func (m *StructuralModel) Image() *Image {
	return m.img
}

// Partition returns the first partition with the given name.
func (m *StructuralModel) Partition(name string) (*Partition, error) {
	for _, p := range m.Partitions {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, &ErrNotFound{What: "partition " + name}
}

// Parse decodes the firmware image in buf. It always returns a model
// together with its diagnostics, possibly a mostly empty one; the only
// error case is a missing $FPT signature. Decoding the same bytes twice
// yields identical models and diagnostics.
func Parse(buf []byte) (*StructuralModel, error) {
	img := NewImage(buf)

	var diags Diagnostics
	fpt, err := DecodeFPT(NewCursor(buf), &diags)
	if err != nil {
		return nil, err
	}

	m := &StructuralModel{img: img, FPT: fpt}

	// Partition ranges are disjoint and read-only, so partitions
	// decode concurrently. Each goroutine collects into its own slot;
	// the merge below is in partition-index order, which keeps the
	// result deterministic regardless of scheduling.
	type result struct {
		partition *Partition
		diags     Diagnostics
	}
	results := make([]result, len(fpt.Entries))
	var wg sync.WaitGroup
	for i := range fpt.Entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i].partition = decodePartition(img, i, fpt.Entries[i], &results[i].diags)
		}(i)
	}
	wg.Wait()

	m.Diagnostics = diags
	for _, r := range results {
		m.Partitions = append(m.Partitions, r.partition)
		m.Diagnostics = append(m.Diagnostics, r.diags...)
	}
	return m, nil
}

func decodePartition(img *Image, index int, entry FPTEntry, diags *Diagnostics) *Partition {
	p := &Partition{Index: index, Entry: entry}
	if entry.Empty() {
		p.Opaque = true
		return p
	}
	offset, length := uint64(entry.Offset), uint64(entry.Length)
	if err := CheckRange(img.Len(), offset, length); err != nil {
		// Already flagged by the FPT decoder; there are no bytes
		// to look into.
		p.Opaque = true
		return p
	}
	p.RangeValid = true

	part := img.buf[offset : offset+length]
	if !bytes.HasPrefix(part, CPDSignature) {
		p.Opaque = true
		return p
	}
	p.Directory = DecodeCPD(part, offset, diags)
	return p
}
