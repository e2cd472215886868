// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"fmt"

	"github.com/linuxboot/mefs/pkg/compression"
)

// Module is a code partition directory entry whose bytes represent
// executable or data content, possibly stored pre-compressed. The codec
// is resolved lazily: structural decode never touches the content.
type Module struct {
	img       *Image
	partition *Partition
	Entry     CPDEntry
}

// Module returns the named entry of the named partition's directory as
// a Module.
func (m *StructuralModel) Module(partition, name string) (*Module, error) {
	p, err := m.Partition(partition)
	if err != nil {
		return nil, err
	}
	if p.Directory == nil {
		return nil, &ErrNotFound{What: fmt.Sprintf("directory in partition %q", partition)}
	}
	entry, err := p.Directory.Entry(name)
	if err != nil {
		return nil, err
	}
	return &Module{img: m.img, partition: p, Entry: entry}, nil
}

// Compression classifies how the module's bytes are stored, from the
// directory entry's flag bits: Huffman is signalled by the offset flag
// bit, LZMA by the compression flag dword.
func (mod *Module) Compression() compression.Type {
	if mod.Entry.Huffman() {
		return compression.TypeHuffman
	}
	if mod.Entry.CompressionFlag&1 > 0 {
		return compression.TypeLZMA
	}
	return compression.TypeNone
}

// Bytes returns the stored bytes of the module as a view into the
// image, compressed or not.
func (mod *Module) Bytes() ([]byte, error) {
	base := uint64(mod.partition.Entry.Offset)
	c := NewCursor(mod.img.Buf())
	return c.Bytes(base+uint64(mod.Entry.Offset()), uint64(mod.Entry.Length))
}

// Content returns the module content, decompressing when the stored
// bytes are flagged compressed and a codec is available.
func (mod *Module) Content() ([]byte, error) {
	raw, err := mod.Bytes()
	if err != nil {
		return nil, err
	}
	t := mod.Compression()
	if t == compression.TypeNone {
		return raw, nil
	}
	comp := compression.CompressorFor(t)
	if comp == nil {
		return nil, &compression.ErrUnsupported{Type: t}
	}
	return comp.Decode(raw)
}
